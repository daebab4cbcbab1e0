// Package session owns all per-session mutable state: the compound session
// key, the tokenizer used for baseline word sets, and the policy store that
// makes synchronous gating decisions.
package session

import (
	"fmt"
	"strings"
)

// Key uniquely identifies one meeting+participant conversation, formatted as
// "meetingID:employeeID". All per-session state is keyed by it.
type Key string

// NewKey builds a session key from its parts.
func NewKey(meetingID, employeeID string) Key {
	return Key(meetingID + ":" + employeeID)
}

// ParseKey validates and splits a raw session key.
func ParseKey(raw string) (Key, error) {
	meetingID, employeeID, ok := strings.Cut(raw, ":")
	if !ok || meetingID == "" || employeeID == "" {
		return "", fmt.Errorf("invalid session key %q: want meetingID:employeeID", raw)
	}
	return Key(raw), nil
}

// MeetingID returns the meeting half of the key.
func (k Key) MeetingID() string {
	m, _, _ := strings.Cut(string(k), ":")
	return m
}

// EmployeeID returns the participant half of the key.
func (k Key) EmployeeID() string {
	_, e, _ := strings.Cut(string(k), ":")
	return e
}

func (k Key) String() string { return string(k) }

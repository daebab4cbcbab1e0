package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"meetpilot/internal/session"
	"meetpilot/internal/store"
)

func (s *Server) listEmployees(w http.ResponseWriter, r *http.Request) {
	out, err := s.store.ListEmployees(r.Context())
	if err != nil {
		s.logger.Error("list employees failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "list employees failed")
		return
	}
	if out == nil {
		out = []store.Employee{}
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) createEmployee(w http.ResponseWriter, r *http.Request) {
	var e store.Employee
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if e.Name == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := s.store.CreateEmployee(r.Context(), &e); err != nil {
		s.logger.Error("create employee failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "create employee failed")
		return
	}
	s.respondJSON(w, http.StatusCreated, e)
}

func (s *Server) getEmployee(w http.ResponseWriter, r *http.Request) {
	e, err := s.store.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "employee not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "get employee failed")
		return
	}
	s.respondJSON(w, http.StatusOK, e)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Profile string `json:"profile"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	err := s.store.UpdateProfile(r.Context(), chi.URLParam(r, "id"), body.Profile)
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "employee not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "update profile failed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) listCommitments(w http.ResponseWriter, r *http.Request) {
	out, err := s.store.OpenCommitments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "list commitments failed")
		return
	}
	if out == nil {
		out = []store.Commitment{}
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) addCommitment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text  string     `json:"text"`
		DueAt *time.Time `json:"due_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Text == "" {
		s.respondError(w, http.StatusBadRequest, "text is required")
		return
	}
	c := store.Commitment{
		EmployeeID: chi.URLParam(r, "id"),
		Text:       body.Text,
		DueAt:      body.DueAt,
	}
	if err := s.store.AddCommitment(r.Context(), &c); err != nil {
		s.respondError(w, http.StatusInternalServerError, "add commitment failed")
		return
	}
	s.respondJSON(w, http.StatusCreated, c)
}

func (s *Server) saveSurveyResponse(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Question == "" {
		s.respondError(w, http.StatusBadRequest, "question is required")
		return
	}
	resp := store.SurveyResponse{
		EmployeeID: chi.URLParam(r, "id"),
		Question:   body.Question,
		Answer:     body.Answer,
	}
	if err := s.store.SaveSurveyResponse(r.Context(), &resp); err != nil {
		s.respondError(w, http.StatusInternalServerError, "save survey response failed")
		return
	}
	s.respondJSON(w, http.StatusCreated, resp)
}

func (s *Server) createMeeting(w http.ResponseWriter, r *http.Request) {
	var body struct {
		EmployeeID string `json:"employee_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.EmployeeID == "" {
		s.respondError(w, http.StatusBadRequest, "employee_id is required")
		return
	}
	if _, err := s.store.GetEmployee(r.Context(), body.EmployeeID); err != nil {
		s.respondError(w, http.StatusNotFound, "employee not found")
		return
	}
	m := store.Meeting{EmployeeID: body.EmployeeID}
	if err := s.store.CreateMeeting(r.Context(), &m); err != nil {
		s.respondError(w, http.StatusInternalServerError, "create meeting failed")
		return
	}
	s.respondJSON(w, http.StatusCreated, m)
}

func (s *Server) getMeeting(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.GetMeeting(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "meeting not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "get meeting failed")
		return
	}
	s.respondJSON(w, http.StatusOK, m)
}

func (s *Server) updateNotes(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	err := s.store.UpdateNotes(r.Context(), chi.URLParam(r, "id"), body.Notes)
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "meeting not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "update notes failed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// endMeeting completes the meeting row and tears down the live session.
func (s *Server) endMeeting(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		Notes        string `json:"notes"`
		Satisfaction int    `json:"satisfaction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	m, err := s.store.GetMeeting(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "meeting not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "get meeting failed")
		return
	}

	if err := s.store.CompleteMeeting(r.Context(), id, body.Notes, body.Satisfaction); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(w, http.StatusConflict, "meeting already completed")
			return
		}
		s.respondError(w, http.StatusInternalServerError, "complete meeting failed")
		return
	}

	s.orch.EndMeeting(session.NewKey(id, m.EmployeeID))
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

package normalize

// findJSONCandidates returns every balanced top-level JSON object embedded
// in s, in order of appearance. Braces inside string literals and escaped
// quotes do not affect the brace count, so prose around or between objects
// is skipped over.
//
// The walk is per byte: the delimiters that matter ({, }, ", \) are ASCII,
// and UTF-8 continuation bytes can never collide with them.
func findJSONCandidates(s string) []string {
	var candidates []string
	var depth int
	var start = -1
	var inString bool
	var escape bool

	for i := 0; i < len(s); i++ {
		b := s[i]

		if escape {
			escape = false
			continue
		}

		if inString {
			if b == '\\' {
				escape = true
			} else if b == '"' {
				inString = false
			}
			continue
		}

		if b == '"' {
			// A quote outside an object is prose, not a JSON string.
			if depth > 0 {
				inString = true
			}
			continue
		}

		if b == '{' {
			if depth == 0 {
				start = i
			}
			depth++
		} else if b == '}' {
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					candidates = append(candidates, s[start:i+1])
					start = -1
				}
			}
		}
	}

	return candidates
}

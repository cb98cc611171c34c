package model

// Answer holds the candidate's response to a single question. Exactly one
// of Value or Values is populated: Value for multiple-choice, true-false
// and short-answer questions, Values for multiple-select.
type Answer struct {
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
}

// IsZero reports whether the answer carries no response at all.
func (a Answer) IsZero() bool {
	return a.Value == "" && len(a.Values) == 0
}

// Wire reduces the answer to the scalar-or-list form the backend expects.
func (a Answer) Wire() interface{} {
	if a.Values != nil {
		return a.Values
	}
	return a.Value
}

// clone returns a deep copy so shared snapshots cannot alias the session.
func (a Answer) clone() Answer {
	if a.Values == nil {
		return a
	}
	values := make([]string, len(a.Values))
	copy(values, a.Values)
	return Answer{Values: values}
}

// CloneAnswers deep-copies an answer map.
func CloneAnswers(in map[string]Answer) map[string]Answer {
	out := make(map[string]Answer, len(in))
	for id, a := range in {
		out[id] = a.clone()
	}
	return out
}

// CloneMarks copies a mark-for-review map.
func CloneMarks(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for id, m := range in {
		out[id] = m
	}
	return out
}

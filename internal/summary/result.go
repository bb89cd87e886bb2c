package summary

// Result is the tagged outcome of Summarize at an action boundary. Analysis is
// empty whenever Error is set.
type Result struct {
	Analysis string `json:"analysis"`
	Error    string `json:"error,omitempty"`
}

func ResultOf(s *Summary, err error) Result {
	if err != nil {
		return Result{Error: err.Error()}
	}
	if s == nil {
		return Result{}
	}
	return Result{Analysis: s.Text}
}

package ledger

// Result is the tagged outcome of a ledger mutation at an action boundary.
// A failed result means the stored state is unknown; callers must not assume
// the mutation happened.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// JobIDsResult is the tagged outcome of a ledger read at an action boundary.
type JobIDsResult struct {
	JobIDs []string `json:"jobIds"`
	Error  string   `json:"error,omitempty"`
}

func ResultOf(err error) Result {
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	return Result{Success: true}
}

func JobIDsResultOf(ids []string, err error) JobIDsResult {
	if err != nil {
		return JobIDsResult{JobIDs: []string{}, Error: err.Error()}
	}
	if ids == nil {
		ids = []string{}
	}
	return JobIDsResult{JobIDs: ids}
}

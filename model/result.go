package model

// UpdateResult is the outcome of applying exactly one update, reported at the
// same ordinal position the update was transmitted in. "Applied" carries no
// error; a failed item carries a message but never aborts the items after it.
type UpdateResult struct {
	Applied      bool             `json:"applied"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
	Servers      []ServerIdentity `json:"servers,omitempty"` // domain-scope only
}

// Success builds an applied result.
func Success(servers []ServerIdentity) UpdateResult {
	return UpdateResult{Applied: true, Servers: servers}
}

// Failure builds a failed result carrying the error description.
func Failure(err error) UpdateResult {
	return UpdateResult{Applied: false, ErrorMessage: err.Error()}
}

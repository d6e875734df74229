package documents

// Document lifecycle statuses.
const (
	StatusUploaded   = "uploaded"
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

var transitions = map[string][]string{
	StatusUploaded:   {StatusQueued},
	StatusQueued:     {StatusProcessing},
	StatusProcessing: {StatusDone, StatusFailed},
}

// CanTransition reports whether moving a document from one status to another
// is allowed. done and failed are terminal.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(status string) bool {
	return status == StatusDone || status == StatusFailed
}

// IsValidStatus reports whether the value is a known lifecycle status.
func IsValidStatus(status string) bool {
	switch status {
	case StatusUploaded, StatusQueued, StatusProcessing, StatusDone, StatusFailed:
		return true
	}
	return false
}

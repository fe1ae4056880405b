package domain

// Status is the checkout session state. A session starts in Editing;
// Succeeded, Failed, and Cancelled end the attempt.
type Status string

const (
	StatusEditing         Status = "EDITING"
	StatusValidating      Status = "VALIDATING"
	StatusAwaitingIntent  Status = "AWAITING_INTENT"
	StatusAwaitingGateway Status = "AWAITING_GATEWAY_RESULT"
	StatusVerifying       Status = "VERIFYING"
	StatusSucceeded       Status = "SUCCEEDED"
	StatusFailed          Status = "FAILED"
	StatusCancelled       Status = "CANCELLED"
)

func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCancelled
}

// String representation (for logging)
func (s Status) String() string {
	return string(s)
}

var allowedTransitions = map[Status][]Status{
	StatusEditing:    {StatusValidating},
	StatusValidating: {StatusEditing, StatusAwaitingIntent},
	StatusAwaitingIntent: {
		StatusAwaitingGateway,
		StatusFailed,
	},
	StatusAwaitingGateway: {
		StatusVerifying,
		StatusCancelled,
		// Gateway decline hands the shopper straight back to the form.
		StatusEditing,
	},
	StatusVerifying: {StatusSucceeded, StatusFailed},
	// A dismissed attempt reopens the same session for another try.
	StatusCancelled: {StatusEditing},
}

// CanTransitionTo reports whether from→to is a legal move. Succeeded and
// Failed allow nothing; a new attempt means a fresh session.
func CanTransitionTo(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

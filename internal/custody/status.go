package custody

import "fmt"

// Status is a file ticket's position in the custody lifecycle.
type Status string

const (
	StatusCreated    Status = "created"
	StatusInTransit  Status = "in_transit"
	StatusReceived   Status = "received"
	StatusProcessing Status = "processing"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusCompleted  Status = "completed"
	StatusLost       Status = "lost"
)

// transitions is the complete legal-move table. InTransit is only entered
// through Transfer and Received only through Receive; Lost is reachable
// from every non-terminal state. Completed, Rejected and Lost accept no
// further moves.
var transitions = map[Status][]Status{
	StatusCreated:    {StatusInTransit, StatusLost},
	StatusInTransit:  {StatusReceived, StatusLost},
	StatusReceived:   {StatusInTransit, StatusProcessing, StatusLost},
	StatusProcessing: {StatusInTransit, StatusApproved, StatusRejected, StatusLost},
	StatusApproved:   {StatusCompleted, StatusLost},
	StatusRejected:   {},
	StatusCompleted:  {},
	StatusLost:       {},
}

// Valid reports whether s is a known custody status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transitions are accepted from s.
func (s Status) Terminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionError identifies an illegal custody move: the current state
// and the attempted target. Illegal moves are rejected, never coerced.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal custody transition from %q to %q", e.From, e.To)
}

package consult

import (
	"github.com/abhisek/mediz/internal/session"
)

// turnDoneMsg carries the outcome of a submitted learner message.
type turnDoneMsg struct {
	Message string
	Result  *session.TurnResult
	Err     error
}

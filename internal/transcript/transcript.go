// Package transcript models the append-only history of a consultation.
package transcript

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/abhisek/mediz/internal/diagnosis"
)

// ErrOutOfOrder is returned when a turn is older than the last recorded one.
var ErrOutOfOrder = errors.New("turn is older than the last recorded turn")

// Author identifies who produced a turn. The set is closed.
type Author string

const (
	AuthorLearner Author = "LEARNER"
	AuthorTutor   Author = "TUTOR"
	AuthorSystem  Author = "SYSTEM"
)

// ParseAuthor validates a stored author value.
func ParseAuthor(s string) (Author, error) {
	switch a := Author(s); a {
	case AuthorLearner, AuthorTutor, AuthorSystem:
		return a, nil
	}
	return "", fmt.Errorf("unknown author %q", s)
}

// DefaultName is the display name used when a turn carries none.
func (a Author) DefaultName() string {
	switch a {
	case AuthorLearner:
		return "Étudiant"
	case AuthorTutor:
		return "Système Tuteur"
	default:
		return "Système"
	}
}

// MessageType tags the pedagogical role of a turn.
type MessageType string

const (
	TypeQuestion   MessageType = "QUESTION"
	TypeAnswer     MessageType = "REPONSE"
	TypeCorrection MessageType = "CORRECTION"
	TypeFeedback   MessageType = "FEEDBACK"
	TypeSystem     MessageType = "SYSTEME"
)

// Turn is one immutable entry of a consultation.
type Turn struct {
	ID         string                       `json:"id"`
	Seq        int                          `json:"seq"`
	Author     Author                       `json:"author"`
	AuthorName string                       `json:"author_name"`
	Message    string                       `json:"message"`
	Type       MessageType                  `json:"type"`
	Timestamp  time.Time                    `json:"timestamp"`
	Errors     []diagnosis.PedagogicalError `json:"errors,omitempty"`
}

// ContainsError reports whether errors were detected on this turn.
func (t Turn) ContainsError() bool {
	return len(t.Errors) > 0
}

// Speaker returns the display name of the turn's author.
func (t Turn) Speaker() string {
	if t.AuthorName != "" {
		return t.AuthorName
	}
	return t.Author.DefaultName()
}

// History is the ordered, append-only list of a session's turns.
type History struct {
	turns []Turn
}

// Restore rebuilds a history from stored turns, ordering them by sequence.
func Restore(turns []Turn) *History {
	out := make([]Turn, len(turns))
	copy(out, turns)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return &History{turns: out}
}

// Append records t and returns it with its sequence number assigned. A zero
// timestamp is stamped with the current time.
func (h *History) Append(t Turn) (Turn, error) {
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now().UTC()
	}
	if n := len(h.turns); n > 0 {
		last := h.turns[n-1]
		if t.Timestamp.Before(last.Timestamp) {
			return Turn{}, fmt.Errorf("append turn at %s after %s: %w",
				t.Timestamp.Format(time.RFC3339Nano), last.Timestamp.Format(time.RFC3339Nano), ErrOutOfOrder)
		}
		t.Seq = last.Seq + 1
	} else {
		t.Seq = 1
	}
	h.turns = append(h.turns, t)
	return t, nil
}

// Len returns the number of turns.
func (h *History) Len() int {
	return len(h.turns)
}

// Turns returns a copy of every turn in order.
func (h *History) Turns() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Last returns up to n most recent turns in order.
func (h *History) Last(n int) []Turn {
	if n <= 0 {
		return nil
	}
	start := len(h.turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(h.turns)-start)
	copy(out, h.turns[start:])
	return out
}

// Since returns the turns whose sequence is greater than seq.
func (h *History) Since(seq int) []Turn {
	var out []Turn
	for _, t := range h.turns {
		if t.Seq > seq {
			out = append(out, t)
		}
	}
	return out
}

// LastSeq returns the sequence number of the newest turn, or 0.
func (h *History) LastSeq() int {
	if len(h.turns) == 0 {
		return 0
	}
	return h.turns[len(h.turns)-1].Seq
}

// Count returns the number of turns by author.
func (h *History) Count(a Author) int {
	n := 0
	for _, t := range h.turns {
		if t.Author == a {
			n++
		}
	}
	return n
}

// Format renders turns as "speaker: message" lines.
func Format(turns []Turn) string {
	var b strings.Builder
	for _, t := range turns {
		b.WriteString(t.Speaker())
		b.WriteString(": ")
		b.WriteString(t.Message)
		b.WriteString("\n")
	}
	return b.String()
}

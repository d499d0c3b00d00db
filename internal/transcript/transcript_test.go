package transcript

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mediz/internal/diagnosis"
)

func TestHistory_AppendAssignsSequence(t *testing.T) {
	h := &History{}
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	first, err := h.Append(Turn{Author: AuthorLearner, Message: "Bonjour", Timestamp: base})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Seq)

	// Equal timestamps are allowed.
	second, err := h.Append(Turn{Author: AuthorTutor, Message: "Bonjour docteur", Timestamp: base})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Seq)
	assert.Equal(t, 2, h.LastSeq())
}

func TestHistory_RejectsOutOfOrder(t *testing.T) {
	h := &History{}
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	_, err := h.Append(Turn{Author: AuthorLearner, Timestamp: base})
	require.NoError(t, err)

	_, err = h.Append(Turn{Author: AuthorTutor, Timestamp: base.Add(-time.Second)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutOfOrder))
	assert.Equal(t, 1, h.Len(), "rejected turn must not be recorded")
}

func TestHistory_PrefixPreserved(t *testing.T) {
	h := &History{}
	for i := 0; i < 3; i++ {
		_, err := h.Append(Turn{Author: AuthorLearner, Message: string(rune('a' + i))})
		require.NoError(t, err)
	}
	before := h.Turns()

	_, err := h.Append(Turn{Author: AuthorTutor, Message: "d"})
	require.NoError(t, err)

	after := h.Turns()
	require.Len(t, after, 4)
	assert.Equal(t, before, after[:3])

	// Mutating a returned copy does not affect the history.
	after[0].Message = "changed"
	assert.Equal(t, "a", h.Turns()[0].Message)
}

func TestHistory_ZeroTimestampStamped(t *testing.T) {
	h := &History{}
	turn, err := h.Append(Turn{Author: AuthorSystem})
	require.NoError(t, err)
	assert.False(t, turn.Timestamp.IsZero())
}

func TestHistory_LastSinceCount(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	h := Restore([]Turn{
		{Seq: 3, Author: AuthorLearner, Message: "c", Timestamp: base.Add(2 * time.Second)},
		{Seq: 1, Author: AuthorLearner, Message: "a", Timestamp: base},
		{Seq: 2, Author: AuthorTutor, Message: "b", Timestamp: base.Add(time.Second)},
	})

	assert.Equal(t, 3, h.Len())
	assert.Equal(t, "a", h.Turns()[0].Message)

	last := h.Last(2)
	require.Len(t, last, 2)
	assert.Equal(t, "b", last[0].Message)
	assert.Len(t, h.Last(10), 3)
	assert.Nil(t, h.Last(0))

	since := h.Since(1)
	require.Len(t, since, 2)
	assert.Equal(t, 2, since[0].Seq)

	assert.Equal(t, 2, h.Count(AuthorLearner))
	assert.Equal(t, 0, h.Count(AuthorSystem))

	next, err := h.Append(Turn{Author: AuthorTutor, Timestamp: base.Add(3 * time.Second)})
	require.NoError(t, err)
	assert.Equal(t, 4, next.Seq)
}

func TestFormat(t *testing.T) {
	turns := []Turn{
		{Author: AuthorLearner, AuthorName: "Claire", Message: "Avez-vous de la fièvre ?"},
		{Author: AuthorTutor, Message: "Oui, 39°C."},
	}
	assert.Equal(t, "Claire: Avez-vous de la fièvre ?\nSystème Tuteur: Oui, 39°C.\n", Format(turns))
}

func TestParseAuthor(t *testing.T) {
	for _, a := range []Author{AuthorLearner, AuthorTutor, AuthorSystem} {
		got, err := ParseAuthor(string(a))
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
	_, err := ParseAuthor("PATIENT")
	assert.Error(t, err)
}

func TestTurn_ContainsError(t *testing.T) {
	assert.False(t, Turn{}.ContainsError())
	assert.True(t, Turn{Errors: []diagnosis.PedagogicalError{{Category: diagnosis.CategoryVagueReasoning}}}.ContainsError())
}

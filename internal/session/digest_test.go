package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigests(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.queue(
		"SYMPTOME_MANQUE", "J'ai mal partout.",
		"AUCUNE_ERREUR", "Merci docteur.", "Bonne consultation.",
	)

	first := h.turn(t, "u1", "", "C'est une grippe")
	h.turn(t, "u1", first.SessionID, "Je pense à une grippe, merci")

	digests, err := h.svc.Digests(context.Background(), "u1", 0)
	require.NoError(t, err)
	require.Len(t, digests, 1)

	d := digests[0]
	assert.Equal(t, "Consultation de routine", d.CaseTitle)
	assert.Equal(t, 6, d.Stars)
	assert.Equal(t, 2, d.LearnerTurns)
	assert.True(t, d.Terminated)
	assert.True(t, d.DiagnosisCorrect)
	assert.Equal(t, "Syndrome grippal", d.ProposedDiagnosis)
	assert.Equal(t, map[string]int{"SYMPTOME_MANQUE": 1}, d.ErrorCategories)

	none, err := h.svc.Digests(context.Background(), "nobody", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

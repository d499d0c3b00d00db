package cmd

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mediz/internal/config"
)

func newFlagCmd(t *testing.T, flags ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	c.Flags().String("db", "", "")
	c.Flags().String("learner", "", "")
	require.NoError(t, c.ParseFlags(flags))
	return c
}

func TestResolveDBPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("MEDIZ_DB", "")

	flagPath := filepath.Join(dir, "flag", "a.db")
	got, err := resolveDBPath(newFlagCmd(t, "--db", flagPath), &config.Config{Database: config.DatabaseConfig{Path: "ignored"}})
	require.NoError(t, err)
	assert.Equal(t, flagPath, got)
	assert.DirExists(t, filepath.Dir(flagPath))

	cfgPath := filepath.Join(dir, "cfg", "b.db")
	got, err = resolveDBPath(newFlagCmd(t), &config.Config{Database: config.DatabaseConfig{Path: cfgPath}})
	require.NoError(t, err)
	assert.Equal(t, cfgPath, got)

	got, err = resolveDBPath(newFlagCmd(t), config.Default())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "mediz", "mediz.db"), got)
}

func TestLocalLearner(t *testing.T) {
	t.Setenv("USER", "claire")
	assert.Equal(t, "u42", localLearner(newFlagCmd(t, "--learner", "u42")))
	assert.Equal(t, "claire", localLearner(newFlagCmd(t)))
	assert.Equal(t, "claire", localLearner(&cobra.Command{Use: "bare"}))

	t.Setenv("USER", "")
	assert.Equal(t, "local", localLearner(&cobra.Command{Use: "bare"}))
}

func TestLLMConfig(t *testing.T) {
	for _, k := range []string{
		"MEDIZ_LLM_PROVIDER", "MEDIZ_GEMINI_API_KEY", "MEDIZ_OPENAI_API_KEY", "MEDIZ_ANTHROPIC_API_KEY",
		"MEDIZ_OPENROUTER_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
	} {
		t.Setenv(k, "")
	}

	_, ok := llmConfig()
	assert.False(t, ok)

	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg, ok := llmConfig()
	require.True(t, ok)
	assert.Equal(t, "openai", cfg.Provider)

	t.Setenv("MEDIZ_LLM_PROVIDER", "anthropic")
	t.Setenv("MEDIZ_ANTHROPIC_API_KEY", "ak-test")
	cfg, ok = llmConfig()
	require.True(t, ok)
	assert.Equal(t, "anthropic", cfg.Provider)
}

func TestCommandTree(t *testing.T) {
	want := map[string][]string{
		"cases":    {"list", "seed"},
		"learner":  {"set", "show", "summary"},
		"sessions": {"list", "show", "terminate"},
		"llm":      {"list", "stats", "view"},
	}
	for parent, children := range want {
		c, _, err := rootCmd.Find([]string{parent})
		require.NoError(t, err, parent)
		var got []string
		for _, sub := range c.Commands() {
			got = append(got, sub.Name())
		}
		assert.ElementsMatch(t, children, got, parent)
	}
	for _, name := range []string{"serve", "consult", "version"} {
		c, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, c.Name())
	}
}

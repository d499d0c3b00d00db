package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/mediz/internal/app"
	"github.com/abhisek/mediz/internal/screen"
	"github.com/abhisek/mediz/internal/screens/consult"
	"github.com/abhisek/mediz/internal/screens/welcome"
)

var consultCmd = &cobra.Command{
	Use:   "consult",
	Short: "Start a consultation in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsult(cmd)
	},
}

func init() {
	consultCmd.Flags().StringP("learner", "l", "", "Learner identifier (default $USER)")
	consultCmd.Flags().StringP("session", "s", "", "Resume an active session")
}

// runConsult builds the tutoring pipeline and launches the TUI.
func runConsult(cmd *cobra.Command) error {
	ctx := cmd.Context()
	rt, err := openRuntime(cmd, runtimeOptions{logToFile: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	c, err := rt.buildConsultation(ctx, nil)
	if err != nil {
		return fmt.Errorf("build consultation: %w", err)
	}

	learnerID := localLearner(cmd)
	l, err := c.learners.GetOrCreate(ctx, learnerID)
	if err != nil {
		return fmt.Errorf("resolve learner: %w", err)
	}
	prog, err := c.sessions.Progression(ctx, learnerID)
	if err != nil {
		return fmt.Errorf("load progression: %w", err)
	}

	prior := prog.TotalStars
	sessionID, _ := cmd.Flags().GetString("session")
	if sessionID != "" {
		// The resumed session's stars are reported back by its next turn.
		sess, err := c.sessions.Get(ctx, learnerID, sessionID)
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		if sess != nil && sess.Active() {
			prior -= sess.StarScore
		}
	}

	chat := consult.New(c.sessions, consult.Options{
		LearnerID:  learnerID,
		SessionID:  sessionID,
		PriorStars: prior,
		Threshold:  rt.cfg.Stars.LevelThreshold,
		History:    c.sessions,
	})
	if sessionID != "" {
		return app.Run(chat)
	}
	return app.Run(welcome.New(l.DisplayName(), func() screen.Screen { return chat }))
}

// localLearner returns --learner, falling back to the OS user name.
func localLearner(cmd *cobra.Command) string {
	if cmd.Flags().Lookup("learner") != nil {
		if id, _ := cmd.Flags().GetString("learner"); id != "" {
			return id
		}
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}

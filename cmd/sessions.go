package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mediz/internal/stars"
	"github.com/abhisek/mediz/internal/transcript"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect a learner's consultations",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd, runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		learnerID := localLearner(cmd)
		recs, err := rt.store.SessionRepo().ListByLearner(cmd.Context(), learnerID, limit)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		if len(recs) == 0 {
			fmt.Printf("No sessions for %s.\n", learnerID)
			return nil
		}

		fmt.Printf("%-36s  %-16s  %-10s  %5s  %-30s  %s\n",
			"ID", "Started", "State", "Stars", "Case", "Diagnosis")
		fmt.Println(strings.Repeat("─", 120))
		for _, r := range recs {
			diag := "-"
			if r.ProposedDiagnosis != nil {
				diag = *r.ProposedDiagnosis
				if r.DiagnosisCorrect {
					diag += " ✓"
				} else {
					diag += " ✗"
				}
			}
			fmt.Printf("%-36s  %-16s  %-10s  %5d  %-30s  %s\n",
				r.ID,
				r.StartedAt.Local().Format("2006-01-02 15:04"),
				r.State,
				r.StarScore,
				truncate(r.CaseTitle, 30),
				diag,
			)
		}
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a session transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := openRuntime(cmd, runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		c, err := rt.buildConsultation(ctx, nil)
		if err != nil {
			return fmt.Errorf("build consultation: %w", err)
		}
		sess, err := c.sessions.Get(ctx, localLearner(cmd), args[0])
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		if sess == nil {
			return fmt.Errorf("session %s not found", args[0])
		}

		turns := sess.History.Turns()
		badge := stars.SessionBadge(sess.StarScore, sess.History.Count(transcript.AuthorLearner))

		fmt.Printf("ID:        %s\n", sess.ID)
		fmt.Printf("Case:      %s\n", sess.CaseTitle())
		fmt.Printf("State:     %s\n", sess.State)
		fmt.Printf("Started:   %s\n", sess.StartedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Stars:     %d %s %s\n", sess.StarScore, badge.Icon(), badge.DisplayName())
		if sess.ProposedDiagnosis != nil {
			verdict := "incorrect"
			if sess.DiagnosisCorrect {
				verdict = "correct"
			}
			fmt.Printf("Diagnosis: %s (%s)\n", *sess.ProposedDiagnosis, verdict)
		}

		sep := strings.Repeat("─", 60)
		fmt.Println()
		fmt.Println(sep)
		fmt.Print(transcript.Format(turns))
		fmt.Println(sep)

		for _, t := range turns {
			for _, e := range t.Errors {
				status := " "
				if e.Corrected {
					status = "✓"
				}
				fmt.Printf("[%s] #%d %s: %s (%s)\n", status, t.Seq, e.Category, e.Description, e.ID)
			}
		}
		return nil
	},
}

var sessionsTerminateCmd = &cobra.Command{
	Use:   "terminate <id>",
	Short: "End a session, optionally recording a diagnosis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := openRuntime(cmd, runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		c, err := rt.buildConsultation(ctx, nil)
		if err != nil {
			return fmt.Errorf("build consultation: %w", err)
		}

		var proposed *string
		if cmd.Flags().Changed("diagnosis") {
			d, _ := cmd.Flags().GetString("diagnosis")
			proposed = &d
		}
		ok, err := c.sessions.Terminate(ctx, localLearner(cmd), args[0], proposed)
		if err != nil {
			return fmt.Errorf("terminate session: %w", err)
		}
		if !ok {
			return fmt.Errorf("session %s not found", args[0])
		}
		fmt.Println("Session terminated.")
		return nil
	},
}

func init() {
	sessionsCmd.PersistentFlags().StringP("learner", "l", "", "Learner identifier (default $USER)")
	sessionsListCmd.Flags().IntP("limit", "n", 20, "Number of sessions to show")
	sessionsTerminateCmd.Flags().StringP("diagnosis", "d", "", "Final diagnosis to record")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsTerminateCmd)
}

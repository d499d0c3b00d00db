package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/mediz/internal/learner"
	"github.com/abhisek/mediz/internal/tutor"
)

var learnerCmd = &cobra.Command{
	Use:   "learner",
	Short: "Show and update learner profiles",
}

var learnerShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a learner's profile and progression",
	Args:  cobra.MaximumNArgs(1),
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

		id := learnerArg(cmd, args)
		l, err := c.learners.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("get learner: %w", err)
		}
		if l == nil {
			return fmt.Errorf("learner %q not found", id)
		}
		prog, err := c.sessions.Progression(ctx, id)
		if err != nil {
			return fmt.Errorf("load progression: %w", err)
		}

		name := l.DisplayName()
		if name == "" {
			name = "(sans nom)"
		}
		fmt.Printf("ID:          %s\n", l.ID)
		fmt.Printf("Name:        %s\n", name)
		if l.Email != "" {
			fmt.Printf("Email:       %s\n", l.Email)
		}
		fmt.Printf("Registered:  %s\n", l.RegisteredAt.Local().Format("2006-01-02 15:04"))
		fmt.Printf("Tier:        %s\n", l.Profile.Tier.Label())
		fmt.Printf("Specialty:   %s\n", l.Profile.Specialty)
		fmt.Printf("Domain:      %s\n", l.Profile.Domain)
		fmt.Println()
		fmt.Printf("Level:       %s\n", prog.CurrentLevel)
		fmt.Printf("Stars:       %d (next level at %d)\n", prog.TotalStars, rt.cfg.Stars.LevelThreshold)
		fmt.Printf("Sessions:    %d (%d completed)\n", prog.SessionCount, prog.CompletedSessions)
		if prog.NextLevelUnlocked {
			fmt.Println("Next level unlocked!")
		}
		return nil
	},
}

var learnerSetCmd = &cobra.Command{
	Use:   "set [id]",
	Short: "Update a learner's profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := openRuntime(cmd, runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		var upd learner.ProfileUpdate
		if v, _ := cmd.Flags().GetString("tier"); v != "" {
			tier, err := learner.ParseTier(v)
			if err != nil {
				return err
			}
			upd.Tier = &tier
		}
		if cmd.Flags().Changed("specialty") {
			v, _ := cmd.Flags().GetString("specialty")
			upd.Specialty = &v
		}
		if cmd.Flags().Changed("domain") {
			v, _ := cmd.Flags().GetString("domain")
			upd.Domain = &v
		}

		svc := learner.NewService(rt.store.LearnerRepo())
		id := learnerArg(cmd, args)
		if _, err := svc.GetOrCreate(ctx, id); err != nil {
			return fmt.Errorf("resolve learner: %w", err)
		}
		l, err := svc.UpdateProfile(ctx, id, upd)
		if err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		fmt.Printf("%s: %s, %s\n", l.ID, l.Profile.Tier.Label(), l.Profile.Specialty)
		return nil
	},
}

var learnerSummaryCmd = &cobra.Command{
	Use:   "summary [id]",
	Short: "Generate an AI summary of a learner's consultations",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd, runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		c, err := rt.buildConsultation(ctx, nil)
		if err != nil {
			return fmt.Errorf("build consultation: %w", err)
		}

		id := learnerArg(cmd, args)
		l, err := c.learners.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("get learner: %w", err)
		}
		if l == nil {
			return fmt.Errorf("learner %q not found", id)
		}

		limit, _ := cmd.Flags().GetInt("limit")
		digests, err := c.sessions.Digests(ctx, id, limit)
		if err != nil {
			return fmt.Errorf("load sessions: %w", err)
		}
		if len(digests) == 0 {
			fmt.Println("No consultations to summarize yet.")
			return nil
		}

		sum, err := tutor.NewSummarizer(c.gateway).Summarize(ctx, tutor.SummaryInput{
			LearnerName: l.DisplayName(),
			Tier:        l.Profile.Tier.Label(),
			Specialty:   l.Profile.Specialty,
			Sessions:    digests,
		})
		if err != nil {
			return err
		}

		fmt.Println(sum.Summary)
		printList("Points forts", sum.Strengths)
		printList("À travailler", sum.Weaknesses)
		printList("Habitudes", sum.Patterns)
		return nil
	},
}

// learnerArg returns the positional learner ID, falling back to the
// local user.
func learnerArg(cmd *cobra.Command, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return localLearner(cmd)
}

func printList(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Println()
	fmt.Println(title)
	fmt.Println(strings.Repeat("─", len([]rune(title))))
	for _, it := range items {
		fmt.Printf("  • %s\n", it)
	}
}

func init() {
	learnerSetCmd.Flags().String("tier", "", "Expertise tier (DEBUTANT, INTERMEDIAIRE, EXPERT)")
	learnerSetCmd.Flags().String("specialty", "", "Specialty")
	learnerSetCmd.Flags().String("domain", "", "Domain")
	learnerSummaryCmd.Flags().IntP("limit", "n", 10, "Number of recent sessions to summarize")

	learnerCmd.AddCommand(learnerShowCmd)
	learnerCmd.AddCommand(learnerSetCmd)
	learnerCmd.AddCommand(learnerSummaryCmd)
}

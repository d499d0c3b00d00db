package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mediz/internal/clinical"
)

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Inspect and seed the clinical case catalog",
}

var casesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List clinical cases",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := openRuntime(cmd, runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		if _, err := rt.seedCatalog(ctx, false); err != nil {
			return fmt.Errorf("seed case catalog: %w", err)
		}

		catalog := clinical.NewStoreCatalog(rt.store.CaseRepo())
		var cases []clinical.Case
		if d, _ := cmd.Flags().GetString("difficulty"); d != "" {
			cases, err = catalog.ByDifficulty(ctx, clinical.Difficulty(strings.ToUpper(d)))
		} else {
			cases, err = catalog.All(ctx)
		}
		if err != nil {
			return fmt.Errorf("list cases: %w", err)
		}

		if len(cases) == 0 {
			fmt.Println("No cases found.")
			return nil
		}

		fmt.Printf("%-16s  %-10s  %-36s  %s\n", "ID", "Difficulty", "Title", "Diagnosis")
		fmt.Println(strings.Repeat("─", 96))
		for _, c := range cases {
			fmt.Printf("%-16s  %-10s  %-36s  %s\n",
				truncate(c.ID, 16), c.Difficulty.Label(), truncate(c.Title, 36), c.CorrectDiagnosis)
		}
		return nil
	},
}

var casesSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the bundled case catalog into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd, runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		force, _ := cmd.Flags().GetBool("force")
		applied, err := rt.seedCatalog(cmd.Context(), force)
		if err != nil {
			return fmt.Errorf("seed case catalog: %w", err)
		}
		if applied {
			fmt.Println("Case catalog updated.")
		} else {
			fmt.Println("Case catalog already up to date.")
		}
		return nil
	},
}

func init() {
	casesListCmd.Flags().StringP("difficulty", "d", "", "Filter by difficulty (FACILE, MOYEN, DIFFICILE)")
	casesSeedCmd.Flags().Bool("force", false, "Reload even if the stored catalog is current")

	casesCmd.AddCommand(casesListCmd)
	casesCmd.AddCommand(casesSeedCmd)
}

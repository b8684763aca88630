package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/icebreaker-agent/internal/db"
)

var runsCommand = &cobra.Command{
	Use:   "runs",
	Short: "List recent generation runs from the database",
	RunE:  listRunsCmd,
}

var showCommand = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the persisted drafts of one generation run",
	Args:  cobra.ExactArgs(1),
	RunE:  showRunCmd,
}

var deleteCommand = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a persisted generation run and its drafts",
	Args:  cobra.ExactArgs(1),
	RunE:  deleteRunCmd,
}

var (
	runsDatabaseURL string
	runsLimit       int
)

func init() {
	runsCommand.Flags().StringVar(&runsDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	runsCommand.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to list")
	showCommand.Flags().StringVar(&runsDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	deleteCommand.Flags().StringVar(&runsDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(runsCommand)
	rootCmd.AddCommand(showCommand)
	rootCmd.AddCommand(deleteCommand)
}

func connectDatabase(ctx context.Context) (*db.DB, error) {
	url := runsDatabaseURL
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}
	return db.Connect(ctx, url)
}

func listRunsCmd(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	database, err := connectDatabase(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := database.ListRuns(ctx, runsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs found.")
		return nil
	}

	for _, run := range runs {
		fmt.Printf("%s  %-22s %-12s %-13s %d variant(s)  %s\n",
			run.ID, run.Company, run.EmailType, run.Status, run.VariantCount,
			run.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func showRunCmd(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	runID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid run ID %q: %w", args[0], err)
	}

	database, err := connectDatabase(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	run, err := database.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run not found: %s", runID)
	}

	fmt.Printf("Run %s: %s at %s (%s/%s, %s)\n\n",
		run.ID, run.JobTitle, run.Company, run.EmailType, run.Tone, run.Status)

	drafts, err := database.ListDrafts(ctx, runID)
	if err != nil {
		return err
	}
	for _, draft := range drafts {
		fmt.Printf("--- Variant %d (%d words) ---\n", draft.VariantIndex+1, draft.WordCount)
		fmt.Printf("Subject: %s\n\n", draft.Subject)
		fmt.Println(draft.Body)
		for _, w := range draft.Warnings {
			fmt.Printf("\n⚠ %s\n", w)
		}
		fmt.Println()
	}
	return nil
}

func deleteRunCmd(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	runID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid run ID %q: %w", args[0], err)
	}

	database, err := connectDatabase(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.DeleteRun(ctx, runID); err != nil {
		return err
	}
	fmt.Printf("Deleted run %s.\n", runID)
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/icebreaker-agent/internal/config"
	"github.com/jonathan/icebreaker-agent/internal/logger"
	"github.com/jonathan/icebreaker-agent/internal/pipeline"
	"github.com/jonathan/icebreaker-agent/internal/schemas"
	"github.com/jonathan/icebreaker-agent/internal/types"
)

var generateCommand = &cobra.Command{
	Use:   "generate",
	Short: "Generate cold email drafts from a request file",
	Long: `Reads a request JSON file (receiver_details, sender_details, job_information),
ranks talking points against the posting, and composes draft variants.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runGenerateCmd,
}

var (
	genConfigPath    string
	genInput         string
	genEmailType     string
	genTone          string
	genVariants      int
	genTimeout       int
	genAPIKey        string
	genDatabaseURL   string
	genEnrichmentURL string
	genOutput        string
	genVerbose       bool
	genJSONLogs      bool
)

func init() {
	// Config file flag (processed first)
	generateCommand.Flags().StringVar(&genConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	generateCommand.Flags().StringVarP(&genInput, "input", "i", "", "Path to the request JSON file")
	generateCommand.Flags().StringVarP(&genEmailType, "type", "t", "", "Email type: simple, personalized, or contextual")
	generateCommand.Flags().StringVar(&genTone, "tone", "", "Tone: formal, friendly, concise, or enthusiastic")
	generateCommand.Flags().IntVarP(&genVariants, "variants", "n", 0, "Number of draft variants to generate (default 3)")
	generateCommand.Flags().IntVar(&genTimeout, "timeout", 0, "Overall run timeout in seconds (0 = no limit)")
	generateCommand.Flags().StringVarP(&genOutput, "output", "o", "", "Write drafts as JSON to this file instead of stdout")
	generateCommand.Flags().BoolVarP(&genVerbose, "verbose", "v", false, "Print detailed debug information")
	generateCommand.Flags().BoolVar(&genJSONLogs, "json-logs", false, "Emit JSON-encoded logs")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	generateCommand.Flags().StringVar(&genAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for run persistence
	generateCommand.Flags().StringVar(&genDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	generateCommand.Flags().StringVar(&genEnrichmentURL, "enrichment-url", "", "Enrichment service base URL for contextual emails (optional, defaults to ENRICHMENT_URL env var)")

	rootCmd.AddCommand(generateCommand)
}

func runGenerateCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	// Step 1: Load config file if provided
	var cfg config.Config
	if genConfigPath != "" {
		loadedCfg, err := config.LoadConfig(genConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := loadedCfg.Validate(); err != nil {
			return err
		}
		cfg = *loadedCfg
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("input") {
		cfg.Input = genInput
	}
	if cmd.Flags().Changed("type") {
		cfg.EmailType = genEmailType
	}
	if cmd.Flags().Changed("tone") {
		cfg.Tone = genTone
	}
	if cmd.Flags().Changed("variants") {
		cfg.Variants = genVariants
	}
	if cmd.Flags().Changed("timeout") {
		cfg.TimeoutSeconds = genTimeout
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = genAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = genDatabaseURL
	}
	if cmd.Flags().Changed("enrichment-url") {
		cfg.EnrichmentURL = genEnrichmentURL
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = genVerbose
	}
	if cmd.Flags().Changed("json-logs") {
		cfg.JSONLogs = genJSONLogs
	}

	// Step 3: Validate required fields
	if cfg.Input == "" {
		return fmt.Errorf("--input is required (via flag or config)")
	}

	// Step 4: Environment fallbacks for service credentials
	cfg = cfg.MergeWithDefaults(config.Config{
		APIKey:        os.Getenv("GEMINI_API_KEY"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		EnrichmentURL: os.Getenv("ENRICHMENT_URL"),
	})
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	log, err := logger.New(cfg.JSONLogs, cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// Step 5: Read and validate the request file
	raw, err := os.ReadFile(cfg.Input)
	if err != nil {
		return fmt.Errorf("failed to read request file: %w", err)
	}
	if err := schemas.ValidateEmailRequest(raw); err != nil {
		return err
	}

	var req types.EmailRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("failed to parse request file: %w", err)
	}

	// CLI selectors override the request file
	if cfg.EmailType != "" {
		req.EmailType = types.EmailType(cfg.EmailType)
	}
	if cfg.Tone != "" {
		req.Tone = types.Tone(cfg.Tone)
	}

	// Step 6: Run the pipeline, streaming drafts as they finish
	result, err := pipeline.Run(ctx, pipeline.RunOptions{
		Request:       &req,
		VariantCount:  cfg.Variants,
		APIKey:        cfg.APIKey,
		DatabaseURL:   cfg.DatabaseURL,
		EnrichmentURL: cfg.EnrichmentURL,
		Timeout:       time.Duration(cfg.TimeoutSeconds) * time.Second,
		Verbose:       cfg.Verbose,
		Logger:        log,
		OnDraft: func(variant int, draft *types.EmailDraft) {
			if genOutput != "" || cfg.Verbose {
				// verbose mode already prints boxed drafts
				return
			}
			printDraft(variant, draft)
		},
	})
	if err != nil {
		return err
	}

	for _, verr := range result.VariantErrors {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", verr)
	}

	if genOutput != "" {
		return writeDrafts(genOutput, result)
	}
	fmt.Printf("Done! Generated %d draft(s) (run %s).\n", len(result.Drafts), result.RunID)
	return nil
}

func printDraft(variant int, draft *types.EmailDraft) {
	fmt.Printf("--- Variant %d ---\n", variant+1)
	fmt.Printf("Subject: %s\n\n", draft.Subject)
	fmt.Println(draft.BodyText())
	for _, w := range draft.Warnings {
		fmt.Printf("\n⚠ %s\n", w)
	}
	fmt.Println()
}

func writeDrafts(path string, result *pipeline.Result) error {
	out := struct {
		RunID  string              `json:"run_id"`
		Drafts []*types.EmailDraft `json:"drafts"`
	}{RunID: result.RunID, Drafts: result.Drafts}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode drafts: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Printf("Wrote %d draft(s) to %s\n", len(result.Drafts), path)
	return nil
}

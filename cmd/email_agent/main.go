// Package main provides the entry point for the icebreaker email agent CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "email_agent",
	Short: "Cold email generator for job referrals",
	Long:  "email_agent turns a structured candidate profile and job posting into ready-to-send cold email drafts, with personalized talking points and multiple tone-controlled variants.",
}

// version is set at build time via -ldflags.
var version = "dev"

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Print the email_agent version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("email_agent %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCommand)
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

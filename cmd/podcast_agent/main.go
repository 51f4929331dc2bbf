// Package main provides the entry point for the podcast planner CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "podcast_agent",
	Short: "Podcast Planner CLI and HTTP API Server",
	Long:  "Podcast Planner turns an arXiv paper into a two-speaker podcast plan and script through a plan, critique and revise loop.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

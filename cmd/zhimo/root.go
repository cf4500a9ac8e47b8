package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "zhimo",
	Short: "Multi-agent document processing",
	Long: `Zhimo turns natural-language instructions about documents into
dependency-ordered workflows and runs them through a pool of
specialized agents.

Core capabilities:
- Classifies instructions into workflow plans (summaries, knowledge
  extraction, study materials, notebooks)
- Executes independent steps concurrently, dependency waves in order
- Retries failed workflows and individual steps when the failure
  looks transient
- Persists extracted knowledge and compiles it into markdown notebooks`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (default: XDG config, then .zhimo.yaml)")

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(versionCmd)
}

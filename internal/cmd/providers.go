package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpollock/multi-agent-resolution-synthesis/internal/config"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/llm"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured providers",
	RunE:  runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, args []string) error {
	appCfg := config.Load()

	for _, name := range llm.Available() {
		status := "configured"
		switch name {
		case "ollama":
			status = appCfg.OllamaBaseURL
		default:
			if appCfg.APIKey(name) == "" {
				status = "missing API key (run: mars configure)"
			}
		}
		fmt.Printf("%-10s  default model: %-28s  %s\n", name, config.DefaultModel(name), status)
	}
	return nil
}

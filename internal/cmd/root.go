// Package cmd implements the mars command-line interface.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mars",
	Short: "Multi-Agent Resolution Synthesis",
	Long: `MARS runs structured debates between multiple LLM providers.

Providers answer a prompt independently, critique each other's answers
over several rounds, and converge on a synthesized best answer. Judge
mode instead designates one provider to rule on all initial answers.
Every run leaves a timestamped Markdown audit trail.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// resolveValue substitutes @path tokens with the named file's contents.
func resolveValue(value string) (string, error) {
	if !strings.HasPrefix(value, "@") {
		return value, nil
	}
	path := value[1:]
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// defaultOutputDir is shared by every command that touches the audit
// directory.
func defaultOutputDir() string {
	return filepath.Clean("./mars-output")
}

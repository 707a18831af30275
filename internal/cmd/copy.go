package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/jpollock/multi-agent-resolution-synthesis/internal/output"
)

var copyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Copy a debate's final answer to the clipboard",
	RunE:  runCopy,
}

var (
	copyFull      bool
	copyDebateDir string
	copyOutputDir string
)

func init() {
	copyCmd.Flags().BoolVar(&copyFull, "full", false, "include prompt, answer, and attribution")
	copyCmd.Flags().StringVarP(&copyDebateDir, "debate", "d", "", "debate directory (default: most recent)")
	copyCmd.Flags().StringVarP(&copyOutputDir, "output-dir", "o", defaultOutputDir(), "output directory to search")
	rootCmd.AddCommand(copyCmd)
}

func runCopy(cmd *cobra.Command, args []string) error {
	dir := output.ResolveDebate(copyDebateDir, copyOutputDir)
	if dir == "" {
		return fmt.Errorf("no debates found in %s", copyOutputDir)
	}

	answer, ok := output.ReadFile(dir, "final-answer.md")
	if !ok {
		return fmt.Errorf("final-answer.md not found in %s (the run may not have completed)", dir)
	}

	text := answer
	if copyFull {
		var parts []string
		if prompt, ok := output.ReadFile(dir, filepath.Join("audit", "00-prompt-and-context.md")); ok {
			parts = append(parts, prompt)
		}
		parts = append(parts, "# Final Answer\n\n"+answer)
		if attribution, ok := output.ReadFile(dir, filepath.Join("audit", "attribution.md")); ok {
			parts = append(parts, attribution)
		}
		text = strings.Join(parts, "\n\n---\n\n")
	}

	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("copying to clipboard: %w", err)
	}
	fmt.Println("Copied final answer to clipboard.")
	return nil
}

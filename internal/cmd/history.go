package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpollock/multi-agent-resolution-synthesis/internal/output"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past debates, most recent first",
	RunE:  runHistory,
}

var (
	historyLimit     int
	historyOutputDir string
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "show only the last N debates")
	historyCmd.Flags().StringVarP(&historyOutputDir, "output-dir", "o", defaultOutputDir(), "output directory to search")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	debates := output.FindDebates(historyOutputDir)
	if len(debates) == 0 {
		fmt.Println("No debates found in", historyOutputDir)
		return nil
	}
	if historyLimit > 0 && len(debates) > historyLimit {
		debates = debates[:historyLimit]
	}

	for _, dir := range debates {
		base := filepath.Base(dir)
		line := fmt.Sprintf("%s  %s", output.ExtractTimestamp(base), output.ExtractPrompt(base))
		if providers := output.ParseProviders(dir); len(providers) > 0 {
			line += fmt.Sprintf("  [%s]", strings.Join(providers, ", "))
		}
		fmt.Println(line)
	}
	return nil
}

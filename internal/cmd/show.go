package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpollock/multi-agent-resolution-synthesis/internal/output"
)

var showCmd = &cobra.Command{
	Use:       "show [answer|costs|attribution|rounds]",
	Short:     "Read a prior debate's audit directory",
	Long:      "Show a section of a prior debate, or a summary when no section is named. Defaults to the most recent run.",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"answer", "costs", "attribution", "rounds"},
	RunE:      runShow,
}

var (
	showDebateDir string
	showOutputDir string
)

func init() {
	showCmd.Flags().StringVarP(&showDebateDir, "debate", "d", "", "debate directory (default: most recent)")
	showCmd.Flags().StringVarP(&showOutputDir, "output-dir", "o", defaultOutputDir(), "output directory to search")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	dir := output.ResolveDebate(showDebateDir, showOutputDir)
	if dir == "" {
		return fmt.Errorf("no debates found in %s", showOutputDir)
	}

	section := ""
	if len(args) > 0 {
		section = args[0]
	}

	switch section {
	case "answer":
		return showFile(dir, "final-answer.md")
	case "costs":
		return showFile(dir, filepath.Join("audit", "costs.md"))
	case "attribution":
		return showFile(dir, filepath.Join("audit", "attribution.md"))
	case "rounds":
		return showRounds(dir)
	default:
		return showSummary(dir)
	}
}

func showFile(dir, name string) error {
	content, ok := output.ReadFile(dir, name)
	if !ok {
		return fmt.Errorf("%s not found in %s", name, dir)
	}
	fmt.Println(content)
	return nil
}

func showRounds(dir string) error {
	count := output.CountRounds(dir)
	if count == 0 {
		return fmt.Errorf("no round files found in %s", dir)
	}
	for n := 1; n <= count; n++ {
		for _, label := range []string{"responses", "critiques"} {
			name := filepath.Join("audit", fmt.Sprintf("%02d-round-%d-%s.md", n, n, label))
			if content, ok := output.ReadFile(dir, name); ok {
				fmt.Println(content)
			}
		}
	}
	return nil
}

func showSummary(dir string) error {
	base := filepath.Base(dir)
	fmt.Println("Debate:", output.ExtractPrompt(base))
	fmt.Println("When:  ", output.ExtractTimestamp(base))
	if providers := output.ParseProviders(dir); len(providers) > 0 {
		fmt.Println("Models:", strings.Join(providers, ", "))
	}
	fmt.Println("Rounds:", output.CountRounds(dir))
	if costs, ok := output.ReadFile(dir, filepath.Join("audit", "costs.md")); ok {
		fmt.Println("Cost:  ", output.ParseCostsTotal(costs))
	}

	if answer, ok := output.ReadFile(dir, "final-answer.md"); ok {
		fmt.Println("\n" + answer)
	} else {
		fmt.Println("\n(no final answer; the run did not complete)")
	}
	return nil
}

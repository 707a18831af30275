package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpollock/multi-agent-resolution-synthesis/internal/config"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Interactively capture provider credentials",
	Long: `Prompt for provider API keys and store them in ` + "~/.mars/config" + `
with owner-only permissions. Existing values are kept when a prompt is
left empty. Environment variables and a local .env file always take
precedence over the stored values.`,
	RunE: runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)
}

// credentialPrompts lists the captured keys in display order.
var credentialPrompts = []struct {
	key   string
	label string
}{
	{"MARS_OPENAI_API_KEY", "OpenAI API key"},
	{"MARS_ANTHROPIC_API_KEY", "Anthropic API key"},
	{"MARS_GOOGLE_API_KEY", "Google API key"},
	{"MARS_OLLAMA_BASE_URL", "Ollama base URL"},
	{"MARS_DEFAULT_PROVIDERS", "Default providers (comma-separated)"},
}

func runConfigure(cmd *cobra.Command, args []string) error {
	existing := readExistingConfig()
	reader := bufio.NewReader(cmd.InOrStdin())

	fmt.Println("MARS configuration. Press Enter to keep the current value.")
	values := make(map[string]string)
	for _, p := range credentialPrompts {
		current := existing[p.key]
		if current != "" {
			fmt.Printf("%s [%s]: ", p.label, maskKey(current))
		} else {
			fmt.Printf("%s: ", p.label)
		}

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			break
		}
		line = strings.TrimSpace(line)
		switch {
		case line != "":
			values[p.key] = line
		case current != "":
			values[p.key] = current
		}
	}

	if len(values) == 0 {
		fmt.Println("Nothing to save.")
		return nil
	}
	if err := config.Save(values); err != nil {
		return err
	}
	fmt.Println("Saved to", config.File())
	return nil
}

// readExistingConfig loads current values from the user config file.
func readExistingConfig() map[string]string {
	values := make(map[string]string)
	data, err := os.ReadFile(config.File())
	if err != nil {
		return values
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		values[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"`)
	}
	return values
}

// maskKey shows only the edges of a stored credential.
func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + "..." + key[len(key)-4:]
}

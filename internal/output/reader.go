package output

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}_`)
	roundFilePattern = regexp.MustCompile(`^\d{2}-round-\d+-`)
)

// FindDebates returns run directories under outputDir sorted most
// recent first.
func FindDebates(outputDir string) []string {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() && timestampPattern.MatchString(e.Name()) {
			dirs = append(dirs, filepath.Join(outputDir, e.Name()))
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	return dirs
}

// ResolveDebate picks the run directory to inspect: the given path when
// non-empty, otherwise the most recent run under outputDir. Returns ""
// when nothing matches.
func ResolveDebate(debateDir, outputDir string) string {
	if debateDir != "" {
		if info, err := os.Stat(debateDir); err == nil && info.IsDir() {
			return debateDir
		}
		return ""
	}
	debates := FindDebates(outputDir)
	if len(debates) == 0 {
		return ""
	}
	return debates[0]
}

// ReadFile reads a file relative to the run directory, returning false
// when it does not exist.
func ReadFile(debateDir, name string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(debateDir, name))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// ExtractTimestamp converts a run directory name into a readable
// timestamp.
func ExtractTimestamp(dirname string) string {
	ts, _, _ := strings.Cut(dirname, "_")
	return strings.Replace(ts, "T", " ", 1)
}

// ExtractPrompt recovers the prompt slug from a run directory name.
func ExtractPrompt(dirname string) string {
	_, slug, found := strings.Cut(dirname, "_")
	if !found {
		return dirname
	}
	return strings.ReplaceAll(slug, "-", " ")
}

// ParseProviders extracts provider names from round-1 response headers.
func ParseProviders(debateDir string) []string {
	content, ok := ReadFile(debateDir, filepath.Join("audit", "01-round-1-responses.md"))
	if !ok {
		return nil
	}
	var providers []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(content, "\n") {
		if !strings.HasPrefix(line, "## ") || !strings.Contains(line, "(") {
			continue
		}
		name, _, _ := strings.Cut(line[3:], "(")
		name = strings.TrimSpace(name)
		if name != "" && !seen[name] {
			seen[name] = true
			providers = append(providers, name)
		}
	}
	return providers
}

// CountRounds counts round files in the audit directory.
func CountRounds(debateDir string) int {
	entries, err := os.ReadDir(filepath.Join(debateDir, "audit"))
	if err != nil {
		return 0
	}
	count := 0
	for _, e := range entries {
		if roundFilePattern.MatchString(e.Name()) {
			count++
		}
	}
	return count
}

// ParseCostsTotal extracts the total cost string from costs.md content.
func ParseCostsTotal(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "**Total**") && strings.Contains(line, "$") {
			_, amount, _ := strings.Cut(line, "$")
			return "$" + strings.TrimSpace(amount)
		}
	}
	return "n/a"
}

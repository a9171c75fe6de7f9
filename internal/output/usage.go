package output

import (
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/ascii"

	"github.com/namelens/nutrilens/internal/core/engine"
)

// FormatUsage renders the quota summary.
func FormatUsage(format Format, usage engine.Usage) (string, error) {
	if format == FormatJSON {
		return MarshalJSON(usage)
	}

	lines := []string{
		"API Usage",
		"",
		fmt.Sprintf("Requests: %d / %d (%.1f%%)", usage.Count, usage.Limit, usage.Percent),
		fmt.Sprintf("Remaining: %d", usage.Remaining),
		"Level: " + usageLevelLabel(usage.Level),
		"Window started: " + usage.WindowStart.Local().Format(engine.ResetTimeLayout),
		"Resets at: " + usage.ResetAt.Local().Format(engine.ResetTimeLayout),
		"",
		usageBar(usage.Percent, 30),
	}

	if format == FormatMarkdown {
		var sb strings.Builder
		sb.WriteString("## API Usage\n\n")
		for _, line := range lines[2:8] {
			if line == "" {
				continue
			}
			sb.WriteString("- " + line + "\n")
		}
		return sb.String(), nil
	}

	return ascii.DrawBox(strings.Join(lines, "\n"), 0), nil
}

func usageLevelLabel(level engine.UsageLevel) string {
	switch level {
	case engine.UsageDanger:
		return "danger (near limit)"
	case engine.UsageWarning:
		return "warning"
	default:
		return "normal"
	}
}

func usageBar(percent float64, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * float64(width))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

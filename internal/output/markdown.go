package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/chatlens/chatlens/internal/core"
)

// MarkdownFormatter renders exchange history as a Markdown table.
type MarkdownFormatter struct{}

// FormatHistory renders exchanges as a Markdown table, newest first.
func (f *MarkdownFormatter) FormatHistory(exchanges []core.Exchange) (string, error) {
	if len(exchanges) == 0 {
		return "_No exchanges recorded._", nil
	}

	var b strings.Builder
	b.WriteString("| When | Key | Outcome | Prompt | Response |\n")
	b.WriteString("| --- | --- | --- | --- | --- |\n")

	for _, exchange := range exchanges {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			exchange.CreatedAt.UTC().Format(time.RFC3339),
			escapeCell(exchange.Key),
			outcomeLabel(exchange.Outcome),
			escapeCell(exchange.Prompt),
			escapeCell(exchange.Response),
		)
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

func escapeCell(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "|", "\\|")
	return strings.TrimSpace(value)
}

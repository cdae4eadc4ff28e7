package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/chatlens/chatlens/internal/core"
)

// maxCellWidth keeps prompt and response columns readable in a terminal.
const maxCellWidth = 48

// TableFormatter renders exchange history as an ASCII table.
type TableFormatter struct{}

// FormatHistory renders exchanges as a table, newest first.
func (f *TableFormatter) FormatHistory(exchanges []core.Exchange) (string, error) {
	if len(exchanges) == 0 {
		return "No exchanges recorded.", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"When", "Key", "Outcome", "Prompt", "Response"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, WidthMax: maxCellWidth, WidthMaxEnforcer: text.WrapSoft},
		{Number: 5, WidthMax: maxCellWidth, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, exchange := range exchanges {
		t.AppendRow(table.Row{
			exchange.CreatedAt.Local().Format(time.DateTime),
			exchange.Key,
			outcomeLabel(exchange.Outcome),
			strings.TrimSpace(exchange.Prompt),
			strings.TrimSpace(exchange.Response),
		})
	}

	t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("%d exchange(s)", len(exchanges))})

	return t.Render(), nil
}

func outcomeLabel(kind core.OutcomeKind) string {
	switch kind {
	case core.OutcomeSuccess:
		return "ok"
	case core.OutcomeRateLimited:
		return "rate limited"
	case core.OutcomeQuotaExceeded:
		return "quota exceeded"
	case core.OutcomeTransientFailure:
		return "transient failure"
	case core.OutcomeMalformedResponse:
		return "malformed response"
	default:
		return string(kind)
	}
}

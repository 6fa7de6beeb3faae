package cube

import (
	"fmt"
	"regexp"
	"strings"
)

// Column is one exported field of a pool row
type Column string

const (
	ColumnName   Column = "name"
	ColumnRarity Column = "rarity"
)

// DefaultColumns exports card names only
var DefaultColumns = []Column{ColumnName}

// ExportOptions controls the text table produced by Export
type ExportOptions struct {
	Columns []Column
}

// ParseColumns reads a comma-separated column list such as "name,rarity".
// An empty list falls back to DefaultColumns.
func ParseColumns(raw string) ([]Column, error) {
	var cols []Column
	for _, part := range strings.Split(raw, ",") {
		col := Column(strings.ToLower(strings.TrimSpace(part)))
		switch col {
		case "":
			continue
		case ColumnName, ColumnRarity:
			cols = append(cols, col)
		default:
			return nil, &ValidationError{Field: "columns", Reason: fmt.Sprintf("unknown column %q", part)}
		}
	}
	if len(cols) == 0 {
		return DefaultColumns, nil
	}
	return cols, nil
}

// Export renders the pool as CSV: an unquoted header row followed by one row
// per card with every field double-quoted.
func Export(pool Pool, opts ExportOptions) []byte {
	cols := opts.Columns
	if len(cols) == 0 {
		cols = DefaultColumns
	}

	var b strings.Builder
	for i, col := range cols {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(string(col))
	}
	b.WriteByte('\n')

	for _, card := range pool {
		for i, col := range cols {
			if i > 0 {
				b.WriteByte(',')
			}
			switch col {
			case ColumnRarity:
				b.WriteString(quote(string(card.Rarity)))
			default:
				b.WriteString(quote(card.Name))
			}
		}
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9 ._-]+`)

// Filename turns a user supplied pool name into a safe download file name
func Filename(name string) string {
	name = strings.TrimSuffix(strings.TrimSpace(name), ".csv")
	name = strings.Trim(unsafeFilenameChars.ReplaceAllString(name, "_"), " ._")
	if name == "" {
		name = "pool"
	}
	if len(name) > 64 {
		name = name[:64]
	}
	return name + ".csv"
}

package warehouse

import (
	"strings"

	"github.com/alext/moneyrobot/internal/dataset"
	"github.com/alext/moneyrobot/pkg/logger"
)

// Warehouse primitive types. Identifiers and type names are stored upper
// case, matching the destination's case-insensitive-but-uppercase
// convention.
const (
	TypeVarchar = "VARCHAR"
	TypeNumeric = "NUMERIC"
	TypeFloat   = "FLOAT"
	TypeBoolean = "BOOLEAN"
)

// SchemaColumn is one column-name/warehouse-type pair.
type SchemaColumn struct {
	Name string
	Type string
}

// Schema is the inferred warehouse schema for one frame. Column order
// matches the source frame exactly; positional inserts depend on it.
type Schema struct {
	Columns []SchemaColumn
}

// InferSchema maps every frame column to a warehouse type. Dates are
// persisted as text to avoid timezone and format ambiguity downstream. The
// mapping is total: a kind outside the closed enumeration falls back to
// VARCHAR with a warning, never an error.
func InferSchema(f *dataset.Frame, log *logger.Logger) Schema {
	cols := make([]SchemaColumn, 0, f.NumCols())
	for _, col := range f.Columns() {
		var typ string
		switch col.Kind() {
		case dataset.KindString, dataset.KindTime:
			typ = TypeVarchar
		case dataset.KindInt:
			typ = TypeNumeric
		case dataset.KindFloat:
			typ = TypeFloat
		case dataset.KindBool:
			typ = TypeBoolean
		default:
			log.WithFields(map[string]interface{}{
				"column": col.Name(),
				"kind":   col.Kind().String(),
			}).Warn("Unmapped column kind, defaulting to VARCHAR")
			typ = TypeVarchar
		}
		cols = append(cols, SchemaColumn{Name: strings.ToUpper(col.Name()), Type: typ})
	}
	return Schema{Columns: cols}
}

// DDL renders the column definition list for a CREATE TABLE statement, in
// schema order. Column names are quoted so the warehouse stores them exactly
// as given.
func (s Schema) DDL() string {
	var b strings.Builder
	for i, col := range s.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(col.Name))
		b.WriteString(" ")
		b.WriteString(col.Type)
	}
	return b.String()
}

// quoteIdent double-quotes an identifier for DDL/DML.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

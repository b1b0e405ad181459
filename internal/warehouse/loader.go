package warehouse

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/alext/moneyrobot/internal/dataset"
	"github.com/alext/moneyrobot/pkg/database"
	"github.com/alext/moneyrobot/pkg/logger"
)

// Action selects the write mode for one table load.
type Action string

const (
	// ActionCreateReplace drops and recreates the destination table with
	// the inferred schema, then bulk-loads all rows. Idempotent at the
	// table level.
	ActionCreateReplace Action = "create_replace"

	// ActionAppend row-appends into an existing table. NOT idempotent:
	// repeating it duplicates rows. Callers own at-most-once semantics.
	ActionAppend Action = "append"
)

// Loader synchronizes in-memory frames into warehouse tables. It borrows
// the process-wide connection pool; no connection is dialed per write.
type Loader struct {
	db     *database.DB
	logger *logger.Logger
}

// NewLoader creates a load pipeline on top of the warehouse pool.
func NewLoader(db *database.DB, log *logger.Logger) *Loader {
	return &Loader{db: db, logger: log.WithField("module", "warehouse")}
}

// Write loads a frame into the named table. As a documented side effect the
// frame's column names are forced to upper case in place before the write,
// matching the destination's identifier convention; callers holding the
// frame observe the renamed columns afterwards.
func (l *Loader) Write(ctx context.Context, table string, action Action, f *dataset.Frame) error {
	f.UpperCaseNames()

	var err error
	switch action {
	case ActionCreateReplace:
		err = l.createReplace(ctx, table, f)
	case ActionAppend:
		err = l.append(ctx, table, f)
	default:
		err = fmt.Errorf("unknown action %q", action)
	}

	if err != nil {
		return &WriteError{Table: table, Action: action, Err: err}
	}

	l.logger.WithFields(map[string]interface{}{
		"table":  table,
		"action": string(action),
		"rows":   f.NumRows(),
	}).Info("Table load completed")

	return nil
}

// createReplace drops the table when present, recreates it from the
// inferred schema, and bulk-loads every row.
func (l *Loader) createReplace(ctx context.Context, table string, f *dataset.Frame) error {
	schema := InferSchema(f, l.logger)

	if _, err := l.db.Pool.Exec(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table)); err != nil {
		return fmt.Errorf("drop table: %w", err)
	}

	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), schema.DDL())
	if _, err := l.db.Pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	rows := make([][]interface{}, f.NumRows())
	for i := 0; i < f.NumRows(); i++ {
		rows[i] = f.Row(i)
	}

	columns := make([]string, len(schema.Columns))
	for i, col := range schema.Columns {
		columns[i] = col.Name
	}

	copied, err := l.db.Pool.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("bulk load: %w", err)
	}
	if int(copied) != f.NumRows() {
		return fmt.Errorf("bulk load wrote %d of %d rows", copied, f.NumRows())
	}

	return nil
}

// append validates that the destination schema still matches the frame,
// then appends all rows with a positional multi-row insert.
func (l *Loader) append(ctx context.Context, table string, f *dataset.Frame) error {
	if err := l.checkSchema(ctx, table, f); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(quoteIdent(table))
	b.WriteString(" VALUES ")

	args := make([]interface{}, 0, f.NumRows()*f.NumCols())
	arg := 1
	for i := 0; i < f.NumRows(); i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j, v := range f.Row(i) {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", arg)
			args = append(args, v)
			arg++
		}
		b.WriteString(")")
	}

	if _, err := l.db.Pool.Exec(ctx, b.String(), args...); err != nil {
		return fmt.Errorf("append rows: %w", err)
	}
	return nil
}

// checkSchema compares the destination's column names, in order, against
// the frame's.
func (l *Loader) checkSchema(ctx context.Context, table string, f *dataset.Frame) error {
	rows, err := l.db.Pool.Query(ctx, "SELECT * FROM "+quoteIdent(table)+" LIMIT 0")
	if err != nil {
		return fmt.Errorf("describe table: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	if len(fields) != f.NumCols() {
		return fmt.Errorf("schema changed: destination has %d columns, frame has %d", len(fields), f.NumCols())
	}
	for i, field := range fields {
		if field.Name != f.Columns()[i].Name() {
			return fmt.Errorf("schema changed: column %d is %s in destination, %s in frame",
				i, field.Name, f.Columns()[i].Name())
		}
	}
	return nil
}

// ListTables returns the warehouse tables whose names start with the given
// prefix, sorted by name.
func (l *Loader) ListTables(ctx context.Context, prefix string) ([]string, error) {
	rows, err := l.db.Pool.Query(ctx,
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = 'public' AND table_name LIKE $1 || '%'
		 ORDER BY table_name`, strings.ToUpper(prefix))
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

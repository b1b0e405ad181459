package warehouse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alext/moneyrobot/internal/dataset"
	"github.com/alext/moneyrobot/pkg/logger"
)

func TestInferSchemaOneColumnOfEachKind(t *testing.T) {
	f, err := dataset.New(
		dataset.TimeColumn("date", []string{"2025-01-02"}),
		dataset.StringColumn("note", []string{"x"}),
		dataset.IntColumn("volume", []int64{10}),
		dataset.FloatColumn("close", []float64{1.5}),
		dataset.BoolColumn("halted", []bool{false}),
	)
	require.NoError(t, err)

	schema := InferSchema(f, logger.NewNop())
	require.Len(t, schema.Columns, 5)

	assert.Equal(t, SchemaColumn{Name: "DATE", Type: TypeVarchar}, schema.Columns[0],
		"dates persist as text")
	assert.Equal(t, SchemaColumn{Name: "NOTE", Type: TypeVarchar}, schema.Columns[1])
	assert.Equal(t, SchemaColumn{Name: "VOLUME", Type: TypeNumeric}, schema.Columns[2])
	assert.Equal(t, SchemaColumn{Name: "CLOSE", Type: TypeFloat}, schema.Columns[3])
	assert.Equal(t, SchemaColumn{Name: "HALTED", Type: TypeBoolean}, schema.Columns[4])
}

func TestInferSchemaPreservesOrder(t *testing.T) {
	f, err := dataset.New(
		dataset.FloatColumn("c", []float64{1}),
		dataset.FloatColumn("a", []float64{2}),
		dataset.FloatColumn("b", []float64{3}),
	)
	require.NoError(t, err)

	schema := InferSchema(f, logger.NewNop())
	names := make([]string, len(schema.Columns))
	for i, col := range schema.Columns {
		names[i] = col.Name
	}
	assert.Equal(t, []string{"C", "A", "B"}, names)
}

func TestSchemaDDL(t *testing.T) {
	f, err := dataset.New(
		dataset.TimeColumn("Date", []string{"2025-01-02"}),
		dataset.FloatColumn("Close", []float64{1.5}),
	)
	require.NoError(t, err)

	schema := InferSchema(f, logger.NewNop())
	assert.Equal(t, `"DATE" VARCHAR, "CLOSE" FLOAT`, schema.DDL())
}

package experiment

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/tabenc/dataset"
)

func TestEncoderTargetStrategy(t *testing.T) {
	train, test := miniTables(t)

	encoder, err := NewEncoder(train, StrategyTarget, 42)
	require.NoError(t, err)

	// age passes through, class_of_worker and education expand to three
	// columns each.
	require.Equal(t, 7, encoder.OutputDim())

	header := encoder.Header()
	require.Len(t, header, 7)
	require.Equal(t, "age", header[0])
	require.Equal(t, "class_of_worker_positive_frequency", header[1])
	require.Equal(t, "class_of_worker_negative_frequency", header[2])
	require.Equal(t, "class_of_worker_positive_probability", header[3])
	require.Equal(t, "education_positive_frequency", header[4])

	design, err := encoder.Encode(test)
	require.NoError(t, err)

	rows, cols := design.Dims()
	require.Equal(t, test.Len(), rows)
	require.Equal(t, 7, cols)

	// First test row: age 34 followed by the train statistics of
	// " Private", which covers two positive and two negative train rows.
	require.InDelta(t, 34, design.At(0, 0), 1e-12)
	require.InDelta(t, 2, design.At(0, 1), 1e-12)
	require.InDelta(t, 2, design.At(0, 2), 1e-12)
	require.InDelta(t, 0.5, design.At(0, 3), 1e-9)
}

func TestEncoderRawStrategy(t *testing.T) {
	train, test := miniTables(t)

	encoder, err := NewEncoder(train, StrategyRaw, 42)
	require.NoError(t, err)
	require.Equal(t, 3, encoder.OutputDim())
	require.Equal(t, []string{"age", "class_of_worker", "education"}, encoder.Header())

	design, err := encoder.Encode(test)
	require.NoError(t, err)

	rows, cols := design.Dims()
	require.Equal(t, test.Len(), rows)
	require.Equal(t, 3, cols)
}

func TestEncoderEmbeddingStrategy(t *testing.T) {
	train, test := miniTables(t)

	encoder, err := NewEncoder(train, StrategyEmbedding, 42)
	require.NoError(t, err)
	require.Equal(t, 6, encoder.OutputDim())

	header := encoder.Header()
	require.Len(t, header, 6)
	require.Equal(t, "class_of_worker_0", header[1])
	require.Equal(t, "class_of_worker_1", header[2])
	require.Equal(t, "education_2", header[5])

	design, err := encoder.Encode(test)
	require.NoError(t, err)

	_, cols := design.Dims()
	require.Equal(t, 6, cols)
}

func TestEncoderUnknownValue(t *testing.T) {
	train, _ := miniTables(t)

	schema, err := dataset.CensusSchema([]string{"age", "class_of_worker", "education", "income_level"})
	require.NoError(t, err)

	records := [][]string{
		{"40", " Federal government", " High school graduate", " - 50000."},
	}
	unknown, rowErrs, err := dataset.NewTable(schema, records)
	require.NoError(t, err)
	require.Empty(t, rowErrs)

	encoder, err := NewEncoder(train, StrategyTarget, 42)
	require.NoError(t, err)

	_, err = encoder.Encode(unknown)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not in the vocabulary")
}

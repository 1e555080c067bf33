package embedtrain

import (
	"math"
	"testing"

	"github.com/nlpodyssey/spago/pkg/mat/rand"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/tabenc/pkg/errors"
)

func TestNewProbeLayout(t *testing.T) {
	specs := []EmbeddingSpec{
		{Name: "class_of_worker", VocabularySize: 3, Dim: 2},
		{Name: "education", VocabularySize: 2, Dim: 3},
	}

	probe := NewProbe(specs, 2)

	require.Len(t, probe.Embeddings, 5)
	require.Equal(t, 2+2+3, probe.InputDim())
	require.Same(t, probe.Embeddings[0], probe.Vector(0, 0))
	require.Same(t, probe.Embeddings[2], probe.Vector(0, 2))
	require.Same(t, probe.Embeddings[3], probe.Vector(1, 0))
	require.NotSame(t, probe.Vector(0, 0), probe.Vector(0, 1))
}

func TestProbeInitBounds(t *testing.T) {
	specs := []EmbeddingSpec{{Name: "race", VocabularySize: 4, Dim: 3}}
	probe := NewProbe(specs, 0)
	probe.Init(rand.NewLockedRand(1))

	for _, p := range probe.Embeddings {
		for _, v := range p.Value().Data() {
			require.LessOrEqual(t, math.Abs(v), 0.05)
		}
	}
}

func TestTrainerFitShapes(t *testing.T) {
	specs := []EmbeddingSpec{
		{Name: "class_of_worker", VocabularySize: 3, Dim: 2},
		{Name: "education", VocabularySize: 2, Dim: 1},
	}
	examples := []Example{
		{Numeric: []float64{0.1}, Indices: []int{0, 0}, Label: 1},
		{Numeric: []float64{0.5}, Indices: []int{1, 1}, Label: 0},
		{Numeric: []float64{0.3}, Indices: []int{2, 0}, Label: 0},
		{Numeric: []float64{0.7}, Indices: []int{0, 1}, Label: 1},
		{Numeric: []float64{0.2}, Indices: []int{1, 0}, Label: 0},
		{Numeric: []float64{0.9}, Indices: []int{2, 1}, Label: 1},
		{Numeric: []float64{0.4}, Indices: []int{0, 0}, Label: 1},
		{Numeric: []float64{0.6}, Indices: []int{1, 1}, Label: 0},
	}

	trainer := NewTrainer(Config{Epochs: 2, BatchSize: 4, LearningRate: 0.01, Seed: 42, ReportInterval: 1})
	weights, history, err := trainer.Fit(specs, 1, examples)
	require.NoError(t, err)

	require.Len(t, history, 2)
	for _, loss := range history {
		require.False(t, math.IsNaN(loss))
		require.False(t, math.IsInf(loss, 0))
	}

	require.Len(t, weights, 2)
	for _, spec := range specs {
		table, ok := weights[spec.Name]
		require.True(t, ok, "missing weights for %s", spec.Name)
		rows, cols := table.Dims()
		require.Equal(t, spec.VocabularySize, rows)
		require.Equal(t, spec.Dim, cols)
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				require.False(t, math.IsNaN(table.At(r, c)))
			}
		}
	}

	require.NotNil(t, trainer.Probe())
}

func TestTrainerFitLossDecreases(t *testing.T) {
	// Perfectly separable: the label equals the category index
	specs := []EmbeddingSpec{{Name: "sex", VocabularySize: 2, Dim: 2}}
	var examples []Example
	for i := 0; i < 16; i++ {
		idx := i % 2
		examples = append(examples, Example{Indices: []int{idx}, Label: idx})
	}

	trainer := NewTrainer(Config{Epochs: 20, BatchSize: 4, LearningRate: 0.01, Seed: 7})
	_, history, err := trainer.Fit(specs, 0, examples)
	require.NoError(t, err)
	require.Len(t, history, 20)
	require.Less(t, history[len(history)-1], history[0],
		"loss should decrease on separable data")
}

func TestTrainerFitValidation(t *testing.T) {
	okSpecs := []EmbeddingSpec{{Name: "a", VocabularySize: 2, Dim: 1}}
	okExamples := []Example{{Indices: []int{0}, Label: 0}}
	okConfig := Config{Epochs: 1, BatchSize: 2, LearningRate: 0.01, Seed: 1}

	tests := []struct {
		name       string
		config     Config
		specs      []EmbeddingSpec
		numNumeric int
		examples   []Example
	}{
		{
			name:     "zero epochs",
			config:   Config{Epochs: 0, BatchSize: 2, LearningRate: 0.01},
			specs:    okSpecs,
			examples: okExamples,
		},
		{
			name:     "zero batch size",
			config:   Config{Epochs: 1, BatchSize: 0, LearningRate: 0.01},
			specs:    okSpecs,
			examples: okExamples,
		},
		{
			name:     "zero learning rate",
			config:   Config{Epochs: 1, BatchSize: 2, LearningRate: 0},
			specs:    okSpecs,
			examples: okExamples,
		},
		{
			name:     "no specs",
			config:   okConfig,
			specs:    nil,
			examples: okExamples,
		},
		{
			name:     "bad vocabulary size",
			config:   okConfig,
			specs:    []EmbeddingSpec{{Name: "a", VocabularySize: 0, Dim: 1}},
			examples: okExamples,
		},
		{
			name:     "bad dim",
			config:   okConfig,
			specs:    []EmbeddingSpec{{Name: "a", VocabularySize: 2, Dim: 0}},
			examples: okExamples,
		},
		{
			name:   "no examples",
			config: okConfig,
			specs:  okSpecs,
		},
		{
			name:       "negative numeric count",
			config:     okConfig,
			specs:      okSpecs,
			numNumeric: -1,
			examples:   okExamples,
		},
		{
			name:     "index count mismatch",
			config:   okConfig,
			specs:    okSpecs,
			examples: []Example{{Indices: []int{0, 1}, Label: 0}},
		},
		{
			name:       "numeric count mismatch",
			config:     okConfig,
			specs:      okSpecs,
			numNumeric: 1,
			examples:   []Example{{Indices: []int{0}, Label: 0}},
		},
		{
			name:     "non-binary label",
			config:   okConfig,
			specs:    okSpecs,
			examples: []Example{{Indices: []int{0}, Label: 2}},
		},
		{
			name:     "index out of range",
			config:   okConfig,
			specs:    okSpecs,
			examples: []Example{{Indices: []int{5}, Label: 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trainer := NewTrainer(tt.config)
			_, _, err := trainer.Fit(tt.specs, tt.numNumeric, tt.examples)
			require.Error(t, err)
		})
	}
}

func TestTrainerFitOutOfRangeErrorType(t *testing.T) {
	trainer := NewTrainer(Config{Epochs: 1, BatchSize: 2, LearningRate: 0.01})
	_, _, err := trainer.Fit(
		[]EmbeddingSpec{{Name: "a", VocabularySize: 2, Dim: 1}},
		0,
		[]Example{{Indices: []int{7}, Label: 0}},
	)
	require.Error(t, err)

	var oorErr *errors.OutOfRangeError
	require.True(t, errors.As(err, &oorErr))
	require.Equal(t, 7, oorErr.Index)
	require.Equal(t, 2, oorErr.Size)
}

func TestMakeBatches(t *testing.T) {
	examples := make([]Example, 10)

	batches := makeBatches(examples, 4)
	require.Len(t, batches, 3)
	require.Len(t, batches[0], 4)
	require.Len(t, batches[1], 4)
	require.Len(t, batches[2], 2)

	single := makeBatches(examples, 100)
	require.Len(t, single, 1)
	require.Len(t, single[0], 10)
}

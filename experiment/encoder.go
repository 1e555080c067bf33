package experiment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabenc/dataset"
	"github.com/YuminosukeSato/tabenc/preprocessing"
)

// Encoder applies one categorical encoding strategy outside the benchmark
// loop, so a feature space fitted on a train table can be reused on further
// tables of the same schema.
//
// Embedding tables are randomly initialized here. Trained embeddings only
// exist inside the experiment runner, which fits them with a linear probe.
type Encoder struct {
	cols  []featureColumn
	space *preprocessing.FeatureSpace
}

// NewEncoder fits the categorical vocabularies and the feature space of the
// strategy on the train table.
func NewEncoder(train *dataset.Table, strategy Strategy, seed int64) (*Encoder, error) {
	cols, err := buildFeatureColumns(train)
	if err != nil {
		return nil, err
	}

	X, err := indexMatrix(train, cols)
	if err != nil {
		return nil, err
	}
	y, err := train.Target()
	if err != nil {
		return nil, err
	}

	space := preprocessing.NewFeatureSpace(columnSpecs(cols, strategy)).WithSeed(seed)
	if err := space.Fit(X, y); err != nil {
		return nil, err
	}

	return &Encoder{cols: cols, space: space}, nil
}

// Encode builds the design matrix of a table with the fitted feature space.
// The table must use the same schema as the train table, and its categorical
// values must all occur in the train vocabularies.
func (e *Encoder) Encode(t *dataset.Table) (mat.Matrix, error) {
	X, err := indexMatrix(t, e.cols)
	if err != nil {
		return nil, err
	}
	return e.space.Transform(X)
}

// OutputDim returns the width of the design matrix.
func (e *Encoder) OutputDim() int {
	return e.space.OutputDim()
}

// Header returns one name per design matrix column. Target encoded columns
// expand into their frequency and probability parts, embedding columns into
// one name per vector dimension.
func (e *Encoder) Header() []string {
	header := make([]string, 0, e.space.OutputDim())
	for j, fc := range e.cols {
		switch e.space.Specs[j].Strategy {
		case preprocessing.TargetEncoding:
			header = append(header,
				fc.name+"_positive_frequency",
				fc.name+"_negative_frequency",
				fc.name+"_positive_probability")
		case preprocessing.Embedding:
			for d := 0; d < e.space.EmbeddingAt(j).Dim; d++ {
				header = append(header, fmt.Sprintf("%s_%d", fc.name, d))
			}
		default:
			header = append(header, fc.name)
		}
	}
	return header
}

// Package embedtrain trains categorical feature embeddings in a simple
// linear model through backpropagation. The trained tables are meant to be
// used as static inputs to a decision forest model, since forests do not
// train with backpropagation. Gradient computation and optimization are
// delegated to spago.
package embedtrain

import (
	"github.com/nlpodyssey/spago/pkg/mat"
	"github.com/nlpodyssey/spago/pkg/mat/rand"
	"github.com/nlpodyssey/spago/pkg/ml/ag"
	"github.com/nlpodyssey/spago/pkg/ml/initializers"
	"github.com/nlpodyssey/spago/pkg/ml/nn"
	"github.com/nlpodyssey/spago/pkg/ml/nn/linear"
)

var (
	_ nn.Model     = &Probe{}
	_ nn.Processor = &ProbeProcessor{}
)

// EmbeddingSpec describes one categorical column to be embedded.
type EmbeddingSpec struct {
	// Name identifies the column.
	Name string
	// VocabularySize is the number of distinct value indices.
	VocabularySize int
	// Dim is the embedding dimension. Must be positive.
	Dim int
}

// Probe is the linear model that trains the embedding tables.
//
// Each vocabulary index of each column owns one trainable vector. The
// concatenation of the continuous features and the looked-up vectors feeds
// a single linear output layer producing two class logits.
type Probe struct {
	Specs      []EmbeddingSpec
	Embeddings []*nn.Param
	Output     *linear.Model

	offsets    []int
	numNumeric int
	totalDim   int
}

// NewProbe builds an untrained probe for the given columns plus numNumeric
// continuous passthrough features.
func NewProbe(specs []EmbeddingSpec, numNumeric int) *Probe {
	totalVectors := 0
	for _, spec := range specs {
		totalVectors += spec.VocabularySize
	}

	embeddings := make([]*nn.Param, 0, totalVectors)
	offsets := make([]int, len(specs))
	totalDim := numNumeric
	for c, spec := range specs {
		offsets[c] = len(embeddings)
		for v := 0; v < spec.VocabularySize; v++ {
			embeddings = append(embeddings, nn.NewParam(mat.NewEmptyVecDense(spec.Dim)))
		}
		totalDim += spec.Dim
	}

	return &Probe{
		Specs:      specs,
		Embeddings: embeddings,
		Output:     linear.New(totalDim, 2),
		offsets:    offsets,
		numNumeric: numNumeric,
		totalDim:   totalDim,
	}
}

// Init randomizes the embedding vectors and the output layer.
func (m *Probe) Init(generator *rand.LockedRand) {
	for _, p := range m.Embeddings {
		initializers.Uniform(p.Value(), -0.05, 0.05, generator)
	}
	initializers.XavierUniform(m.Output.W.Value(), initializers.Gain(ag.OpIdentity), generator)
}

// Vector returns the embedding parameter of one vocabulary index.
func (m *Probe) Vector(column, index int) *nn.Param {
	return m.Embeddings[m.offsets[column]+index]
}

// InputDim returns the probe input width.
func (m *Probe) InputDim() int {
	return m.totalDim
}

// ProbeProcessor runs the probe forward pass on a graph.
type ProbeProcessor struct {
	nn.BaseProcessor
	outputProcessor nn.Processor
}

// NewProc creates a processor bound to the given graph context.
func (m *Probe) NewProc(ctx nn.Context) nn.Processor {
	return &ProbeProcessor{
		BaseProcessor: nn.BaseProcessor{
			Model:             m,
			Mode:              ctx.Mode,
			Graph:             ctx.Graph,
			FullSeqProcessing: true,
		},
		outputProcessor: m.Output.NewProc(ctx),
	}
}

// Forward maps assembled input vectors to class logits.
func (p *ProbeProcessor) Forward(xs ...ag.Node) []ag.Node {
	return p.outputProcessor.Forward(xs...)
}

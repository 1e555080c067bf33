package embedtrain

import (
	"github.com/nlpodyssey/spago/pkg/mat/rand"
	"github.com/nlpodyssey/spago/pkg/ml/ag"
	"github.com/nlpodyssey/spago/pkg/ml/losses"
	"github.com/nlpodyssey/spago/pkg/ml/nn"
	"github.com/nlpodyssey/spago/pkg/ml/optimizers/gd"
	"github.com/nlpodyssey/spago/pkg/ml/optimizers/gd/adam"
	"gonum.org/v1/gonum/mat"

	spagomat "github.com/nlpodyssey/spago/pkg/mat"

	"github.com/YuminosukeSato/tabenc/pkg/errors"
	"github.com/YuminosukeSato/tabenc/pkg/log"
)

// Config holds the probe training hyperparameters. The defaults are the
// linear model settings of the census experiment.
type Config struct {
	Epochs         int
	BatchSize      int
	LearningRate   float64
	Seed           uint64
	ReportInterval int
}

// DefaultConfig returns the census experiment training configuration.
func DefaultConfig() Config {
	return Config{
		Epochs:         3,
		BatchSize:      256,
		LearningRate:   0.001,
		Seed:           42,
		ReportInterval: 10,
	}
}

// Example is one training example: continuous feature values, one category
// index per embedded column, and a binary label.
type Example struct {
	Numeric []float64
	Indices []int
	Label   int
}

// Trainer fits embedding tables with Adam gradient descent.
type Trainer struct {
	config    Config
	probe     *Probe
	optimizer *gd.GradientDescent
}

// NewTrainer creates a trainer with the given configuration.
func NewTrainer(config Config) *Trainer {
	return &Trainer{config: config}
}

// Probe returns the trained probe model. It is nil before Fit.
func (t *Trainer) Probe() *Probe {
	return t.probe
}

// Fit trains one embedding table per spec on the given examples.
//
// It returns the trained tables keyed by column name, with one
// vocabularySize x dim matrix per column, plus the mean loss per epoch.
// The resulting tables feed preprocessing.EmbeddingEncoder.SetWeights.
// A ConvergenceWarning is emitted when the final epoch loss did not
// improve on the first. Fit fails with a NumericalInstabilityError when
// the loss diverges to NaN or Inf.
func (t *Trainer) Fit(specs []EmbeddingSpec, numNumeric int, examples []Example) (weights map[string]*mat.Dense, history []float64, err error) {
	defer errors.Recover(&err, "Fit")

	logger := log.GetLoggerWithName("embedtrain.trainer")

	if err := validateConfig(t.config); err != nil {
		return nil, nil, err
	}
	if err := validateInputs(specs, numNumeric, examples); err != nil {
		return nil, nil, err
	}

	logger.Info("starting embedding training",
		log.EpochKey, t.config.Epochs,
		log.BatchSizeKey, t.config.BatchSize,
		log.LearningRateKey, t.config.LearningRate,
		log.RandomSeedKey, t.config.Seed,
		log.SamplesKey, len(examples),
		log.FeaturesKey, len(specs),
	)

	rndGen := rand.NewLockedRand(t.config.Seed)
	t.probe = NewProbe(specs, numNumeric)
	t.probe.Init(rndGen)

	updaterConfig := adam.NewDefaultConfig()
	updaterConfig.StepSize = t.config.LearningRate
	updater := adam.New(updaterConfig)
	t.optimizer = gd.NewOptimizer(updater, nn.NewDefaultParamsIterator(t.probe))

	reportInterval := t.config.ReportInterval
	if reportInterval <= 0 {
		reportInterval = 10
	}

	batches := makeBatches(examples, t.config.BatchSize)
	history = make([]float64, 0, t.config.Epochs)
	for epoch := 0; epoch < t.config.Epochs; epoch++ {
		t.optimizer.IncEpoch()
		epochLoss := 0.0
		for i, batch := range batches {
			batchLoss := t.trainBatch(batch)
			t.optimizer.Optimize()
			epochLoss += batchLoss * float64(len(batch))
			if i%reportInterval == 0 {
				logger.Debug("batch complete",
					log.EpochKey, epoch,
					log.IterationKey, i,
					log.LossKey, batchLoss,
				)
			}
		}
		epochLoss /= float64(len(examples))
		if err := errors.CheckScalar("Fit", epochLoss, epoch); err != nil {
			return nil, nil, errors.Wrap(err, "embedding training diverged")
		}
		history = append(history, epochLoss)
		logger.Info("epoch complete",
			log.EpochKey, epoch,
			log.LossKey, epochLoss,
		)
	}

	if len(history) > 1 && history[len(history)-1] >= history[0] {
		errors.Warn(errors.NewConvergenceWarning("EmbeddingProbe", t.config.Epochs,
			"final epoch loss did not improve on the first epoch"))
	}

	return t.columnWeights(), history, nil
}

func (t *Trainer) trainBatch(batch []Example) float64 {
	t.optimizer.IncBatch()

	g := ag.NewGraph(ag.Rand(rand.NewLockedRand(t.config.Seed)))
	defer g.Clear()

	input := t.createInputNodes(batch, g)
	proc := t.probe.NewProc(nn.Context{Graph: g, Mode: nn.Training})
	logits := proc.Forward(input...)

	var loss ag.Node
	for i := range batch {
		exampleLoss := losses.CrossEntropy(g, logits[i], batch[i].Label)
		loss = g.Add(loss, exampleLoss)
	}
	loss = g.Div(loss, g.NewScalar(float64(len(batch))))

	g.Backward(loss)
	return loss.ScalarValue()
}

func (t *Trainer) createInputNodes(batch []Example, g *ag.Graph) []ag.Node {
	input := make([]ag.Node, len(batch))
	for i, example := range batch {
		var node ag.Node
		if len(example.Numeric) > 0 {
			node = g.NewVariable(spagomat.NewVecDense(example.Numeric), false)
		}
		for c, index := range example.Indices {
			wrapped := g.NewWrap(t.probe.Vector(c, index))
			if node == nil {
				node = wrapped
			} else {
				node = g.Concat(node, wrapped)
			}
		}
		input[i] = node
	}
	return input
}

func (t *Trainer) columnWeights() map[string]*mat.Dense {
	weights := make(map[string]*mat.Dense, len(t.probe.Specs))
	for c, spec := range t.probe.Specs {
		table := mat.NewDense(spec.VocabularySize, spec.Dim, nil)
		for v := 0; v < spec.VocabularySize; v++ {
			value := t.probe.Vector(c, v).Value()
			for d := 0; d < spec.Dim; d++ {
				table.Set(v, d, value.At(d, 0))
			}
		}
		weights[spec.Name] = table
	}
	return weights
}

func makeBatches(examples []Example, size int) [][]Example {
	var batches [][]Example
	for start := 0; start < len(examples); start += size {
		end := start + size
		if end > len(examples) {
			end = len(examples)
		}
		batches = append(batches, examples[start:end])
	}
	return batches
}

func validateConfig(config Config) error {
	if config.Epochs <= 0 {
		return errors.NewValidationError("epochs", "must be positive", config.Epochs)
	}
	if config.BatchSize <= 0 {
		return errors.NewValidationError("batch_size", "must be positive", config.BatchSize)
	}
	if config.LearningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be positive", config.LearningRate)
	}
	return nil
}

func validateInputs(specs []EmbeddingSpec, numNumeric int, examples []Example) error {
	if len(specs) == 0 {
		return errors.NewValueError("Fit", "no embedding specs")
	}
	for _, spec := range specs {
		if spec.VocabularySize <= 0 {
			return errors.NewValidationError("vocabulary_size", "must be positive for column "+spec.Name, spec.VocabularySize)
		}
		if spec.Dim <= 0 {
			return errors.NewValidationError("dim", "must be positive for column "+spec.Name, spec.Dim)
		}
	}
	if numNumeric < 0 {
		return errors.NewValidationError("num_numeric", "must not be negative", numNumeric)
	}
	if len(examples) == 0 {
		return errors.Wrap(errors.ErrEmptyData, "Fit")
	}

	for _, example := range examples {
		if len(example.Indices) != len(specs) {
			return errors.NewDimensionError("Fit", len(specs), len(example.Indices), 1)
		}
		if len(example.Numeric) != numNumeric {
			return errors.NewDimensionError("Fit", numNumeric, len(example.Numeric), 1)
		}
		if example.Label != 0 && example.Label != 1 {
			return errors.NewValueError("Fit", "labels must be binary (0 or 1)")
		}
		for c, index := range example.Indices {
			if index < 0 || index >= specs[c].VocabularySize {
				return errors.NewOutOfRangeError("Fit", index, specs[c].VocabularySize)
			}
		}
	}
	return nil
}

// Package experiment runs end-to-end encoding comparisons on a binary
// classification table. Each experiment fits a feature space with one
// categorical encoding strategy, trains a gradient boosting classifier on
// the resulting design matrix and evaluates it on a held-out test table.
package experiment

import (
	"time"

	"github.com/YuminosukeSato/scigo/sklearn/lightgbm"
	"github.com/nlpodyssey/spago/pkg/ml/stats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabenc/core/model"
	"github.com/YuminosukeSato/tabenc/dataset"
	"github.com/YuminosukeSato/tabenc/embedtrain"
	"github.com/YuminosukeSato/tabenc/metrics"
	"github.com/YuminosukeSato/tabenc/pkg/errors"
	"github.com/YuminosukeSato/tabenc/pkg/log"
	"github.com/YuminosukeSato/tabenc/preprocessing"
)

// Strategy selects how categorical columns are encoded for an experiment.
type Strategy int

const (
	// StrategyRaw feeds vocabulary indices to the classifier unchanged.
	StrategyRaw Strategy = iota
	// StrategyTarget replaces each categorical column with its target encoding.
	StrategyTarget
	// StrategyEmbedding replaces each categorical column with embedding
	// vectors trained by a linear probe.
	StrategyEmbedding
)

// String returns the command line name of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyRaw:
		return "raw"
	case StrategyTarget:
		return "target"
	case StrategyEmbedding:
		return "embedding"
	default:
		return "unknown"
	}
}

// ParseStrategy converts a command line name into a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "raw":
		return StrategyRaw, nil
	case "target":
		return StrategyTarget, nil
	case "embedding":
		return StrategyEmbedding, nil
	default:
		return 0, errors.NewValidationError("strategy", "must be one of raw, target, embedding", name)
	}
}

// GBTConfig holds the gradient boosting hyperparameters shared by all
// experiments.
type GBTConfig struct {
	// NumTrees is the number of boosting iterations.
	NumTrees int

	// MaxDepth is the maximum depth of each tree.
	MaxDepth int

	// MinChildSamples is the minimum number of samples per leaf.
	MinChildSamples int

	// Subsample is the row sampling ratio per iteration.
	Subsample float64
}

// DefaultGBTConfig returns the hyperparameters used for the census income
// benchmark.
func DefaultGBTConfig() GBTConfig {
	return GBTConfig{
		NumTrees:        250,
		MaxDepth:        5,
		MinChildSamples: 6,
		Subsample:       0.65,
	}
}

// ClassifierFactory builds a fresh untrained classifier for one experiment.
// Each experiment trains its own instance so that runs stay independent.
type ClassifierFactory func() (model.Classifier, error)

// NewLightGBMFactory returns a factory producing LightGBM classifiers
// configured with the given hyperparameters.
func NewLightGBMFactory(config GBTConfig) ClassifierFactory {
	return func() (model.Classifier, error) {
		clf := lightgbm.NewLGBMClassifier()
		if err := clf.SetParams(map[string]interface{}{
			"n_estimators":      config.NumTrees,
			"max_depth":         config.MaxDepth,
			"min_child_samples": config.MinChildSamples,
			"subsample":         config.Subsample,
		}); err != nil {
			return nil, errors.Wrap(err, "failed to configure LightGBM classifier")
		}
		return clf, nil
	}
}

// Result holds the evaluation of a single experiment on the test table.
type Result struct {
	// Name is the human readable experiment name.
	Name string

	// Strategy is the categorical encoding strategy that was used.
	Strategy Strategy

	// Accuracy is the fraction of correctly classified test rows.
	Accuracy float64

	// AUC is the area under the ROC curve of the positive class probability.
	AUC float64

	// LogLoss is the binary cross entropy of the predicted probabilities.
	LogLoss float64

	// NumFeatures is the width of the design matrix fed to the classifier.
	NumFeatures int

	// NumTrain and NumTest are the table sizes used for the run.
	NumTrain int
	NumTest  int

	// Duration is the wall clock time of the full run including encoding,
	// training and evaluation.
	Duration time.Duration

	// PerClass holds the confusion counts per target label.
	PerClass map[string]*stats.ClassMetrics
}

// Runner executes experiments with a shared classifier factory and seed.
type Runner struct {
	factory     ClassifierFactory
	embedConfig embedtrain.Config
	seed        int64
}

// NewRunner creates a Runner with the census benchmark defaults: a LightGBM
// factory built from DefaultGBTConfig and the default embedding training
// configuration.
func NewRunner() *Runner {
	return &Runner{
		factory:     NewLightGBMFactory(DefaultGBTConfig()),
		embedConfig: embedtrain.DefaultConfig(),
		seed:        42,
	}
}

// WithFactory replaces the classifier factory.
func (r *Runner) WithFactory(factory ClassifierFactory) *Runner {
	r.factory = factory
	return r
}

// WithGBTConfig rebuilds the default LightGBM factory with new
// hyperparameters.
func (r *Runner) WithGBTConfig(config GBTConfig) *Runner {
	r.factory = NewLightGBMFactory(config)
	return r
}

// WithEmbeddingConfig replaces the embedding training configuration.
func (r *Runner) WithEmbeddingConfig(config embedtrain.Config) *Runner {
	r.embedConfig = config
	return r
}

// WithSeed sets the seed used for embedding initialization and embedding
// training.
func (r *Runner) WithSeed(seed int64) *Runner {
	r.seed = seed
	r.embedConfig.Seed = uint64(seed)
	return r
}

// RunAll executes the three encoding strategies in order and returns one
// result per strategy.
func (r *Runner) RunAll(train, test *dataset.Table) ([]*Result, error) {
	runs := []struct {
		name     string
		strategy Strategy
	}{
		{"raw features", StrategyRaw},
		{"target encoding", StrategyTarget},
		{"trained embeddings", StrategyEmbedding},
	}

	results := make([]*Result, 0, len(runs))
	for _, run := range runs {
		result, err := r.Run(run.name, run.strategy, train, test)
		if err != nil {
			return nil, errors.Wrapf(err, "experiment %q", run.name)
		}
		results = append(results, result)
	}
	return results, nil
}

// Run executes one experiment: it fits the categorical vocabularies and the
// feature space on the train table, trains a classifier on the encoded
// design matrix and evaluates accuracy, AUC and log loss on the test table.
//
// Categorical vocabularies are always built from the train table. Test rows
// holding values that never occur in the train table fail the run with an
// error rather than being silently mapped.
func (r *Runner) Run(name string, strategy Strategy, train, test *dataset.Table) (result *Result, err error) {
	defer errors.Recover(&err, "Runner.Run")

	start := time.Now()
	logger := log.GetLoggerWithName("experiment.runner")

	if train == nil || test == nil {
		return nil, errors.NewValueError("Runner.Run", "train and test tables must not be nil")
	}
	if train.Len() == 0 || test.Len() == 0 {
		return nil, errors.NewModelError("Runner.Run", "empty data", errors.ErrEmptyData)
	}

	cols, err := buildFeatureColumns(train)
	if err != nil {
		return nil, err
	}

	logger.Info("Starting experiment",
		log.ModelNameKey, "Runner",
		"experiment", name,
		"strategy", strategy.String(),
		log.SamplesKey, train.Len(),
		log.FeaturesKey, len(cols),
	)

	trainX, err := indexMatrix(train, cols)
	if err != nil {
		return nil, err
	}
	testX, err := indexMatrix(test, cols)
	if err != nil {
		return nil, err
	}
	trainY, err := train.Target()
	if err != nil {
		return nil, err
	}
	testY, err := test.Target()
	if err != nil {
		return nil, err
	}

	space := preprocessing.NewFeatureSpace(columnSpecs(cols, strategy)).WithSeed(r.seed)
	if err := space.Fit(trainX, trainY); err != nil {
		return nil, err
	}
	if strategy == StrategyEmbedding {
		if err := r.trainEmbeddings(space, cols, trainX, trainY); err != nil {
			return nil, err
		}
	}

	trainDesign, err := space.Transform(trainX)
	if err != nil {
		return nil, err
	}
	testDesign, err := space.Transform(testX)
	if err != nil {
		return nil, err
	}

	clf, err := r.factory()
	if err != nil {
		return nil, err
	}
	if err := clf.Fit(trainDesign, trainY); err != nil {
		return nil, errors.Wrap(err, "classifier training failed")
	}

	preds, err := clf.Predict(testDesign)
	if err != nil {
		return nil, errors.Wrap(err, "prediction failed")
	}
	proba, err := clf.PredictProba(testDesign)
	if err != nil {
		return nil, errors.Wrap(err, "probability prediction failed")
	}

	accuracy, err := metrics.AccuracyMatrix(testY, preds)
	if err != nil {
		return nil, err
	}
	logLoss, err := metrics.BinaryLogLossMatrix(testY, proba)
	if err != nil {
		return nil, err
	}
	scores, err := positiveColumn(proba)
	if err != nil {
		return nil, err
	}
	auc, err := metrics.AUC(testY, scores)
	if err != nil {
		return nil, err
	}

	result = &Result{
		Name:        name,
		Strategy:    strategy,
		Accuracy:    accuracy,
		AUC:         auc,
		LogLoss:     logLoss,
		NumFeatures: space.OutputDim(),
		NumTrain:    train.Len(),
		NumTest:     test.Len(),
		Duration:    time.Since(start),
		PerClass:    confusionByClass(testY, preds, train.Schema().TargetLabels),
	}

	logger.Info("Experiment completed",
		log.ModelNameKey, "Runner",
		"experiment", name,
		"strategy", strategy.String(),
		log.FeaturesKey, result.NumFeatures,
		log.AccuracyKey, result.Accuracy,
		log.AUCKey, result.AUC,
		log.LossKey, result.LogLoss,
		log.DurationMsKey, result.Duration.Milliseconds(),
	)

	return result, nil
}

// trainEmbeddings trains one embedding table per categorical column with a
// linear probe and installs the trained weights into the feature space.
func (r *Runner) trainEmbeddings(space *preprocessing.FeatureSpace, cols []featureColumn, trainX *mat.Dense, trainY *mat.VecDense) error {
	var specs []embedtrain.EmbeddingSpec
	var catCols []int
	numNumeric := 0
	for j, fc := range cols {
		if !fc.categorical {
			numNumeric++
			continue
		}
		vocab := fc.lookup.VocabularySize()
		specs = append(specs, embedtrain.EmbeddingSpec{
			Name:           fc.name,
			VocabularySize: vocab,
			Dim:            preprocessing.DefaultEmbeddingDim(vocab),
		})
		catCols = append(catCols, j)
	}
	if len(specs) == 0 {
		return nil
	}

	trainer := embedtrain.NewTrainer(r.embedConfig)
	weights, _, err := trainer.Fit(specs, numNumeric, trainingExamples(trainX, trainY, cols))
	if err != nil {
		return errors.Wrap(err, "embedding training failed")
	}

	for i, j := range catCols {
		if err := space.SetEmbeddingWeights(j, weights[specs[i].Name]); err != nil {
			return err
		}
	}
	return nil
}

// featureColumn pairs a feature column with the vocabulary fitted on the
// train table. The lookup is nil for numeric columns.
type featureColumn struct {
	name        string
	categorical bool
	lookup      *preprocessing.StringLookup
}

// buildFeatureColumns fits a StringLookup on every categorical feature
// column of the train table.
func buildFeatureColumns(train *dataset.Table) ([]featureColumn, error) {
	schema := train.Schema()
	names := schema.FeatureNames()
	if len(names) == 0 {
		return nil, errors.NewModelError("Runner.Run", "no feature columns", errors.ErrEmptyData)
	}

	cols := make([]featureColumn, 0, len(names))
	for _, name := range names {
		idx, err := schema.ColumnIndex(name)
		if err != nil {
			return nil, err
		}
		role, err := schema.Role(idx)
		if err != nil {
			return nil, err
		}

		fc := featureColumn{name: name, categorical: role == dataset.Categorical}
		if fc.categorical {
			values, err := train.Column(name)
			if err != nil {
				return nil, err
			}
			lookup := preprocessing.NewStringLookup()
			if err := lookup.Fit(values); err != nil {
				return nil, errors.Wrapf(err, "column %q", name)
			}
			fc.lookup = lookup
		}
		cols = append(cols, fc)
	}
	return cols, nil
}

// indexMatrix assembles the raw feature matrix of a table. Numeric columns
// are copied as is and categorical columns are mapped to vocabulary indices.
func indexMatrix(t *dataset.Table, cols []featureColumn) (*mat.Dense, error) {
	n := t.Len()
	X := mat.NewDense(n, len(cols), nil)

	for j, fc := range cols {
		if fc.categorical {
			values, err := t.Column(fc.name)
			if err != nil {
				return nil, err
			}
			indices, err := fc.lookup.Transform(values)
			if err != nil {
				return nil, errors.Wrapf(err, "column %q", fc.name)
			}
			for i := 0; i < n; i++ {
				X.Set(i, j, indices.At(i, 0))
			}
		} else {
			vec, err := t.NumericColumn(fc.name)
			if err != nil {
				return nil, err
			}
			for i := 0; i < n; i++ {
				X.Set(i, j, vec.AtVec(i))
			}
		}
	}
	return X, nil
}

// columnSpecs maps the experiment strategy onto per column encoding specs.
// Numeric columns always pass through unchanged.
func columnSpecs(cols []featureColumn, strategy Strategy) []preprocessing.ColumnSpec {
	specs := make([]preprocessing.ColumnSpec, len(cols))
	for j, fc := range cols {
		spec := preprocessing.ColumnSpec{Name: fc.name, Strategy: preprocessing.NumericPassthrough}
		if fc.categorical {
			spec.VocabularySize = fc.lookup.VocabularySize()
			switch strategy {
			case StrategyRaw:
				spec.Strategy = preprocessing.RawIndex
			case StrategyTarget:
				spec.Strategy = preprocessing.TargetEncoding
			case StrategyEmbedding:
				spec.Strategy = preprocessing.Embedding
			}
		}
		specs[j] = spec
	}
	return specs
}

// trainingExamples converts the raw feature matrix into embedding training
// examples, splitting each row into its numeric part and its index part.
func trainingExamples(X *mat.Dense, y *mat.VecDense, cols []featureColumn) []embedtrain.Example {
	n, _ := X.Dims()
	examples := make([]embedtrain.Example, n)
	for i := 0; i < n; i++ {
		var numeric []float64
		var indices []int
		for j, fc := range cols {
			if fc.categorical {
				indices = append(indices, int(X.At(i, j)))
			} else {
				numeric = append(numeric, X.At(i, j))
			}
		}
		examples[i] = embedtrain.Example{Numeric: numeric, Indices: indices, Label: int(y.AtVec(i))}
	}
	return examples
}

// positiveColumn extracts the positive class probability from a prediction
// matrix. PredictProba returns one column per class in label order, so the
// last column belongs to the positive class.
func positiveColumn(proba mat.Matrix) (*mat.VecDense, error) {
	n, c := proba.Dims()
	if n == 0 || c == 0 {
		return nil, errors.NewValueError("Runner.Run", "empty probability matrix")
	}

	scores := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		scores.SetVec(i, proba.At(i, c-1))
	}
	return scores, nil
}

// confusionByClass accumulates per label confusion counts from the test
// predictions. Both labels are registered up front so that a class the
// classifier never predicts still shows up in the report.
func confusionByClass(yTrue *mat.VecDense, yPred mat.Matrix, labels []string) map[string]*stats.ClassMetrics {
	perClass := make(map[string]*stats.ClassMetrics, len(labels))
	for _, label := range labels {
		perClass[label] = stats.NewMetricCounter()
	}

	for i := 0; i < yTrue.Len(); i++ {
		trueLabel := labels[classIndex(yTrue.AtVec(i))]
		predLabel := labels[classIndex(yPred.At(i, 0))]
		if trueLabel == predLabel {
			perClass[trueLabel].IncTruePos()
		} else {
			perClass[trueLabel].IncFalseNeg()
			perClass[predLabel].IncFalsePos()
		}
	}
	return perClass
}

// classIndex maps a predicted value onto a binary class index. Predictions
// arrive as float labels, so anything at or above 0.5 counts as the
// positive class.
func classIndex(v float64) int {
	if v >= 0.5 {
		return 1
	}
	return 0
}

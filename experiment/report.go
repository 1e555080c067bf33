package experiment

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/nlpodyssey/spago/pkg/ml/stats"
	"github.com/rs/zerolog/log"

	"github.com/YuminosukeSato/tabenc/pkg/errors"
)

// Report writes an aligned comparison table of the experiment results.
func Report(w io.Writer, results []*Result) error {
	if len(results) == 0 {
		return errors.Wrap(errors.ErrEmptyData, "no experiment results to report")
	}

	fmt.Fprintf(w, "%-22s %9s %9s %9s %9s %9s %9s %12s\n",
		"experiment", "accuracy", "auc", "logloss", "features", "train", "test", "duration")
	for _, result := range results {
		fmt.Fprintf(w, "%-22s %9.4f %9.4f %9.4f %9d %9d %9d %12s\n",
			result.Name, result.Accuracy, result.AUC, result.LogLoss,
			result.NumFeatures, result.NumTrain, result.NumTest,
			result.Duration.Round(time.Millisecond))
	}
	return nil
}

// LogResults emits the per class breakdown of every result through the
// global structured logger.
func LogResults(results []*Result) {
	for _, result := range results {
		log.Info().
			Str("Experiment", result.Name).
			Str("Strategy", result.Strategy.String()).
			Float64("Accuracy", result.Accuracy).
			Float64("AUC", result.AUC).
			Float64("LogLoss", result.LogLoss).
			Msg("")

		// Sort class names for deterministic output
		for _, class := range sortClasses(result.PerClass) {
			m := result.PerClass[class]
			log.Info().Str("Class", class).
				Int("TP", m.TruePos).
				Int("FP", m.FalsePos).
				Int("TN", m.TrueNeg).
				Int("FN", m.FalseNeg).
				Float64("Precision", m.Precision()).
				Float64("Recall", m.Recall()).
				Float64("F1", m.F1Score()).
				Msg("")
		}

		macroF1, microF1 := overallF1(result.PerClass)
		log.Info().Float64("MacroF1", macroF1).Float64("MicroF1", microF1).Msg("")
	}
}

// overallF1 aggregates the per class metrics into macro and micro averaged
// F1 scores.
func overallF1(perClass map[string]*stats.ClassMetrics) (macro, micro float64) {
	if len(perClass) == 0 {
		return 0, 0
	}

	sum := stats.NewMetricCounter()
	for _, m := range perClass {
		macro += m.F1Score()
		sum.TruePos += m.TruePos
		sum.FalsePos += m.FalsePos
		sum.FalseNeg += m.FalseNeg
		sum.TrueNeg += m.TrueNeg
	}
	return macro / float64(len(perClass)), sum.F1Score()
}

func sortClasses(perClass map[string]*stats.ClassMetrics) []string {
	classes := make([]string, 0, len(perClass))
	for class := range perClass {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	return classes
}

package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabenc/dataset"
	"github.com/YuminosukeSato/tabenc/embedtrain"
	"github.com/YuminosukeSato/tabenc/experiment"
	"github.com/YuminosukeSato/tabenc/pkg/errors"
	mllog "github.com/YuminosukeSato/tabenc/pkg/log"
)

func ExperimentCommand() *cobra.Command {

	var trainFile string
	var testFile string
	var strategyName string
	var plotFile string
	var splitRatio float64
	var seed int64
	var gbtConfig experiment.GBTConfig
	var embedConfig embedtrain.Config

	var cmd = &cobra.Command{
		Use:   "experiment -i trainFile [-e testFile]",
		Short: "Compares categorical encoding strategies with a gradient boosting classifier on a census income table",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExperiment(trainFile, testFile, strategyName, plotFile, splitRatio, seed, gbtConfig, embedConfig)
		},
	}

	cmd.Flags().StringVarP(&trainFile, "train", "i", "", "name of train file")
	cmd.Flags().StringVarP(&testFile, "test", "e", "", "name of test file (optional, splits the train file if not present)")
	cmd.Flags().StringVarP(&strategyName, "strategy", "s", "all", "encoding strategy: raw target embedding or all")
	cmd.Flags().StringVarP(&plotFile, "plot", "p", "", "name of the comparison chart output file (optional)")
	cmd.Flags().Float64VarP(&splitRatio, "split-ratio", "", 0.85, "train fraction used when no test file is given")
	cmd.Flags().Int64VarP(&seed, "seed", "x", 42, "random seed")

	cmd.Flags().IntVarP(&gbtConfig.NumTrees, "num-trees", "n", 250, "number of boosting iterations")
	cmd.Flags().IntVarP(&gbtConfig.MaxDepth, "max-depth", "d", 5, "maximum tree depth")
	cmd.Flags().IntVarP(&gbtConfig.MinChildSamples, "min-examples", "m", 6, "minimum number of samples per leaf")
	cmd.Flags().Float64VarP(&gbtConfig.Subsample, "subsample", "", 0.65, "row sampling ratio per boosting iteration")

	cmd.Flags().IntVarP(&embedConfig.Epochs, "num-epochs", "", 3, "number of embedding training epochs")
	cmd.Flags().IntVarP(&embedConfig.BatchSize, "batch-size", "b", 256, "embedding training batch size")
	cmd.Flags().Float64VarP(&embedConfig.LearningRate, "learning-rate", "l", 0.001, "embedding training learning rate")
	cmd.Flags().IntVarP(&embedConfig.ReportInterval, "report-interval", "r", 10, "loss report interval in batches")

	_ = cmd.MarkFlagRequired("train")

	return cmd
}

func EncodeCommand() *cobra.Command {
	var trainFile string
	var inputFile string
	var outputFile string
	var strategyName string
	var seed int64

	var cmd = &cobra.Command{
		Use:   "encode -i trainFile [--input inputFile] [-o outputFile]",
		Short: "Fits a feature space on a train file and writes the encoded design matrix as CSV",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(trainFile, inputFile, outputFile, strategyName, seed)
		},
	}

	cmd.Flags().StringVarP(&trainFile, "train", "i", "", "name of train file the encoders are fitted on")
	cmd.Flags().StringVarP(&inputFile, "input", "", "", "name of the file to encode (optional, encodes the train file if not present)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "name of output file (optional, uses stdout if not present)")
	cmd.Flags().StringVarP(&strategyName, "strategy", "s", "target", "encoding strategy: raw target or embedding")
	cmd.Flags().Int64VarP(&seed, "seed", "x", 42, "random seed")

	_ = cmd.MarkFlagRequired("train")

	return cmd
}

func runExperiment(trainFile, testFile, strategyName, plotFile string, splitRatio float64, seed int64, gbtConfig experiment.GBTConfig, embedConfig embedtrain.Config) error {
	train, test, err := loadTables(trainFile, testFile, splitRatio, seed)
	if err != nil {
		return err
	}

	runner := experiment.NewRunner().
		WithGBTConfig(gbtConfig).
		WithEmbeddingConfig(embedConfig).
		WithSeed(seed)

	var results []*experiment.Result
	if strategyName == "all" {
		results, err = runner.RunAll(train, test)
		if err != nil {
			return err
		}
	} else {
		strategy, err := experiment.ParseStrategy(strategyName)
		if err != nil {
			return err
		}
		result, err := runner.Run(strategyName, strategy, train, test)
		if err != nil {
			return err
		}
		results = []*experiment.Result{result}
	}

	if err := experiment.Report(os.Stdout, results); err != nil {
		return err
	}
	experiment.LogResults(results)

	if plotFile != "" {
		if err := experiment.SavePlot(results, plotFile); err != nil {
			return err
		}
	}
	return nil
}

func runEncode(trainFile, inputFile, outputFile, strategyName string, seed int64) error {
	strategy, err := experiment.ParseStrategy(strategyName)
	if err != nil {
		return err
	}

	schema, err := dataset.CensusSchema(dataset.CensusHeader())
	if err != nil {
		return err
	}

	train, rowErrs, err := dataset.ReadCSVFile(trainFile, schema)
	if err != nil {
		return err
	}
	printRowErrors(rowErrs)

	input := train
	if inputFile != "" {
		input, rowErrs, err = dataset.ReadCSVFile(inputFile, schema)
		if err != nil {
			return err
		}
		printRowErrors(rowErrs)
	}

	encoder, err := experiment.NewEncoder(train, strategy, seed)
	if err != nil {
		return err
	}
	design, err := encoder.Encode(input)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("error opening output file %s: %w", outputFile, err)
		}
		defer f.Close()
		out = f
	}
	return writeDesignCSV(out, encoder.Header(), design)
}

func loadTables(trainFile, testFile string, splitRatio float64, seed int64) (*dataset.Table, *dataset.Table, error) {
	schema, err := dataset.CensusSchema(dataset.CensusHeader())
	if err != nil {
		return nil, nil, err
	}

	train, rowErrs, err := dataset.ReadCSVFile(trainFile, schema)
	if err != nil {
		return nil, nil, err
	}
	printRowErrors(rowErrs)

	if testFile == "" {
		return train.Split(splitRatio, seed)
	}

	test, rowErrs, err := dataset.ReadCSVFile(testFile, schema)
	if err != nil {
		return nil, nil, err
	}
	printRowErrors(rowErrs)

	return train, test, nil
}

func printRowErrors(rowErrors []dataset.RowError) {
	for _, rowErr := range rowErrors {
		log.Error().Msgf("Error parsing data at line %d: %s", rowErr.Line, rowErr.Message)
	}
}

func writeDesignCSV(w io.Writer, header []string, design mat.Matrix) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}

	n, c := design.Dims()
	record := make([]string, c)
	for i := 0; i < n; i++ {
		for j := 0; j < c; j++ {
			record[j] = strconv.FormatFloat(design.At(i, j), 'g', -1, 64)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

var logLevel string
var logJSON bool

func main() {

	Main := &cobra.Command{Use: "tabenc", PersistentPreRun: setupLogging}

	Main.PersistentFlags().StringVarP(&logLevel, "log-level", "", "info", "Logging level: info error or debug")
	Main.PersistentFlags().BoolVarP(&logJSON, "log-json", "", false, "Emit JSON logs instead of the console format")

	Main.AddCommand(ExperimentCommand())
	Main.AddCommand(EncodeCommand())

	if err := Main.Execute(); err != nil {
		panic(err)
	}
}

func setupLogging(cmd *cobra.Command, args []string) {

	var level mllog.Level
	switch logLevel {
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
		level = mllog.LevelError
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		level = mllog.LevelDebug
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		level = mllog.LevelInfo
	default:
		panic("Invalid logging level specified")
	}

	var provider *mllog.ZerologProvider
	if logJSON {
		provider = mllog.NewZerologProvider(os.Stderr)
	} else {
		setupPrettyLogging()
		provider = mllog.NewZerologConsoleProvider(os.Stderr)
	}
	provider.SetLevel(level)
	mllog.SetLoggerProvider(provider)

	// Degenerate encoding and convergence warnings surface through the
	// global logger instead of being swallowed by the library default.
	errors.SetZerologWarnFunc(func(warning error) {
		if marshaler, ok := warning.(zerolog.LogObjectMarshaler); ok {
			log.Warn().EmbedObject(marshaler).Msg("")
			return
		}
		log.Warn().Err(warning).Msg("")
	})
}

func setupPrettyLogging() {
	writer := zerolog.ConsoleWriter{Out: os.Stderr}
	writer.FormatFieldValue = func(i interface{}) string {
		switch v := i.(type) {
		case json.Number:
			val, _ := v.Float64()
			return fmt.Sprintf("%.3f", val)
		default:
			return fmt.Sprintf("%s", i)
		}
	}
	log.Logger = log.Output(writer)
}

// Package tabenc provides categorical feature encoding for binary
// classification on tabular data.
//
// The core of the library is the BinaryTargetEncoder, a stateful transform
// that replaces categorical vocabulary indices with their positive and
// negative label frequencies and the positive label probability observed
// during fitting. Around it, the library offers vocabulary lookups, trained
// embedding tables and an experiment harness that compares encoding
// strategies with a gradient boosting classifier.
//
// # Features
//
// - Target Encoding: frequency and probability statistics per category
// - Trained Embeddings: linear probe training through backpropagation
// - Feature Spaces: mixed numeric and categorical design matrix assembly
// - Experiment Harness: encoding strategy comparison with LightGBM
// - Robust Error Handling: typed errors with stack traces
// - Structured Logging: slog and zerolog backed providers
//
// # Installation
//
// Install tabenc using go get:
//
//	go get github.com/YuminosukeSato/tabenc
//
// # Quick Start
//
// Here's a simple example of target encoding:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//	    "github.com/YuminosukeSato/tabenc/preprocessing"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    // Categorical indices and their binary labels
//	    X := mat.NewDense(6, 1, []float64{0, 0, 1, 1, 2, 2})
//	    y := mat.NewDense(6, 1, []float64{1, 1, 1, 0, 0, 0})
//
//	    // Create and fit the encoder
//	    enc := preprocessing.NewBinaryTargetEncoder()
//	    if err := enc.Fit(X, y); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    // Encode the vocabulary
//	    encoded, err := enc.Transform(mat.NewDense(3, 1, []float64{0, 1, 2}))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    fmt.Println("Encoded:", encoded)
//	}
//
// # Packages
//
// The library is organized into several packages:
//
//   - preprocessing: BinaryTargetEncoder, StringLookup, EmbeddingEncoder, FeatureSpace
//   - embedtrain: linear probe training for embedding tables
//   - metrics: evaluation metrics (Accuracy, AUC, BinaryLogLoss)
//   - dataset: CSV loading, schemas and the census income table
//   - experiment: encoding strategy comparison harness
//   - core/model: core interfaces and estimator state management
//   - core/parallel: parallel processing utilities
//   - pkg/errors: typed errors and warnings with stack traces
//   - pkg/log: structured logging providers
//
// # Command Line
//
// The tabenc command runs the census income benchmark:
//
//	tabenc experiment -i census-income.data --strategy all --plot comparison.png
//	tabenc encode -i census-income.data -s target -o encoded.csv
//
// # License
//
// tabenc is released under the MIT License.
package tabenc

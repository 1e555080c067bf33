// Package model provides the interfaces and base types shared by the
// estimators and transformers in this library.
// This file complements the interfaces in estimator.go and transformer.go
package model

// Classifier combines the interfaces a classification collaborator must
// satisfy to be driven by the experiment runner. The external gradient
// boosting implementation satisfies this structurally.
type Classifier interface {
	Fitter
	Predictor
	ProbabilisticPredictor
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models that allow parameter modification.
type ParameterSetter interface {
	// SetParams sets the model's hyperparameters.
	SetParams(params map[string]interface{}) error
}

// Persistable is the interface for models that can be saved and loaded.
type Persistable interface {
	// Save saves the model to a file.
	Save(path string) error

	// Load loads the model from a file.
	Load(path string) error
}

package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// ProbabilisticPredictor はクラス確率を推定できるモデルのインターフェース
type ProbabilisticPredictor interface {
	// PredictProba は各クラスの所属確率を返す
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

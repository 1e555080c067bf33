package model

import "gonum.org/v1/gonum/mat"

// SupervisedTransformer は教師ラベルに依存するデータ変換のインターフェース。
// ターゲットエンコーディングのように、変換パラメータの学習にラベル列を
// 必要とする変換器が実装する
type SupervisedTransformer interface {
	// Fit は特徴量列とラベル列から変換に必要なパラメータを学習する
	Fit(X, y mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X, y mat.Matrix) (mat.Matrix, error)
}

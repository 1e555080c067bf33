package metrics

import (
	"github.com/YuminosukeSato/tabenc/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Accuracy は正解率（正しく分類されたサンプルの割合）を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	// 入力検証
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError("Accuracy", "empty vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("Accuracy", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("Accuracy", n, yPred.Len(), 0)
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}

	return float64(correct) / float64(n), nil
}

// ClassificationError は誤分類率（1 - Accuracy）を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	accuracy, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1.0 - accuracy, nil
}

// BinaryLogLoss は二値分類の交差エントロピー損失を計算する
// 予測確率はlog(0)を避けるためにイプシロンでクリップされる
//
// LogLoss = -(1/n) * Σ[y*log(p) + (1-y)*log(1-p)]
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	// 入力検証
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError("BinaryLogLoss", "empty vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("BinaryLogLoss", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("BinaryLogLoss", n, yPred.Len(), 0)
	}

	var sum float64
	for i := 0; i < n; i++ {
		label := yTrue.AtVec(i)
		if label != 0 && label != 1 {
			return 0, errors.NewValueError("BinaryLogLoss", "labels must be binary (0 or 1)")
		}

		p := yPred.AtVec(i)
		if label == 1 {
			sum -= errors.StabilizeLog(p)
		} else {
			sum -= errors.StabilizeLog(1 - p)
		}
	}

	return sum / float64(n), nil
}

// AUC はROC曲線の下面積（Area Under the ROC Curve）を計算する
//
// スコアを昇順にソートしたROC曲線（gonum/stat）を台形則（gonum/integrate）で
// 積分する。ラベルが片方のクラスしか含まない場合、AUCは定義されないため
// UndefinedMetricWarningを通知したうえで0.5を返す
func AUC(yTrue, yPred *mat.VecDense) (float64, error) {
	// 入力検証
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError("AUC", "empty vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("AUC", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("AUC", n, yPred.Len(), 0)
	}

	scores := make([]float64, n)
	classes := make([]bool, n)
	positives := 0
	for i := 0; i < n; i++ {
		label := yTrue.AtVec(i)
		if label != 0 && label != 1 {
			return 0, errors.NewValueError("AUC", "labels must be binary (0 or 1)")
		}
		scores[i] = yPred.AtVec(i)
		classes[i] = label == 1
		if classes[i] {
			positives++
		}
	}

	// 片方のクラスしか存在しない場合、ROC曲線は定義されない
	if positives == 0 || positives == n {
		errors.Warn(errors.NewUndefinedMetricWarning("AUC", "only one class present in y_true", 0.5))
		return 0.5, nil
	}

	stat.SortWeightedLabeled(scores, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, scores, classes, nil)

	// 台形則の積分はFPRが昇順であることを要求する
	if len(fpr) > 1 && fpr[0] > fpr[len(fpr)-1] {
		floats.Reverse(fpr)
		floats.Reverse(tpr)
	}

	return integrate.Trapezoidal(fpr, tpr), nil
}

// AUCMatrix は行列形式の入力に対してAUCを計算する
// 複数列の行列が渡された場合は最初の列を使用する
func AUCMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	// 入力検証
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError("AUCMatrix", "nil matrix")
	}

	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()
	if rTrue == 0 || cTrue == 0 || rPred == 0 || cPred == 0 {
		return 0, errors.NewValueError("AUCMatrix", "empty matrix")
	}
	if rTrue != rPred {
		return 0, errors.NewDimensionError("AUCMatrix", rTrue, rPred, 0)
	}

	// 最初の列をVecDenseに変換してAUCを計算
	yTrueVec := mat.NewVecDense(rTrue, nil)
	yPredVec := mat.NewVecDense(rPred, nil)
	for i := 0; i < rTrue; i++ {
		yTrueVec.SetVec(i, yTrue.At(i, 0))
		yPredVec.SetVec(i, yPred.At(i, 0))
	}

	return AUC(yTrueVec, yPredVec)
}

// AccuracyMatrix は行列形式の入力に対してAccuracyを計算する
// 複数列の行列が渡された場合は最初の列を使用する
func AccuracyMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	// 入力検証
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError("AccuracyMatrix", "nil matrix")
	}

	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()
	if rTrue == 0 || cTrue == 0 || rPred == 0 || cPred == 0 {
		return 0, errors.NewValueError("AccuracyMatrix", "empty matrix")
	}
	if rTrue != rPred {
		return 0, errors.NewDimensionError("AccuracyMatrix", rTrue, rPred, 0)
	}

	yTrueVec := mat.NewVecDense(rTrue, nil)
	yPredVec := mat.NewVecDense(rPred, nil)
	for i := 0; i < rTrue; i++ {
		yTrueVec.SetVec(i, yTrue.At(i, 0))
		yPredVec.SetVec(i, yPred.At(i, 0))
	}

	return Accuracy(yTrueVec, yPredVec)
}

// BinaryLogLossMatrix は行列形式の入力に対してBinaryLogLossを計算する
// 予測行列が2列（クラス確率）の場合は正例クラスの列（2列目）を使用する
func BinaryLogLossMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	// 入力検証
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError("BinaryLogLossMatrix", "nil matrix")
	}

	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()
	if rTrue == 0 || cTrue == 0 || rPred == 0 || cPred == 0 {
		return 0, errors.NewValueError("BinaryLogLossMatrix", "empty matrix")
	}
	if rTrue != rPred {
		return 0, errors.NewDimensionError("BinaryLogLossMatrix", rTrue, rPred, 0)
	}

	// 2列の確率行列は [P(class=0), P(class=1)] とみなす
	predCol := 0
	if cPred == 2 {
		predCol = 1
	}

	yTrueVec := mat.NewVecDense(rTrue, nil)
	yPredVec := mat.NewVecDense(rPred, nil)
	for i := 0; i < rTrue; i++ {
		yTrueVec.SetVec(i, yTrue.At(i, 0))
		yPredVec.SetVec(i, yPred.At(i, predCol))
	}

	return BinaryLogLoss(yTrueVec, yPredVec)
}

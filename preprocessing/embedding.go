package preprocessing

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/YuminosukeSato/tabenc/core/model"
	"github.com/YuminosukeSato/tabenc/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// DefaultEmbeddingDim は語彙サイズに対する既定の埋め込み次元数を返す
// ceil(sqrt(vocabularySize)) を使用する
func DefaultEmbeddingDim(vocabularySize int) int {
	if vocabularySize <= 0 {
		return 0
	}
	return int(math.Ceil(math.Sqrt(float64(vocabularySize))))
}

// EmbeddingEncoder はカテゴリ変数のインデックスを学習済み埋め込みベクトルに
// 変換するエンコーダ。重みテーブルは外部で学習されたもの（embedtrain）を
// SetWeightsで受け取るか、Initでランダム初期化する
type EmbeddingEncoder struct {
	model.BaseEstimator

	// VocabularySize は語彙サイズ（インデックスの定義域は [0, VocabularySize)）
	VocabularySize int

	// Dim は埋め込みベクトルの次元数
	Dim int

	weights *mat.Dense
}

// NewEmbeddingEncoder は新しいEmbeddingEncoderを作成する
//
// パラメータ:
//   - vocabularySize: 語彙サイズ
//   - dim: 埋め込み次元数（0以下の場合は ceil(sqrt(vocabularySize)) を使用）
//
// 使用例:
//
//	enc := preprocessing.NewEmbeddingEncoder(42, 0) // dim=7 になる
//	err := enc.Init(1)
//	vectors, err := enc.Transform(X)
func NewEmbeddingEncoder(vocabularySize, dim int) *EmbeddingEncoder {
	if dim <= 0 {
		dim = DefaultEmbeddingDim(vocabularySize)
	}
	return &EmbeddingEncoder{
		VocabularySize: vocabularySize,
		Dim:            dim,
	}
}

// Init は埋め込みテーブルを一様乱数 [-0.05, 0.05) で初期化し、学習済み状態にする
func (e *EmbeddingEncoder) Init(seed int64) error {
	if e.VocabularySize <= 0 {
		return errors.NewValidationError("vocabulary_size", "must be positive", e.VocabularySize)
	}

	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, e.VocabularySize*e.Dim)
	for i := range data {
		data[i] = rng.Float64()*0.1 - 0.05
	}

	e.weights = mat.NewDense(e.VocabularySize, e.Dim, data)
	e.SetFitted()
	return nil
}

// SetWeights は学習済みの埋め込みテーブルを設定し、学習済み状態にする
// 行列の形状は vocabularySize × dim に一致し、NaNやInfを含んではならない
func (e *EmbeddingEncoder) SetWeights(W *mat.Dense) error {
	if W == nil {
		return errors.NewModelError("EmbeddingEncoder.SetWeights", "empty data", errors.ErrEmptyData)
	}

	r, c := W.Dims()
	if r != e.VocabularySize {
		return errors.NewDimensionError("EmbeddingEncoder.SetWeights", e.VocabularySize, r, 0)
	}
	if c != e.Dim {
		return errors.NewDimensionError("EmbeddingEncoder.SetWeights", e.Dim, c, 1)
	}
	if err := errors.CheckMatrix("EmbeddingEncoder.SetWeights", W, r, c, 0); err != nil {
		return err
	}

	e.weights = W
	e.SetFitted()
	return nil
}

// Transform はインデックス列を埋め込みベクトルの行列 (n×dim) に変換する
//
// パラメータ:
//   - X: インデックス列 (n_samples × 1 の行列)
//
// 戻り値:
//   - mat.Matrix: 変換結果 (n_samples × dim の行列)
//   - error: 未学習の場合はNotFittedError、範囲外インデックスはOutOfRangeError
func (e *EmbeddingEncoder) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("EmbeddingEncoder", "Transform")
	}

	r, c := X.Dims()
	if c != 1 {
		return nil, errors.NewDimensionError("EmbeddingEncoder.Transform", 1, c, 1)
	}

	result := mat.NewDense(r, e.Dim, nil)
	for i := 0; i < r; i++ {
		v := X.At(i, 0)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.NewValueError("EmbeddingEncoder.Transform",
				fmt.Sprintf("index column contains NaN or Inf at row %d", i))
		}
		if v != math.Trunc(v) {
			return nil, errors.NewValueError("EmbeddingEncoder.Transform",
				fmt.Sprintf("index at row %d is not an integer: %g", i, v))
		}

		idx := int(v)
		if idx < 0 || idx >= e.VocabularySize {
			return nil, errors.NewOutOfRangeError("EmbeddingEncoder.Transform", idx, e.VocabularySize)
		}

		result.SetRow(i, e.weights.RawRowView(idx))
	}

	return result, nil
}

// Weights は埋め込みテーブルを返す。未学習の場合はnil
func (e *EmbeddingEncoder) Weights() *mat.Dense {
	return e.weights
}

// Reset は埋め込みテーブルを破棄して未学習状態に戻す
func (e *EmbeddingEncoder) Reset() {
	e.weights = nil
	e.BaseEstimator.Reset()
}

// String はEmbeddingEncoderの文字列表現を返す
func (e *EmbeddingEncoder) String() string {
	if !e.IsFitted() {
		return fmt.Sprintf("EmbeddingEncoder(vocabulary_size=%d, dim=%d, unfitted)", e.VocabularySize, e.Dim)
	}
	return fmt.Sprintf("EmbeddingEncoder(vocabulary_size=%d, dim=%d)", e.VocabularySize, e.Dim)
}

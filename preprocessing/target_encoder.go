package preprocessing

import (
	"fmt"
	"math"
	"time"

	"github.com/YuminosukeSato/tabenc/core/model"
	"github.com/YuminosukeSato/tabenc/pkg/errors"
	"github.com/YuminosukeSato/tabenc/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// BinaryTargetEncoder はカテゴリ変数のインデックス列を二値ラベルとの
// 共起統計量に変換するエンコーダ。
// 各インデックス v を (正例頻度, 負例頻度, 正例確率) の3列に変換する
//
// 学習（Fit）は単一パスの集計で、両方の頻度テーブルを常に同時に構築する。
// 再学習は前回の状態を完全に置き換えるため冪等であり、集計は加算のみで
// 構成されるため入力ペアの順序に依存しない
type BinaryTargetEncoder struct {
	state *model.StateManager

	// PositiveFrequency は各インデックスが正例ラベル(1)と共起した回数
	PositiveFrequency []int

	// NegativeFrequency は各インデックスが負例ラベル(0)と共起した回数
	NegativeFrequency []int

	// VocabularySize は学習済みの語彙サイズ（インデックスの定義域は [0, VocabularySize)）
	VocabularySize int

	// NSamplesSeen は学習時に観測した (インデックス, ラベル) ペアの数
	NSamplesSeen int

	// DeclaredVocabularySize は事前に宣言された語彙サイズ
	// 0 の場合は学習データから max(index)+1 として推定する
	DeclaredVocabularySize int
}

// NewBinaryTargetEncoder は新しいBinaryTargetEncoderを作成する
//
// 戻り値:
//   - *BinaryTargetEncoder: 未学習状態の新しいエンコーダ
//
// 使用例:
//
//	enc := preprocessing.NewBinaryTargetEncoder()
//	err := enc.Fit(X, y)          // X: n×1 のインデックス列, y: n×1 の二値ラベル列
//	encoded, err := enc.Transform(X)  // n×3 の [正例頻度, 負例頻度, 正例確率]
func NewBinaryTargetEncoder() *BinaryTargetEncoder {
	return &BinaryTargetEncoder{
		state: model.NewStateManager(),
	}
}

// WithVocabularySize は語彙サイズを事前に宣言する
// 宣言した場合、[0, n) の範囲外のインデックスは学習・変換ともにエラーになり、
// 学習データに現れなかった範囲内のインデックスは頻度0として扱われる
func (e *BinaryTargetEncoder) WithVocabularySize(n int) *BinaryTargetEncoder {
	e.DeclaredVocabularySize = n
	return e
}

// IsFitted はエンコーダが学習済みかどうかを返す
func (e *BinaryTargetEncoder) IsFitted() bool {
	return e.state.IsFitted()
}

// Fit は (インデックス, ラベル) ペアの列から共起頻度テーブルを構築する
//
// X の各行は [0, vocabularySize) の範囲の非負整数インデックス、y の各行は
// 0 または 1 の二値ラベルでなければならない。語彙サイズが宣言されていない
// 場合は max(index)+1 として推定する。検証に失敗した場合、エンコーダの
// 状態は一切変更されない
//
// パラメータ:
//   - X: インデックス列 (n_samples × 1 の行列)
//   - y: 二値ラベル列 (n_samples × 1 の行列)
//
// 戻り値:
//   - error: 空入力、次元不一致、NaN/Inf、非整数インデックス、範囲外
//     インデックス、非二値ラベルの場合のエラー
func (e *BinaryTargetEncoder) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "BinaryTargetEncoder.Fit")

	start := time.Now()
	logger := log.GetLoggerWithName("preprocessing.target_encoder")

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("BinaryTargetEncoder.Fit", "empty data", errors.ErrEmptyData)
	}
	if c != 1 {
		return errors.NewDimensionError("BinaryTargetEncoder.Fit", 1, c, 1)
	}

	ry, cy := y.Dims()
	if cy != 1 {
		return errors.NewDimensionError("BinaryTargetEncoder.Fit", 1, cy, 1)
	}
	if ry != r {
		return errors.NewDimensionError("BinaryTargetEncoder.Fit", r, ry, 0)
	}

	logger.Info("Starting target encoding fit",
		log.ModelNameKey, "BinaryTargetEncoder",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, r,
	)

	// 検証パス: 確定するまで一切の状態を変更しない
	indices := make([]int, r)
	positives := make([]bool, r)
	maxIndex := -1
	for i := 0; i < r; i++ {
		v := X.At(i, 0)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.NewValueError("BinaryTargetEncoder.Fit",
				fmt.Sprintf("index column contains NaN or Inf at row %d", i))
		}
		if v != math.Trunc(v) {
			return errors.NewValueError("BinaryTargetEncoder.Fit",
				fmt.Sprintf("index at row %d is not an integer: %g", i, v))
		}

		label := y.At(i, 0)
		if label != 0 && label != 1 {
			return errors.NewValueError("BinaryTargetEncoder.Fit",
				fmt.Sprintf("labels must be binary (0 or 1), got %g at row %d", label, i))
		}

		idx := int(v)
		indices[i] = idx
		positives[i] = label == 1
		if idx > maxIndex {
			maxIndex = idx
		}
	}

	vocabSize := e.DeclaredVocabularySize
	if vocabSize <= 0 {
		vocabSize = maxIndex + 1
	}
	for _, idx := range indices {
		if idx < 0 || idx >= vocabSize {
			return errors.NewOutOfRangeError("BinaryTargetEncoder.Fit", idx, vocabSize)
		}
	}

	// 集計パス: 両方の頻度テーブルを同時に構築し、前回の状態を完全に置き換える
	posCounts := make([]int, vocabSize)
	negCounts := make([]int, vocabSize)
	for i, idx := range indices {
		if positives[i] {
			posCounts[idx]++
		} else {
			negCounts[idx]++
		}
	}

	e.PositiveFrequency = posCounts
	e.NegativeFrequency = negCounts
	e.VocabularySize = vocabSize
	e.NSamplesSeen = r
	e.state.SetDimensions(1, r)
	e.state.SetFitted()

	logger.Info("Target encoding fit completed",
		log.ModelNameKey, "BinaryTargetEncoder",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, r,
		log.VocabularySizeKey, vocabSize,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	return nil
}

// Transform は学習済みの頻度テーブルを使ってインデックス列を統計量に変換する
//
// 各行のインデックス v は [正例頻度, 負例頻度, 正例確率] の3列に変換される。
// 正例確率は pos/(pos+neg)。宣言語彙の中で一度も観測されなかったインデックス
// は頻度 (0, 0) となり、確率は NaN に設定されたうえで
// DegenerateEncodingWarning が警告フックへ通知される
//
// パラメータ:
//   - X: インデックス列 (n_samples × 1 の行列)
//
// 戻り値:
//   - mat.Matrix: 変換結果 (n_samples × 3 の行列)
//   - error: 未学習の場合はNotFittedError、範囲外インデックスはOutOfRangeError
func (e *BinaryTargetEncoder) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("BinaryTargetEncoder", "Transform")
	}

	r, c := X.Dims()
	if c != 1 {
		return nil, errors.NewDimensionError("BinaryTargetEncoder.Transform", 1, c, 1)
	}

	result := mat.NewDense(r, 3, nil)
	var warned map[int]bool

	for i := 0; i < r; i++ {
		v := X.At(i, 0)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.NewValueError("BinaryTargetEncoder.Transform",
				fmt.Sprintf("index column contains NaN or Inf at row %d", i))
		}
		if v != math.Trunc(v) {
			return nil, errors.NewValueError("BinaryTargetEncoder.Transform",
				fmt.Sprintf("index at row %d is not an integer: %g", i, v))
		}

		idx := int(v)
		if idx < 0 || idx >= e.VocabularySize {
			return nil, errors.NewOutOfRangeError("BinaryTargetEncoder.Transform", idx, e.VocabularySize)
		}

		pos := e.PositiveFrequency[idx]
		neg := e.NegativeFrequency[idx]
		total := pos + neg

		var probability float64
		if total == 0 {
			probability = math.NaN()
			if !warned[idx] {
				if warned == nil {
					warned = make(map[int]bool)
				}
				warned[idx] = true
				errors.Warn(errors.NewDegenerateEncodingWarning("BinaryTargetEncoder.Transform", idx))
			}
		} else {
			probability = float64(pos) / float64(total)
		}

		result.Set(i, 0, float64(pos))
		result.Set(i, 1, float64(neg))
		result.Set(i, 2, probability)
	}

	return result, nil
}

// FitTransform は学習と変換を同時に実行する
//
// パラメータ:
//   - X: インデックス列 (n_samples × 1 の行列)
//   - y: 二値ラベル列 (n_samples × 1 の行列)
//
// 戻り値:
//   - mat.Matrix: 変換結果 (n_samples × 3 の行列)
//   - error: エラーが発生した場合
func (e *BinaryTargetEncoder) FitTransform(X, y mat.Matrix) (mat.Matrix, error) {
	if err := e.Fit(X, y); err != nil {
		return nil, err
	}
	return e.Transform(X)
}

// Reset はエンコーダを未学習状態に戻し、頻度テーブルを破棄する
// Reset後のTransformはNotFittedErrorを返す
func (e *BinaryTargetEncoder) Reset() {
	e.PositiveFrequency = nil
	e.NegativeFrequency = nil
	e.VocabularySize = 0
	e.NSamplesSeen = 0
	e.state.Reset()
}

// GetParams はエンコーダのハイパーパラメータを取得する
func (e *BinaryTargetEncoder) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"vocabulary_size": e.DeclaredVocabularySize,
	}
}

// SetParams はエンコーダのハイパーパラメータを設定する
func (e *BinaryTargetEncoder) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "vocabulary_size":
			switch v := value.(type) {
			case int:
				if v < 0 {
					return errors.NewValidationError("vocabulary_size", "must be non-negative", v)
				}
				e.DeclaredVocabularySize = v
			case float64:
				if v < 0 || v != math.Trunc(v) {
					return errors.NewValidationError("vocabulary_size", "must be a non-negative integer", v)
				}
				e.DeclaredVocabularySize = int(v)
			default:
				return errors.NewValidationError("vocabulary_size", "must be an integer", value)
			}
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	return nil
}

// String はエンコーダの文字列表現を返す
func (e *BinaryTargetEncoder) String() string {
	if !e.IsFitted() {
		if e.DeclaredVocabularySize > 0 {
			return fmt.Sprintf("BinaryTargetEncoder(vocabulary_size=%d)", e.DeclaredVocabularySize)
		}
		return "BinaryTargetEncoder(vocabulary_size=auto)"
	}
	return fmt.Sprintf("BinaryTargetEncoder(vocabulary_size=%d, n_samples_seen=%d)",
		e.VocabularySize, e.NSamplesSeen)
}

// encoderState はgob保存用のエンコーダ状態
type encoderState struct {
	PositiveFrequency      []int
	NegativeFrequency      []int
	VocabularySize         int
	NSamplesSeen           int
	DeclaredVocabularySize int
	Fitted                 bool
}

// Save はエンコーダの状態をファイルに保存する
func (e *BinaryTargetEncoder) Save(path string) error {
	st := encoderState{
		PositiveFrequency:      e.PositiveFrequency,
		NegativeFrequency:      e.NegativeFrequency,
		VocabularySize:         e.VocabularySize,
		NSamplesSeen:           e.NSamplesSeen,
		DeclaredVocabularySize: e.DeclaredVocabularySize,
		Fitted:                 e.IsFitted(),
	}
	return model.SaveModel(&st, path)
}

// Load はファイルからエンコーダの状態を復元する
func (e *BinaryTargetEncoder) Load(path string) error {
	var st encoderState
	if err := model.LoadModel(&st, path); err != nil {
		return err
	}

	e.PositiveFrequency = st.PositiveFrequency
	e.NegativeFrequency = st.NegativeFrequency
	e.VocabularySize = st.VocabularySize
	e.NSamplesSeen = st.NSamplesSeen
	e.DeclaredVocabularySize = st.DeclaredVocabularySize
	if st.Fitted {
		e.state.SetDimensions(1, st.NSamplesSeen)
		e.state.SetFitted()
	} else {
		e.state.Reset()
	}
	return nil
}

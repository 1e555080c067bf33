package preprocessing

import (
	"fmt"
	"math"
	"time"

	"github.com/YuminosukeSato/tabenc/core/model"
	"github.com/YuminosukeSato/tabenc/core/parallel"
	"github.com/YuminosukeSato/tabenc/pkg/errors"
	"github.com/YuminosukeSato/tabenc/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// ColumnStrategy は特徴量列ごとのエンコード戦略
type ColumnStrategy int

const (
	// NumericPassthrough は数値列をそのまま通す
	NumericPassthrough ColumnStrategy = iota
	// RawIndex はカテゴリ列のインデックス値をそのまま1列として通す
	RawIndex
	// TargetEncoding はカテゴリ列をBinaryTargetEncoderで3列に変換する
	TargetEncoding
	// Embedding はカテゴリ列をEmbeddingEncoderで埋め込みベクトルに変換する
	Embedding
)

// String は戦略の文字列表現を返す
func (s ColumnStrategy) String() string {
	switch s {
	case NumericPassthrough:
		return "numeric"
	case RawIndex:
		return "raw"
	case TargetEncoding:
		return "target"
	case Embedding:
		return "embedding"
	default:
		return "unknown"
	}
}

// ColumnSpec は1列分のエンコード指定
type ColumnSpec struct {
	// Name は列名（ログ・エラー文脈用）
	Name string

	// Strategy はこの列のエンコード戦略
	Strategy ColumnStrategy

	// VocabularySize はカテゴリ列の語彙サイズ（0の場合は学習データから推定）
	VocabularySize int
}

// FeatureSpace は列ごとのエンコード戦略に従って設計行列を組み立てる変換器。
// カテゴリ列ごとに独立したエンコーダを1つずつ保持し、列間で状態を共有
// しないため、学習は列方向に並列化される
type FeatureSpace struct {
	state *model.StateManager

	// Specs は列ごとのエンコード指定。Fit時のXの列数と一致しなければならない
	Specs []ColumnSpec

	// Seed は埋め込みテーブルのランダム初期化に使うシード
	Seed int64

	targetEncoders []*BinaryTargetEncoder
	embeddings     []*EmbeddingEncoder
	widths         []int
	offsets        []int
	outputDim      int
}

// NewFeatureSpace は列指定から新しいFeatureSpaceを作成する
//
// 使用例:
//
//	fs := preprocessing.NewFeatureSpace([]preprocessing.ColumnSpec{
//	    {Name: "age", Strategy: preprocessing.NumericPassthrough},
//	    {Name: "class_of_worker", Strategy: preprocessing.TargetEncoding},
//	})
//	err := fs.Fit(X, y)
//	design, err := fs.Transform(X)
func NewFeatureSpace(specs []ColumnSpec) *FeatureSpace {
	return &FeatureSpace{
		state: model.NewStateManager(),
		Specs: specs,
	}
}

// WithSeed は埋め込み初期化のシードを設定する
func (f *FeatureSpace) WithSeed(seed int64) *FeatureSpace {
	f.Seed = seed
	return f
}

// IsFitted はFeatureSpaceが学習済みかどうかを返す
func (f *FeatureSpace) IsFitted() bool {
	return f.state.IsFitted()
}

// Fit は各列のエンコーダを学習する。列ごとのエンコーダは互いに独立している
// ため、列方向に並列実行される
//
// パラメータ:
//   - X: 特徴量行列 (n_samples × n_columns)。カテゴリ列は既にインデックス化
//     されていること（StringLookup.Transformの出力）
//   - y: 二値ラベル列 (n_samples × 1)
//
// 戻り値:
//   - error: いずれかの列の学習に失敗した場合のエラー
func (f *FeatureSpace) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "FeatureSpace.Fit")

	start := time.Now()
	logger := log.GetLoggerWithName("preprocessing.feature_space")

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("FeatureSpace.Fit", "empty data", errors.ErrEmptyData)
	}
	if len(f.Specs) == 0 {
		return errors.NewModelError("FeatureSpace.Fit", "no column specs", errors.ErrEmptyData)
	}
	if c != len(f.Specs) {
		return errors.NewDimensionError("FeatureSpace.Fit", len(f.Specs), c, 1)
	}

	logger.Info("Starting feature space fit",
		log.ModelNameKey, "FeatureSpace",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, r,
		log.FeaturesKey, c,
	)

	targetEncoders := make([]*BinaryTargetEncoder, c)
	embeddings := make([]*EmbeddingEncoder, c)

	fitErr := parallel.ParallelizeWithErrors(c, func(startCol, endCol int) error {
		for j := startCol; j < endCol; j++ {
			spec := f.Specs[j]
			switch spec.Strategy {
			case NumericPassthrough, RawIndex:
				// No fitting state for passthrough columns.
			case TargetEncoding:
				enc := NewBinaryTargetEncoder()
				if spec.VocabularySize > 0 {
					enc.WithVocabularySize(spec.VocabularySize)
				}
				if err := enc.Fit(columnOf(X, j), y); err != nil {
					return errors.Wrapf(err, "column %q", spec.Name)
				}
				targetEncoders[j] = enc
			case Embedding:
				vocabSize := spec.VocabularySize
				if vocabSize <= 0 {
					inferred, err := inferVocabularySize(X, j, spec.Name)
					if err != nil {
						return err
					}
					vocabSize = inferred
				}
				enc := NewEmbeddingEncoder(vocabSize, 0)
				if err := enc.Init(f.Seed + int64(j)); err != nil {
					return errors.Wrapf(err, "column %q", spec.Name)
				}
				embeddings[j] = enc
			default:
				return errors.NewValidationError("strategy",
					fmt.Sprintf("unknown strategy for column %q", spec.Name), int(spec.Strategy))
			}
		}
		return nil
	})
	if fitErr != nil {
		return fitErr
	}

	f.targetEncoders = targetEncoders
	f.embeddings = embeddings
	f.rebuildLayout()
	f.state.SetDimensions(c, r)
	f.state.SetFitted()

	logger.Info("Feature space fit completed",
		log.ModelNameKey, "FeatureSpace",
		log.OperationKey, log.OperationFit,
		log.FeaturesKey, c,
		"output_dim", f.outputDim,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	return nil
}

// rebuildLayout は列ごとの出力幅とオフセットを再計算する
func (f *FeatureSpace) rebuildLayout() {
	f.widths = make([]int, len(f.Specs))
	f.offsets = make([]int, len(f.Specs))

	offset := 0
	for j, spec := range f.Specs {
		width := 1
		switch spec.Strategy {
		case TargetEncoding:
			width = 3
		case Embedding:
			if f.embeddings[j] != nil {
				width = f.embeddings[j].Dim
			}
		}
		f.widths[j] = width
		f.offsets[j] = offset
		offset += width
	}
	f.outputDim = offset
}

// Transform は各列をエンコードして1つの設計行列に連結する
//
// パラメータ:
//   - X: 特徴量行列 (n_samples × n_columns)
//
// 戻り値:
//   - mat.Matrix: 設計行列 (n_samples × OutputDim())
//   - error: 未学習の場合はNotFittedError、列数不一致はDimensionError
func (f *FeatureSpace) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !f.IsFitted() {
		return nil, errors.NewNotFittedError("FeatureSpace", "Transform")
	}

	r, c := X.Dims()
	if c != len(f.Specs) {
		return nil, errors.NewDimensionError("FeatureSpace.Transform", len(f.Specs), c, 1)
	}

	result := mat.NewDense(r, f.outputDim, nil)

	err := parallel.ParallelizeWithErrors(c, func(startCol, endCol int) error {
		for j := startCol; j < endCol; j++ {
			spec := f.Specs[j]
			offset := f.offsets[j]

			switch spec.Strategy {
			case NumericPassthrough, RawIndex:
				for i := 0; i < r; i++ {
					result.Set(i, offset, X.At(i, j))
				}
			case TargetEncoding:
				encoded, err := f.targetEncoders[j].Transform(columnOf(X, j))
				if err != nil {
					return errors.Wrapf(err, "column %q", spec.Name)
				}
				copyBlock(result, encoded, offset)
			case Embedding:
				encoded, err := f.embeddings[j].Transform(columnOf(X, j))
				if err != nil {
					return errors.Wrapf(err, "column %q", spec.Name)
				}
				copyBlock(result, encoded, offset)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// FitTransform は学習と変換を同時に実行する
func (f *FeatureSpace) FitTransform(X, y mat.Matrix) (mat.Matrix, error) {
	if err := f.Fit(X, y); err != nil {
		return nil, err
	}
	return f.Transform(X)
}

// SetEmbeddingWeights は指定列の埋め込みテーブルを学習済みの重みで置き換える
// 列はEmbedding戦略で学習済みでなければならない
func (f *FeatureSpace) SetEmbeddingWeights(col int, W *mat.Dense) error {
	if !f.IsFitted() {
		return errors.NewNotFittedError("FeatureSpace", "SetEmbeddingWeights")
	}
	if col < 0 || col >= len(f.Specs) {
		return errors.NewOutOfRangeError("FeatureSpace.SetEmbeddingWeights", col, len(f.Specs))
	}
	if f.embeddings[col] == nil {
		return errors.NewValueError("FeatureSpace.SetEmbeddingWeights",
			fmt.Sprintf("column %q does not use the embedding strategy", f.Specs[col].Name))
	}
	if err := f.embeddings[col].SetWeights(W); err != nil {
		return errors.Wrapf(err, "column %q", f.Specs[col].Name)
	}
	f.rebuildLayout()
	return nil
}

// TargetEncoderAt は指定列のBinaryTargetEncoderを返す（検査用）
// 列がTargetEncoding戦略でない場合はnil
func (f *FeatureSpace) TargetEncoderAt(col int) *BinaryTargetEncoder {
	if col < 0 || col >= len(f.targetEncoders) {
		return nil
	}
	return f.targetEncoders[col]
}

// EmbeddingAt は指定列のEmbeddingEncoderを返す(検査用)
// 列がEmbedding戦略でない場合はnil
func (f *FeatureSpace) EmbeddingAt(col int) *EmbeddingEncoder {
	if col < 0 || col >= len(f.embeddings) {
		return nil
	}
	return f.embeddings[col]
}

// OutputDim は設計行列の列数を返す
func (f *FeatureSpace) OutputDim() int {
	return f.outputDim
}

// Reset は全列のエンコーダを破棄して未学習状態に戻す
func (f *FeatureSpace) Reset() {
	f.targetEncoders = nil
	f.embeddings = nil
	f.widths = nil
	f.offsets = nil
	f.outputDim = 0
	f.state.Reset()
}

// String はFeatureSpaceの文字列表現を返す
func (f *FeatureSpace) String() string {
	if !f.IsFitted() {
		return fmt.Sprintf("FeatureSpace(columns=%d, unfitted)", len(f.Specs))
	}
	return fmt.Sprintf("FeatureSpace(columns=%d, output_dim=%d)", len(f.Specs), f.outputDim)
}

// columnOf はXのj列目を n×1 行列として取り出す
func columnOf(X mat.Matrix, j int) *mat.Dense {
	r, _ := X.Dims()
	col := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		col.Set(i, 0, X.At(i, j))
	}
	return col
}

// copyBlock はencodedの全列をresultのoffset列以降にコピーする
func copyBlock(result *mat.Dense, encoded mat.Matrix, offset int) {
	r, c := encoded.Dims()
	for i := 0; i < r; i++ {
		for k := 0; k < c; k++ {
			result.Set(i, offset+k, encoded.At(i, k))
		}
	}
}

// inferVocabularySize はj列目の最大インデックス+1を語彙サイズとして推定する
func inferVocabularySize(X mat.Matrix, j int, name string) (int, error) {
	r, _ := X.Dims()
	maxIndex := -1
	for i := 0; i < r; i++ {
		v := X.At(i, j)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, errors.NewValueError("FeatureSpace.Fit",
				fmt.Sprintf("column %q contains NaN or Inf at row %d", name, i))
		}
		if v != math.Trunc(v) {
			return 0, errors.NewValueError("FeatureSpace.Fit",
				fmt.Sprintf("column %q index at row %d is not an integer: %g", name, i, v))
		}
		idx := int(v)
		if idx < 0 {
			return 0, errors.NewOutOfRangeError("FeatureSpace.Fit", idx, maxIndex+1)
		}
		if idx > maxIndex {
			maxIndex = idx
		}
	}
	return maxIndex + 1, nil
}

package preprocessing

import (
	"fmt"
	"sort"

	"github.com/YuminosukeSato/tabenc/core/model"
	"github.com/YuminosukeSato/tabenc/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// StringLookup はカテゴリ値の文字列を密な非負整数インデックスに変換する
// 語彙テーブル。語彙はソート済み・重複なしで構築され、インデックスは
// ソート順の位置に一致する。未知の値の変換はエラーになる（OOVトークンなし）
type StringLookup struct {
	model.BaseEstimator

	vocabulary []string
	index      map[string]int
}

// NewStringLookup は未学習のStringLookupを作成する
//
// 使用例:
//
//	lookup := preprocessing.NewStringLookup()
//	err := lookup.Fit([]string{" Private", " Federal government", " Private"})
//	idx, err := lookup.Lookup(" Private")
func NewStringLookup() *StringLookup {
	return &StringLookup{}
}

// NewStringLookupFromVocabulary は既知の語彙から学習済みのStringLookupを作成する
// 語彙はソート・重複排除されたうえで取り込まれる
func NewStringLookupFromVocabulary(vocabulary []string) *StringLookup {
	l := NewStringLookup()
	l.setVocabulary(vocabulary)
	return l
}

// Fit は値の列からソート済み・重複なしの語彙を構築する
//
// パラメータ:
//   - values: カテゴリ値の列（重複可）
//
// 戻り値:
//   - error: 空入力の場合のエラー
func (l *StringLookup) Fit(values []string) error {
	if len(values) == 0 {
		return errors.NewModelError("StringLookup.Fit", "empty data", errors.ErrEmptyData)
	}
	l.setVocabulary(values)
	return nil
}

func (l *StringLookup) setVocabulary(values []string) {
	seen := make(map[string]bool, len(values))
	vocabulary := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			vocabulary = append(vocabulary, v)
		}
	}
	sort.Strings(vocabulary)

	index := make(map[string]int, len(vocabulary))
	for i, v := range vocabulary {
		index[v] = i
	}

	l.vocabulary = vocabulary
	l.index = index
	l.SetFitted()
}

// Lookup は値に対応するインデックスを返す。未知の値はエラーになる
func (l *StringLookup) Lookup(value string) (int, error) {
	if !l.IsFitted() {
		return 0, errors.NewNotFittedError("StringLookup", "Lookup")
	}
	idx, ok := l.index[value]
	if !ok {
		return 0, errors.NewValueError("StringLookup.Lookup",
			fmt.Sprintf("value %q is not in the vocabulary", value))
	}
	return idx, nil
}

// Value はインデックスに対応する値を返す（Lookupの逆引き）
func (l *StringLookup) Value(index int) (string, error) {
	if !l.IsFitted() {
		return "", errors.NewNotFittedError("StringLookup", "Value")
	}
	if index < 0 || index >= len(l.vocabulary) {
		return "", errors.NewOutOfRangeError("StringLookup.Value", index, len(l.vocabulary))
	}
	return l.vocabulary[index], nil
}

// Transform は値の列をインデックスの列（n×1 行列）に変換する
// インデックス列はそのままBinaryTargetEncoderやEmbeddingEncoderの入力になる
func (l *StringLookup) Transform(values []string) (*mat.Dense, error) {
	if !l.IsFitted() {
		return nil, errors.NewNotFittedError("StringLookup", "Transform")
	}

	result := mat.NewDense(len(values), 1, nil)
	for i, v := range values {
		idx, ok := l.index[v]
		if !ok {
			return nil, errors.NewValueError("StringLookup.Transform",
				fmt.Sprintf("value %q at row %d is not in the vocabulary", v, i))
		}
		result.Set(i, 0, float64(idx))
	}
	return result, nil
}

// FitTransform は語彙の構築と変換を同時に実行する
func (l *StringLookup) FitTransform(values []string) (*mat.Dense, error) {
	if err := l.Fit(values); err != nil {
		return nil, err
	}
	return l.Transform(values)
}

// VocabularySize は語彙のサイズを返す
func (l *StringLookup) VocabularySize() int {
	return len(l.vocabulary)
}

// Vocabulary はソート済みの語彙のコピーを返す
func (l *StringLookup) Vocabulary() []string {
	out := make([]string, len(l.vocabulary))
	copy(out, l.vocabulary)
	return out
}

// Reset は語彙を破棄して未学習状態に戻す
func (l *StringLookup) Reset() {
	l.vocabulary = nil
	l.index = nil
	l.BaseEstimator.Reset()
}

// String はStringLookupの文字列表現を返す
func (l *StringLookup) String() string {
	if !l.IsFitted() {
		return "StringLookup(unfitted)"
	}
	return fmt.Sprintf("StringLookup(vocabulary_size=%d)", len(l.vocabulary))
}

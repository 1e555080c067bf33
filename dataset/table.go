package dataset

import (
	"fmt"
	"math/rand"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabenc/pkg/errors"
)

// RowError は1行分の取り込みエラーを表す。
// 不正な行は取り込みを中断せずスキップされ、エラーとして収集される
type RowError struct {
	// Line はデータ部における1始まりの行番号（ヘッダー行は含まない）
	Line int
	// Message はエラー内容
	Message string
}

// Error はerrorインターフェースを実装する
func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Table は文字列セルの列指向インメモリテーブル
//
// すべてのセルは文字列として保持し、型付きアクセサ（NumericColumn、Target）が
// 参照時に変換を行う。構築時にNumeric/Weight列の数値変換可能性と
// ターゲットラベルの妥当性を検証し、不正な行はRowErrorとして収集してスキップする
type Table struct {
	schema *Schema
	cols   [][]string
}

// NewTable はスキーマと行レコードからテーブルを構築する
//
// 各レコードはスキーマの列数と一致しなければならない。列数不一致、
// Numeric/Weight列の数値変換失敗、未知のターゲットラベルを含む行は
// スキップされ、RowErrorとして返される
func NewTable(schema *Schema, records [][]string) (*Table, []RowError, error) {
	if schema == nil {
		return nil, nil, errors.NewValueError("NewTable", "nil schema")
	}

	numCols := schema.NumColumns()

	cols := make([][]string, numCols)
	for i := range cols {
		cols[i] = make([]string, 0, len(records))
	}

	var rowErrs []RowError
	for line, record := range records {
		if len(record) != numCols {
			rowErrs = append(rowErrs, RowError{
				Line:    line + 1,
				Message: fmt.Sprintf("expected %d fields, got %d", numCols, len(record)),
			})
			continue
		}

		if msg := validateRecord(schema, record); msg != "" {
			rowErrs = append(rowErrs, RowError{Line: line + 1, Message: msg})
			continue
		}

		for i, cell := range record {
			cols[i] = append(cols[i], cell)
		}
	}

	return &Table{schema: schema, cols: cols}, rowErrs, nil
}

func validateRecord(schema *Schema, record []string) string {
	for i, cell := range record {
		switch schema.Roles[i] {
		case Numeric, Weight:
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				return fmt.Sprintf("error parsing feature %s: %v", schema.Columns[i], err)
			}
		case Target:
			if labelIndex(schema.TargetLabels, cell) < 0 {
				return fmt.Sprintf("unknown target label %q", cell)
			}
		}
	}
	return ""
}

func labelIndex(labels []string, value string) int {
	for i, label := range labels {
		if label == value {
			return i
		}
	}
	return -1
}

// Len は行数を返す
func (t *Table) Len() int {
	if len(t.cols) == 0 {
		return 0
	}
	return len(t.cols[0])
}

// Schema はテーブルのスキーマを返す
func (t *Table) Schema() *Schema {
	return t.schema
}

// Column は指定した列の生の文字列値を返す
func (t *Table) Column(name string) ([]string, error) {
	idx, err := t.schema.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	return t.cols[idx], nil
}

// NumericColumn は指定した列をfloat64ベクトルとして返す
//
// 対象はNumericまたはWeight役割の列に限る
func (t *Table) NumericColumn(name string) (*mat.VecDense, error) {
	idx, err := t.schema.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	role := t.schema.Roles[idx]
	if role != Numeric && role != Weight {
		return nil, errors.NewValueError("NumericColumn", "column "+name+" is "+role.String()+", not numeric")
	}

	n := t.Len()
	if n == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "NumericColumn")
	}
	vec := mat.NewVecDense(n, nil)
	for i, cell := range t.cols[idx] {
		value, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "NumericColumn: error parsing feature %s", name)
		}
		vec.SetVec(i, value)
	}
	return vec, nil
}

// Target はターゲット列を0/1のラベルベクトルとして返す
//
// ラベル値はスキーマのTargetLabels内での位置になる
func (t *Table) Target() (*mat.VecDense, error) {
	n := t.Len()
	if n == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "Target")
	}

	targetIdx := t.schema.TargetIndex()
	vec := mat.NewVecDense(n, nil)
	for i, cell := range t.cols[targetIdx] {
		idx := labelIndex(t.schema.TargetLabels, cell)
		if idx < 0 {
			return nil, errors.NewValueError("Target", fmt.Sprintf("unknown target label %q", cell))
		}
		vec.SetVec(i, float64(idx))
	}
	return vec, nil
}

// Split はテーブルをシャッフルして2つに分割する
//
// パラメータ:
//   - ratio: 最初のテーブルに入れる行の割合（0と1の間）
//   - seed: シャッフルの乱数シード
func (t *Table) Split(ratio float64, seed int64) (*Table, *Table, error) {
	if ratio <= 0 || ratio >= 1 {
		return nil, nil, errors.NewValidationError("ratio", "must be between 0 and 1 exclusive", ratio)
	}

	n := t.Len()
	if n < 2 {
		return nil, nil, errors.NewValueError("Split", "need at least 2 rows to split")
	}

	rng := rand.New(rand.NewSource(seed))
	indices := rng.Perm(n)
	nFirst := int(float64(n) * ratio)
	if nFirst == 0 {
		nFirst = 1
	}
	if nFirst == n {
		nFirst = n - 1
	}

	return t.selectRows(indices[:nFirst]), t.selectRows(indices[nFirst:]), nil
}

func (t *Table) selectRows(indices []int) *Table {
	cols := make([][]string, len(t.cols))
	for c := range t.cols {
		cols[c] = make([]string, len(indices))
		for i, row := range indices {
			cols[c][i] = t.cols[c][row]
		}
	}
	return &Table{schema: t.schema, cols: cols}
}

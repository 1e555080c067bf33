// Package dataset は表形式データの読み込みと列メタデータ管理を提供する。
// CSVのトークン化は標準のencoding/csvに委譲し、このパッケージは
// 分割済みレコードを型付きのインメモリテーブルへ対応付けるだけである。
package dataset

import (
	"github.com/YuminosukeSato/tabenc/pkg/errors"
)

// ColumnRole は列の役割を表す
type ColumnRole int

const (
	// Numeric は数値特徴量の列
	Numeric ColumnRole = iota
	// Categorical はカテゴリカル特徴量の列
	Categorical
	// Target は二値ターゲットラベルの列
	Target
	// Weight はサンプルウェイトの列（特徴量からは除外される）
	Weight
	// Ignored は無視される列
	Ignored
)

// String はColumnRoleの文字列表現を返す
func (r ColumnRole) String() string {
	switch r {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	case Target:
		return "target"
	case Weight:
		return "weight"
	case Ignored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Schema はテーブルの列名・役割・ターゲットラベルを保持する
type Schema struct {
	// Columns はヘッダー順の列名
	Columns []string
	// Roles は各列の役割（Columnsと同じ順序）
	Roles []ColumnRole
	// TargetLabels はターゲット列のラベル文字列。
	// ラベルのインデックスがそのままクラス値になる（TargetLabels[0] -> 0, TargetLabels[1] -> 1）
	TargetLabels []string
}

// NewSchema は列名・役割・ターゲットラベルからスキーマを構築する
//
// 列名と役割は同じ長さでなければならず、Target役割の列はちょうど1つ、
// ターゲットラベルはちょうど2つ（二値分類）でなければならない
func NewSchema(columns []string, roles []ColumnRole, targetLabels []string) (*Schema, error) {
	if len(columns) == 0 {
		return nil, errors.NewValueError("NewSchema", "empty column list")
	}
	if len(columns) != len(roles) {
		return nil, errors.NewDimensionError("NewSchema", len(columns), len(roles), 1)
	}

	targets := 0
	for _, role := range roles {
		if role == Target {
			targets++
		}
	}
	if targets != 1 {
		return nil, errors.NewValidationError("roles", "schema requires exactly one target column", targets)
	}
	if len(targetLabels) != 2 {
		return nil, errors.NewValidationError("targetLabels", "binary target requires exactly two labels", len(targetLabels))
	}

	return &Schema{
		Columns:      columns,
		Roles:        roles,
		TargetLabels: targetLabels,
	}, nil
}

// NumColumns は列数を返す
func (s *Schema) NumColumns() int {
	return len(s.Columns)
}

// ColumnIndex は列名に対応する列番号を返す
func (s *Schema) ColumnIndex(name string) (int, error) {
	for i, col := range s.Columns {
		if col == name {
			return i, nil
		}
	}
	return 0, errors.NewValueError("ColumnIndex", "unknown column "+name)
}

// Role は列番号に対応する役割を返す
func (s *Schema) Role(i int) (ColumnRole, error) {
	if i < 0 || i >= len(s.Roles) {
		return Ignored, errors.NewOutOfRangeError("Role", i, len(s.Roles))
	}
	return s.Roles[i], nil
}

// TargetIndex はターゲット列の列番号を返す
func (s *Schema) TargetIndex() int {
	for i, role := range s.Roles {
		if role == Target {
			return i
		}
	}
	return -1
}

// TargetName はターゲット列の列名を返す
func (s *Schema) TargetName() string {
	return s.Columns[s.TargetIndex()]
}

// NamesWithRole は指定した役割を持つ列名をヘッダー順で返す
func (s *Schema) NamesWithRole(role ColumnRole) []string {
	var names []string
	for i, r := range s.Roles {
		if r == role {
			names = append(names, s.Columns[i])
		}
	}
	return names
}

// FeatureNames は特徴量として使う列名（NumericとCategorical）をヘッダー順で返す
func (s *Schema) FeatureNames() []string {
	var names []string
	for i, r := range s.Roles {
		if r == Numeric || r == Categorical {
			names = append(names, s.Columns[i])
		}
	}
	return names
}

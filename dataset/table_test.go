package dataset

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/tabenc/pkg/errors"
)

func miniCensusSchema(t *testing.T) *Schema {
	t.Helper()
	schema, err := CensusSchema([]string{"age", "class_of_worker", "instance_weight", "income_level"})
	if err != nil {
		t.Fatalf("CensusSchema() error = %v", err)
	}
	return schema
}

func miniCensusRecords() [][]string {
	return [][]string{
		{"73", " Not in universe", "1700.09", " - 50000."},
		{"58", " Self-employed-not incorporated", "1053.55", " - 50000."},
		{"18", " Not in universe", "991.95", " - 50000."},
		{"9", " Not in universe", "1758.14", " - 50000."},
		{"10", " Not in universe", "1069.16", " - 50000."},
		{"48", " Private", "162.61", " 50000+."},
		{"42", " Private", "881.07", " 50000+."},
		{"28", " Private", "1210.18", " - 50000."},
	}
}

func TestNewTable(t *testing.T) {
	schema := miniCensusSchema(t)

	table, rowErrs, err := NewTable(schema, miniCensusRecords())
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	if len(rowErrs) != 0 {
		t.Errorf("NewTable() rowErrs = %v, want none", rowErrs)
	}
	if table.Len() != 8 {
		t.Errorf("Len() = %d, want 8", table.Len())
	}

	workers, err := table.Column("class_of_worker")
	if err != nil {
		t.Fatalf("Column() error = %v", err)
	}
	if workers[5] != " Private" {
		t.Errorf("Column()[5] = %q, want %q", workers[5], " Private")
	}

	if _, err := table.Column("not_a_column"); err == nil {
		t.Error("Column() with unknown name should return error")
	}
}

func TestNewTableRowErrors(t *testing.T) {
	schema := miniCensusSchema(t)

	records := [][]string{
		{"73", " Not in universe", "1700.09", " - 50000."},
		{"58", " Private", "1053.55"},                        // short row
		{"not-a-number", " Private", "991.95", " - 50000."},  // bad numeric
		{"42", " Private", "881.07", " over 9000"},           // unknown label
		{"28", " Private", "1210.18", " 50000+."},
	}

	table, rowErrs, err := NewTable(schema, records)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	if table.Len() != 2 {
		t.Errorf("Len() = %d, want 2 valid rows", table.Len())
	}
	if len(rowErrs) != 3 {
		t.Fatalf("rowErrs = %d, want 3", len(rowErrs))
	}

	wantLines := []int{2, 3, 4}
	for i, re := range rowErrs {
		if re.Line != wantLines[i] {
			t.Errorf("rowErrs[%d].Line = %d, want %d", i, re.Line, wantLines[i])
		}
		if re.Error() == "" {
			t.Errorf("rowErrs[%d].Error() is empty", i)
		}
	}
}

func TestTableNumericColumn(t *testing.T) {
	schema := miniCensusSchema(t)
	table, _, err := NewTable(schema, miniCensusRecords())
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}

	ages, err := table.NumericColumn("age")
	if err != nil {
		t.Fatalf("NumericColumn() error = %v", err)
	}
	if ages.Len() != 8 {
		t.Fatalf("NumericColumn().Len() = %d, want 8", ages.Len())
	}
	if ages.AtVec(0) != 73 {
		t.Errorf("NumericColumn().AtVec(0) = %v, want 73", ages.AtVec(0))
	}

	// Weight columns are numeric valued too
	weights, err := table.NumericColumn("instance_weight")
	if err != nil {
		t.Fatalf("NumericColumn(weight) error = %v", err)
	}
	if math.Abs(weights.AtVec(0)-1700.09) > 1e-9 {
		t.Errorf("NumericColumn(weight).AtVec(0) = %v, want 1700.09", weights.AtVec(0))
	}

	if _, err := table.NumericColumn("class_of_worker"); err == nil {
		t.Error("NumericColumn() on categorical column should return error")
	}

	empty, _, err := NewTable(schema, nil)
	if err != nil {
		t.Fatalf("NewTable(empty) error = %v", err)
	}
	if _, err := empty.NumericColumn("age"); !errors.Is(err, errors.ErrEmptyData) {
		t.Errorf("NumericColumn() on empty table error = %v, want ErrEmptyData", err)
	}
}

func TestTableTarget(t *testing.T) {
	schema := miniCensusSchema(t)
	table, _, err := NewTable(schema, miniCensusRecords())
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}

	y, err := table.Target()
	if err != nil {
		t.Fatalf("Target() error = %v", err)
	}

	want := []float64{0, 0, 0, 0, 0, 1, 1, 0}
	for i, w := range want {
		if y.AtVec(i) != w {
			t.Errorf("Target().AtVec(%d) = %v, want %v", i, y.AtVec(i), w)
		}
	}
}

func TestTableSplit(t *testing.T) {
	schema := miniCensusSchema(t)
	table, _, err := NewTable(schema, miniCensusRecords())
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}

	train, valid, err := table.Split(0.75, 42)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if train.Len() != 6 {
		t.Errorf("train.Len() = %d, want 6", train.Len())
	}
	if valid.Len() != 2 {
		t.Errorf("valid.Len() = %d, want 2", valid.Len())
	}

	// Every original row lands in exactly one side
	seen := map[string]int{}
	for _, side := range []*Table{train, valid} {
		ages, err := side.Column("age")
		if err != nil {
			t.Fatalf("Column() error = %v", err)
		}
		for _, age := range ages {
			seen[age]++
		}
	}
	if len(seen) != 8 {
		t.Errorf("split covers %d distinct rows, want 8", len(seen))
	}
	for age, count := range seen {
		if count != 1 {
			t.Errorf("row with age %s appears %d times, want 1", age, count)
		}
	}

	// Same seed reproduces the same split
	train2, _, err := table.Split(0.75, 42)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	ages1, _ := train.Column("age")
	ages2, _ := train2.Column("age")
	for i := range ages1 {
		if ages1[i] != ages2[i] {
			t.Errorf("split with same seed differs at row %d: %s vs %s", i, ages1[i], ages2[i])
		}
	}

	if _, _, err := table.Split(1.5, 42); err == nil {
		t.Error("Split() with ratio > 1 should return error")
	}
	if _, _, err := table.Split(0, 42); err == nil {
		t.Error("Split() with ratio 0 should return error")
	}
}

func TestSchemaAccessors(t *testing.T) {
	schema := miniCensusSchema(t)

	if schema.TargetIndex() != 3 {
		t.Errorf("TargetIndex() = %d, want 3", schema.TargetIndex())
	}
	if schema.TargetName() != "income_level" {
		t.Errorf("TargetName() = %q, want income_level", schema.TargetName())
	}

	features := schema.FeatureNames()
	wantFeatures := []string{"age", "class_of_worker"}
	if len(features) != len(wantFeatures) {
		t.Fatalf("FeatureNames() = %v, want %v", features, wantFeatures)
	}
	for i := range wantFeatures {
		if features[i] != wantFeatures[i] {
			t.Errorf("FeatureNames()[%d] = %q, want %q", i, features[i], wantFeatures[i])
		}
	}

	categorical := schema.NamesWithRole(Categorical)
	if len(categorical) != 1 || categorical[0] != "class_of_worker" {
		t.Errorf("NamesWithRole(Categorical) = %v, want [class_of_worker]", categorical)
	}

	idx, err := schema.ColumnIndex("instance_weight")
	if err != nil || idx != 2 {
		t.Errorf("ColumnIndex(instance_weight) = %d, %v, want 2, nil", idx, err)
	}

	role, err := schema.Role(2)
	if err != nil || role != Weight {
		t.Errorf("Role(2) = %v, %v, want Weight, nil", role, err)
	}
	if _, err := schema.Role(99); err == nil {
		t.Error("Role(99) should return error")
	}
}

func TestNewSchemaValidation(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		roles   []ColumnRole
		labels  []string
	}{
		{
			name:    "empty columns",
			columns: nil,
			roles:   nil,
			labels:  []string{"a", "b"},
		},
		{
			name:    "length mismatch",
			columns: []string{"a", "b"},
			roles:   []ColumnRole{Numeric},
			labels:  []string{"x", "y"},
		},
		{
			name:    "no target",
			columns: []string{"a", "b"},
			roles:   []ColumnRole{Numeric, Categorical},
			labels:  []string{"x", "y"},
		},
		{
			name:    "two targets",
			columns: []string{"a", "b"},
			roles:   []ColumnRole{Target, Target},
			labels:  []string{"x", "y"},
		},
		{
			name:    "wrong label count",
			columns: []string{"a", "b"},
			roles:   []ColumnRole{Numeric, Target},
			labels:  []string{"x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSchema(tt.columns, tt.roles, tt.labels); err == nil {
				t.Error("NewSchema() should return error")
			}
		})
	}
}

func TestColumnRoleString(t *testing.T) {
	tests := []struct {
		role ColumnRole
		want string
	}{
		{Numeric, "numeric"},
		{Categorical, "categorical"},
		{Target, "target"},
		{Weight, "weight"},
		{Ignored, "ignored"},
		{ColumnRole(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.role.String(); got != tt.want {
			t.Errorf("ColumnRole(%d).String() = %q, want %q", tt.role, got, tt.want)
		}
	}
}

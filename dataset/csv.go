package dataset

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/YuminosukeSato/tabenc/pkg/errors"
	"github.com/YuminosukeSato/tabenc/pkg/log"
)

// ReadCSV はCSVストリームを読み込んでテーブルを構築する
//
// トークン化はencoding/csvに委譲する。先頭行がスキーマの列名と完全に
// 一致する場合はヘッダー行としてスキップするため、ヘッダー付きと
// ヘッダーなしのファイルを同じ呼び出しで扱える。
// 不正な行は取り込みを中断せずRowErrorとして収集される
func ReadCSV(r io.Reader, schema *Schema) (*Table, []RowError, error) {
	if schema == nil {
		return nil, nil, errors.NewValueError("ReadCSV", "nil schema")
	}

	logger := log.GetLoggerWithName("dataset.csv")

	reader := csv.NewReader(r)
	reader.Comma = ','
	// Field counts are validated per row so that a bad line becomes a
	// RowError instead of aborting the whole read.
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(err, "ReadCSV: error reading data")
	}
	if len(records) == 0 {
		return nil, nil, errors.Wrap(errors.ErrEmptyData, "ReadCSV")
	}

	if isHeaderRow(records[0], schema) {
		records = records[1:]
	}

	table, rowErrs, err := NewTable(schema, records)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("CSV load complete",
		log.SamplesKey, table.Len(),
		log.FeaturesKey, len(schema.FeatureNames()),
		"rows_skipped", len(rowErrs),
	)
	if len(rowErrs) > 0 {
		logger.Warn("some rows were skipped during CSV load",
			"rows_skipped", len(rowErrs),
			"first_error", rowErrs[0].Error(),
		)
	}

	return table, rowErrs, nil
}

// ReadCSVFile はCSVファイルを読み込んでテーブルを構築する
func ReadCSVFile(path string, schema *Schema) (*Table, []RowError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "ReadCSVFile: error opening file")
	}
	defer func() {
		_ = f.Close()
	}()

	return ReadCSV(f, schema)
}

func isHeaderRow(record []string, schema *Schema) bool {
	if len(record) != len(schema.Columns) {
		return false
	}
	for i, cell := range record {
		if cell != schema.Columns[i] {
			return false
		}
	}
	return true
}

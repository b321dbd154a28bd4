package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"readmission-service/models"
)

// MaxBatchRows caps one bulk upload. Each row is scored synchronously, so
// the limit keeps a single request from monopolizing the process.
const MaxBatchRows = 1000

// ParseFeatureCSV reads a bulk scoring upload: a header row that must match
// the model schema exactly (same names, same order, nothing missing or
// extra), then one numeric row per record. Any defect is rejected with the
// offending row and column before anything reaches inference.
func ParseFeatureCSV(r io.Reader) ([]models.FeatureRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var records []models.FeatureRecord
	for row := 1; ; row++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		if row > MaxBatchRows {
			return nil, fmt.Errorf("too many rows: limit is %d", MaxBatchRows)
		}

		values := make([]float64, len(fields))
		for col, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %q: %q is not numeric", row, models.FeatureNames[col], field)
			}
			values[col] = v
		}

		record, err := models.FeatureRecordFromVector(values)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("file has a header but no data rows")
	}
	return records, nil
}

func checkHeader(header []string) error {
	if len(header) != len(models.FeatureNames) {
		return fmt.Errorf("header has %d columns, want %d", len(header), len(models.FeatureNames))
	}
	for i, want := range models.FeatureNames {
		if header[i] != want {
			return fmt.Errorf("header column %d is %q, want %q", i+1, header[i], want)
		}
	}
	return nil
}

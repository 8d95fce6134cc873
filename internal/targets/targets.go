// Package targets loads the list of organization sites to crawl from a CSV or
// XLSX source of record.
package targets

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/firm-intel-crawler/internal/crawler"
)

// URLColumn is the header, matched case-insensitively, that holds target URLs.
const URLColumn = "url"

// DemoTargets stand in when the source of record is unusable.
var DemoTargets = []string{
	"https://www.mishcon.com",
	"https://www.kingsleynapley.co.uk",
}

// ErrNoURLColumn is returned when the header row has no url column.
var ErrNoURLColumn = errors.New("no url column")

// Load returns the normalized targets in path, or DemoTargets when the file
// cannot be read or yields nothing.
func Load(path string, logger *zap.Logger) []string {
	if logger == nil {
		logger = zap.NewNop()
	}
	list, err := LoadFile(path, logger)
	if err != nil {
		logger.Warn("unable to load targets, falling back to demo targets",
			zap.String("path", path), zap.Error(err))
		return append([]string(nil), DemoTargets...)
	}
	if len(list) == 0 {
		logger.Warn("target file has no usable urls, falling back to demo targets", zap.String("path", path))
		return append([]string(nil), DemoTargets...)
	}
	logger.Info("targets loaded", zap.String("path", path), zap.Int("count", len(list)))
	return list
}

// LoadFile reads path by extension: .xlsx through excelize, anything else as CSV.
func LoadFile(path string, logger *zap.Logger) ([]string, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(path)
	default:
		rows, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}
	return fromRows(rows, logger)
}

func readCSV(path string) ([][]string, error) {
	// #nosec G304 -- the targets path comes from operator config.
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open targets: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ParseCSV(f)
}

// ParseCSV reads every record from r. Ragged rows are allowed.
func ParseCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func fromRows(rows [][]string, logger *zap.Logger) ([]string, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	col := -1
	for i, h := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), URLColumn) {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, ErrNoURLColumn
	}

	seen := make(map[string]struct{}, len(rows))
	out := make([]string, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if col >= len(row) || strings.TrimSpace(row[col]) == "" {
			continue
		}
		target, err := crawler.NormalizeTarget(row[col])
		if err != nil {
			logger.Warn("skipping invalid target", zap.Int("row", n+2), zap.String("value", row[col]), zap.Error(err))
			continue
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out, nil
}

package targets_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JakeFAU/firm-intel-crawler/internal/targets"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func writeWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	for r, row := range rows {
		for c, val := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, val))
		}
	}
	path := filepath.Join(t.TempDir(), "targets.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestLoadCSV(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "targets.csv", strings.Join([]string{
		"name,URL",
		"Alpha,https://Alpha.Example.com/",
		"Beta,  https://beta.example.com  ",
		"Dup,https://alpha.example.com",
		"Bad,ftp://files.example.com",
		"Blank,",
		"Short",
	}, "\n"))

	got := targets.Load(path, nil)
	assert.Equal(t, []string{"https://alpha.example.com", "https://beta.example.com"}, got)
}

func TestLoadXLSX(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, [][]string{
		{"Url", "notes"},
		{"https://www.firm-one.co.uk", "x"},
		{"http://firm-two.com/", ""},
	})

	got, err := targets.LoadFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://www.firm-one.co.uk", "http://firm-two.com"}, got)
}

func TestLoadFallsBackToDemoTargets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.csv") }},
		{"no url column", func(t *testing.T) string { return writeFile(t, "t.csv", "name,site\nA,https://a.com\n") }},
		{"header only", func(t *testing.T) string { return writeFile(t, "t.csv", "url\n") }},
		{"empty file", func(t *testing.T) string { return writeFile(t, "t.csv", "") }},
		{"broken workbook", func(t *testing.T) string { return writeFile(t, "t.xlsx", "not a zip") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := targets.Load(tt.path(t), nil)
			assert.Equal(t, targets.DemoTargets, got)
		})
	}
}

func TestLoadFileNoURLColumn(t *testing.T) {
	t.Parallel()

	_, err := targets.LoadFile(writeFile(t, "t.csv", "site\nhttps://a.com\n"), nil)
	assert.ErrorIs(t, err, targets.ErrNoURLColumn)
}

func TestLoadDoesNotAliasDemoTargets(t *testing.T) {
	t.Parallel()

	got := targets.Load(filepath.Join(t.TempDir(), "missing.csv"), nil)
	got[0] = "mutated"
	assert.Equal(t, "https://www.mishcon.com", targets.DemoTargets[0])
}

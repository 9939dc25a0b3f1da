// Package siteload reads site data from disk: a JSON site document, CSV
// per-timestep series, and CSV heat-pump performance tables.
package siteload

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/levenlabs/go-lflag"

	"github.com/sitemix/sitemix/pkg/timeseries"
	"github.com/sitemix/sitemix/pkg/types"
)

// LoadSite reads and validates a JSON site document.
func LoadSite(path string) (*types.SiteData, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read site file: %w", err)
	}
	var site types.SiteData
	if err := json.Unmarshal(b, &site); err != nil {
		return nil, fmt.Errorf("failed to parse site file %s: %w", path, err)
	}
	if err := site.Validate(); err != nil {
		return nil, fmt.Errorf("invalid site %s: %w", path, err)
	}
	return &site, nil
}

// LoadSeries reads a CSV of named per-timestep series: a header row of
// series names, then one row per timestep. Every column must parse as a
// number in every row.
func LoadSeries(path string) (map[string]timeseries.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open series file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read series csv %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("series csv %s needs a header and at least one row", path)
	}

	header := rows[0]
	out := make(map[string]timeseries.Series, len(header))
	for _, name := range header {
		out[name] = timeseries.Zeros(len(rows) - 1)
	}
	for i, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, fmt.Errorf("series csv %s row %d has %d columns, header has %d", path, i+2, len(row), len(header))
		}
		for j, cell := range row {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("series csv %s row %d column %q: %w", path, i+2, header[j], err)
			}
			out[header[j]].Set(i, v)
		}
	}
	return out, nil
}

// LoadPerfTable reads a heat-pump performance table from a pair of CSVs with
// identical shape: a header row of send temperatures, then one row per source
// temperature with the source temperature in the first column.
func LoadPerfTable(outputPath, inputPath string, referenceKW float64) (types.PerfTable, error) {
	sendOut, sourceOut, output, err := readMatrix(outputPath)
	if err != nil {
		return types.PerfTable{}, err
	}
	sendIn, sourceIn, input, err := readMatrix(inputPath)
	if err != nil {
		return types.PerfTable{}, err
	}
	if len(sendOut) != len(sendIn) || len(sourceOut) != len(sourceIn) {
		return types.PerfTable{}, fmt.Errorf("performance tables %s and %s have different shapes", outputPath, inputPath)
	}

	table := types.PerfTable{
		SendTempsC:   sendOut,
		SourceTempsC: sourceOut,
		OutputKWH:    output,
		InputKWH:     input,
		ReferenceKW:  referenceKW,
	}
	if err := table.Validate(); err != nil {
		return types.PerfTable{}, fmt.Errorf("performance table %s: %w", outputPath, err)
	}
	return table, nil
}

func readMatrix(path string) (header, index []float64, cells [][]float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open table file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to read table csv %s: %w", path, err)
	}
	if len(rows) < 2 || len(rows[0]) < 2 {
		return nil, nil, nil, fmt.Errorf("table csv %s needs a header row and column", path)
	}

	// the top-left cell is a label and is ignored
	for _, cell := range rows[0][1:] {
		v, perr := strconv.ParseFloat(cell, 64)
		if perr != nil {
			return nil, nil, nil, fmt.Errorf("table csv %s header: %w", path, perr)
		}
		header = append(header, v)
	}
	for i, row := range rows[1:] {
		if len(row) != len(rows[0]) {
			return nil, nil, nil, fmt.Errorf("table csv %s row %d has %d columns, header has %d", path, i+2, len(row), len(rows[0]))
		}
		v, perr := strconv.ParseFloat(row[0], 64)
		if perr != nil {
			return nil, nil, nil, fmt.Errorf("table csv %s row %d index: %w", path, i+2, perr)
		}
		index = append(index, v)

		vals := make([]float64, 0, len(row)-1)
		for j, cell := range row[1:] {
			cv, perr := strconv.ParseFloat(cell, 64)
			if perr != nil {
				return nil, nil, nil, fmt.Errorf("table csv %s row %d column %d: %w", path, i+2, j+2, perr)
			}
			vals = append(vals, cv)
		}
		cells = append(cells, vals)
	}
	return header, index, cells, nil
}

// Configured sets up the site loaded from the flagged path.
func Configured() *types.SiteData {
	path := lflag.String("site-file", "", "Path to the JSON site document")

	site := &types.SiteData{}

	lflag.Do(func() {
		if *path == "" {
			panic("site-file is required")
		}
		loaded, err := LoadSite(*path)
		if err != nil {
			panic(fmt.Sprintf("failed to load site: %v", err))
		}
		*site = *loaded
	})

	return site
}

package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wonny/termpremium/internal/backtest"
	"github.com/wonny/termpremium/internal/contracts"
)

// DefaultFileName is the report file written into the report directory
const DefaultFileName = "term_premium_strategy_returns.csv"

// Header returns the report header for topN selected countries:
// year, strategy_return, strategy_index, country_1..country_N, benchmark_return, benchmark_index
func Header(topN int) []string {
	header := []string{"year", "strategy_return", "strategy_index"}
	for i := 1; i <= topN; i++ {
		header = append(header, fmt.Sprintf("country_%d", i))
	}
	return append(header, "benchmark_return", "benchmark_index")
}

// WriteCSV writes combined rows in ascending year order with exactly topN country columns
func WriteCSV(w io.Writer, rows []contracts.CombinedRow, topN int) error {
	if topN <= 0 {
		return &contracts.ConfigurationError{Field: "top_n", Message: "must be > 0"}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header(topN)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, row := range rows {
		if len(row.SelectedCountries) != topN {
			return fmt.Errorf("year %d: %d selected countries, want %d", row.Year, len(row.SelectedCountries), topN)
		}

		record := make([]string, 0, topN+5)
		record = append(record,
			strconv.Itoa(row.Year),
			formatFloat(row.StrategyReturn),
			formatFloat(row.StrategyIndex),
		)
		record = append(record, row.SelectedCountries...)
		record = append(record,
			formatFloat(row.BenchmarkReturn),
			formatFloat(row.BenchmarkIndex),
		)

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", row.Year, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the report to path atomically: a temp file in the same
// directory is renamed over path, so a failed run leaves no partial file.
func SaveCSV(path string, r *contracts.Report) error {
	return writeAtomic(path, func(w io.Writer) error {
		return WriteCSV(w, r.Combined, r.Params.TopN)
	})
}

// WriteCountryIndicesCSV writes per-country excess-return indices
func WriteCountryIndicesCSV(w io.Writer, points []backtest.CountryIndexPoint) error {
	cw := csv.NewWriter(w)
	header := []string{
		"country", "year", "bond_excess_return", "fx_return", "bond_excess_return_usd",
		"term_premium_index_local", "term_premium_index_usd",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, p := range points {
		record := []string{
			p.Country,
			strconv.Itoa(p.Year),
			formatOptional(p.ExcessLocal),
			formatOptional(p.FXReturn),
			formatOptional(p.ExcessUSD),
			formatFloat(p.IndexLocal),
			formatFloat(p.IndexUSD),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write %s %d: %w", p.Country, p.Year, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveCountryIndicesCSV writes country indices to path atomically
func SaveCountryIndicesCSV(path string, points []backtest.CountryIndexPoint) error {
	return writeAtomic(path, func(w io.Writer) error {
		return WriteCountryIndicesCSV(w, points)
	})
}

func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename report: %w", err)
	}

	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if !contracts.Present(v) {
		return ""
	}
	return formatFloat(*v)
}

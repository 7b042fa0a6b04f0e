package panel

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/wonny/termpremium/internal/contracts"
)

// Column names of the cleaned panel file
const (
	ColYear        = "year"
	ColCountry     = "country"
	ColTermPremium = "term_premium"
	ColBondTR      = "bond_tr"
	ColBondRate    = "bond_rate"
	ColBillRate    = "bill_rate"
	ColFXReturn    = "fx_return"
	ColEqTR        = "eq_tr"
)

// Columns is the header written by WriteCSV
var Columns = []string{
	ColYear, ColCountry, ColTermPremium, ColBondTR, ColBondRate, ColBillRate, ColFXReturn, ColEqTR,
}

// ErrDuplicateRecord is returned when a (country, year) pair appears twice
var ErrDuplicateRecord = errors.New("duplicate country-year record")

// FileSource loads the cleaned panel from a CSV file
// ⭐ SSOT: 파일 기반 패널 입력
type FileSource struct {
	Path string
}

// NewFileSource creates a new file source
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Load implements contracts.PanelSource
func (s *FileSource) Load(ctx context.Context) ([]contracts.PanelRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open panel %s: %w", s.Path, err)
	}
	defer f.Close()

	records, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read panel %s: %w", s.Path, err)
	}
	return records, nil
}

// ReadCSV parses a cleaned panel.
// Only year and country are mandatory columns; absent numeric columns are missing for every row.
// Records are returned sorted by (country, year), which is the order ranking ties fall back to.
func ReadCSV(r io.Reader) ([]contracts.PanelRecord, error) {
	rows, header, err := readTable(r)
	if err != nil {
		return nil, err
	}

	idx, err := columnIndex(header, ColYear, ColCountry)
	if err != nil {
		return nil, err
	}

	records := make([]contracts.PanelRecord, 0, len(rows))
	for i, row := range rows {
		line := i + 2 // header is line 1

		year, err := parseYear(field(row, idx, ColYear))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		country := strings.TrimSpace(field(row, idx, ColCountry))
		if country == "" {
			return nil, fmt.Errorf("line %d: empty country", line)
		}

		rec := contracts.PanelRecord{Year: year, Country: country}
		targets := []struct {
			col string
			dst **float64
		}{
			{ColTermPremium, &rec.TermPremium},
			{ColBondTR, &rec.BondTR},
			{ColBondRate, &rec.BondRate},
			{ColBillRate, &rec.BillRate},
			{ColFXReturn, &rec.FXReturn},
			{ColEqTR, &rec.EqTR},
		}
		for _, t := range targets {
			v, err := parseOptional(field(row, idx, t.col))
			if err != nil {
				return nil, fmt.Errorf("line %d: column %s: %w", line, t.col, err)
			}
			*t.dst = v
		}

		records = append(records, rec)
	}

	Sort(records)
	if err := CheckUnique(records); err != nil {
		return nil, err
	}

	return records, nil
}

// WriteCSV writes records with the Columns header; missing values are empty cells
func WriteCSV(w io.Writer, records []contracts.PanelRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			strconv.Itoa(rec.Year),
			rec.Country,
			formatOptional(rec.TermPremium),
			formatOptional(rec.BondTR),
			formatOptional(rec.BondRate),
			formatOptional(rec.BillRate),
			formatOptional(rec.FXReturn),
			formatOptional(rec.EqTR),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Sort orders records by (country, year)
func Sort(records []contracts.PanelRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Country != records[j].Country {
			return records[i].Country < records[j].Country
		}
		return records[i].Year < records[j].Year
	})
}

// CheckUnique rejects repeated (country, year) pairs
func CheckUnique(records []contracts.PanelRecord) error {
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		key := fmt.Sprintf("%s/%d", rec.Country, rec.Year)
		if _, ok := seen[key]; ok {
			return fmt.Errorf("%w: %s %d", ErrDuplicateRecord, rec.Country, rec.Year)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// readTable reads every row and returns the lower-cased header separately
func readTable(r io.Reader) ([][]string, []string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("empty panel: missing header")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}
	// BOM written by spreadsheet exports
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	return rows, header, nil
}

func columnIndex(header []string, required ...string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}
	return idx, nil
}

func field(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func parseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	year, err := strconv.Atoi(s)
	if err != nil {
		// "1950.0" from float-typed exports
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, fmt.Errorf("invalid year %q", s)
		}
		year = int(f)
	}
	return year, nil
}

// parseOptional maps empty / NA / NaN cells to nil
func parseOptional(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "na", "nan", "null", "none", ".":
		return nil, nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return contracts.Float(v), nil
}

func formatOptional(v *float64) string {
	if !contracts.Present(v) {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

// Fingerprint returns a sha256 hex digest of the records in canonical CSV form.
// Two panels with the same fingerprint produce the same backtest.
func Fingerprint(records []contracts.PanelRecord) string {
	h := sha256.New()
	// hash.Hash writes never fail
	_ = WriteCSV(h, records)
	return hex.EncodeToString(h.Sum(nil))
}

// Package royalties turns store royalty reports into catalogue records and statements.
package royalties

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/tunedesk/internal/catalog"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	// ErrMissingColumn indicates a report without one of the required columns.
	ErrMissingColumn = errors.New("royalties: required column missing")
	// ErrInvalidRow indicates a row that failed validation.
	ErrInvalidRow = errors.New("royalties: invalid row")
	// ErrEmptyReport indicates a report without a header row.
	ErrEmptyReport = errors.New("royalties: empty report")
)

const (
	columnStore  = "store"
	columnTrack  = "track"
	columnISRC   = "isrc"
	columnPeriod = "period"
	columnUnits  = "units"
	columnAmount = "amount"
)

var requiredColumns = []string{columnStore, columnTrack, columnPeriod, columnAmount}

var headerAliases = map[string]string{
	"store":            columnStore,
	"dsp":              columnStore,
	"platform":         columnStore,
	"service":          columnStore,
	"retailer":         columnStore,
	"track":            columnTrack,
	"title":            columnTrack,
	"track_title":      columnTrack,
	"song":             columnTrack,
	"isrc":             columnISRC,
	"isrc_code":        columnISRC,
	"period":           columnPeriod,
	"month":            columnPeriod,
	"sales_period":     columnPeriod,
	"reporting_period": columnPeriod,
	"units":            columnUnits,
	"quantity":         columnUnits,
	"streams":          columnUnits,
	"plays":            columnUnits,
	"amount":           columnAmount,
	"revenue":          columnAmount,
	"earnings":         columnAmount,
	"net_revenue":      columnAmount,
	"royalty":          columnAmount,
}

var periodLayouts = []string{"2006-01", "2006-01-02", "01/2006"}

var validate = validator.New(validator.WithRequiredStructEnabled())

// RowError reports a rejected row by its line number in the report.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

type row struct {
	Store  string `validate:"required,max=190"`
	Track  string `validate:"required,max=320"`
	ISRC   string `validate:"omitempty,len=12,alphanum"`
	Period string `validate:"required"`
	Units  int64  `validate:"gte=0"`
}

// ExtractConfig describes how extracted records are stamped.
type ExtractConfig struct {
	OwnerID string
	IDs     catalog.IDProvider
}

// Extract reads a header-mapped royalty report. Blank lines are skipped. Valid rows are
// returned even when others fail; the error joins one RowError per rejected row.
func Extract(reader io.Reader, cfg ExtractConfig) ([]catalog.Royalty, error) {
	ids := cfg.IDs
	if ids == nil {
		ids = catalog.NewUUIDProvider()
	}

	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	header, err := csvReader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyReport
	}
	if err != nil {
		return nil, err
	}
	columns, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var (
		records []catalog.Royalty
		errs    []error
	)
	for {
		cells, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				errs = append(errs, &RowError{Line: parseErr.Line, Err: parseErr.Err})
				continue
			}
			return nil, err
		}
		line, _ := csvReader.FieldPos(0)
		if blank(cells) {
			continue
		}
		record, err := parseRow(cells, columns)
		if err != nil {
			errs = append(errs, &RowError{Line: line, Err: err})
			continue
		}
		id, err := ids.NewID()
		if err != nil {
			return nil, err
		}
		record.ID = id
		record.OwnerID = cfg.OwnerID
		records = append(records, record)
	}
	return records, errors.Join(errs...)
}

func mapHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for index, raw := range header {
		name := normalizeHeader(raw)
		if canonical, ok := headerAliases[name]; ok {
			if _, seen := columns[canonical]; !seen {
				columns[canonical] = index
			}
		}
	}
	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}
	return columns, nil
}

func normalizeHeader(raw string) string {
	name := strings.TrimPrefix(raw, "\ufeff")
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(name)
}

func parseRow(cells []string, columns map[string]int) (catalog.Royalty, error) {
	cell := func(name string) string {
		index, ok := columns[name]
		if !ok || index >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[index])
	}

	input := row{
		Store:  cell(columnStore),
		Track:  cell(columnTrack),
		ISRC:   strings.ToUpper(strings.ReplaceAll(cell(columnISRC), "-", "")),
		Period: cell(columnPeriod),
	}
	if raw := strings.ReplaceAll(cell(columnUnits), ",", ""); raw != "" {
		units, err := decimal.NewFromString(raw)
		if err != nil || !units.IsInteger() {
			return catalog.Royalty{}, fmt.Errorf("%w: units %q", ErrInvalidRow, cell(columnUnits))
		}
		input.Units = units.IntPart()
	}
	if err := validate.Struct(input); err != nil {
		return catalog.Royalty{}, fmt.Errorf("%w: %v", ErrInvalidRow, err)
	}

	period, err := normalizePeriod(input.Period)
	if err != nil {
		return catalog.Royalty{}, err
	}
	amount, err := parseAmount(cell(columnAmount))
	if err != nil {
		return catalog.Royalty{}, err
	}

	return catalog.Royalty{
		Store:  input.Store,
		Track:  input.Track,
		ISRC:   input.ISRC,
		Period: period,
		Units:  input.Units,
		Amount: amount,
	}, nil
}

// normalizePeriod reduces a reporting period to its month, YYYY-MM.
func normalizePeriod(raw string) (string, error) {
	for _, layout := range periodLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.Format("2006-01"), nil
		}
	}
	return "", fmt.Errorf("%w: period %q", ErrInvalidRow, raw)
}

// parseAmount accepts an optional currency symbol and thousands separators.
func parseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimLeft(cleaned, "$€£")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: amount required", ErrInvalidRow)
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: amount %q", ErrInvalidRow, raw)
	}
	return amount, nil
}

func blank(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

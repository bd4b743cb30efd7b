package royalties

import (
	"cmp"
	"slices"

	"github.com/MarcoPoloResearchLab/tunedesk/internal/catalog"
	"github.com/shopspring/decimal"
)

// Line is one aggregated statement row.
type Line struct {
	Key    string          `json:"key"`
	Units  int64           `json:"units"`
	Amount decimal.Decimal `json:"amount"`
}

// Statement aggregates royalty records per store and per period.
type Statement struct {
	Stores      []Line          `json:"stores"`
	Periods     []Line          `json:"periods"`
	TotalUnits  int64           `json:"total_units"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Summarize totals records exactly. Stores are ordered by amount descending then name;
// periods chronologically.
func Summarize(records []catalog.Royalty) Statement {
	stores := make(map[string]*Line)
	periods := make(map[string]*Line)
	statement := Statement{TotalAmount: decimal.Zero}

	for _, record := range records {
		accumulate(stores, record.Store, record)
		accumulate(periods, record.Period, record)
		statement.TotalUnits += record.Units
		statement.TotalAmount = statement.TotalAmount.Add(record.Amount)
	}

	statement.Stores = flatten(stores)
	slices.SortFunc(statement.Stores, func(a, b Line) int {
		if order := b.Amount.Cmp(a.Amount); order != 0 {
			return order
		}
		return cmp.Compare(a.Key, b.Key)
	})
	statement.Periods = flatten(periods)
	slices.SortFunc(statement.Periods, func(a, b Line) int {
		return cmp.Compare(a.Key, b.Key)
	})
	return statement
}

func accumulate(lines map[string]*Line, key string, record catalog.Royalty) {
	line, ok := lines[key]
	if !ok {
		line = &Line{Key: key, Amount: decimal.Zero}
		lines[key] = line
	}
	line.Units += record.Units
	line.Amount = line.Amount.Add(record.Amount)
}

func flatten(lines map[string]*Line) []Line {
	flat := make([]Line, 0, len(lines))
	for _, line := range lines {
		flat = append(flat, *line)
	}
	return flat
}

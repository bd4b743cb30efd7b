package royalties

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/MarcoPoloResearchLab/tunedesk/internal/catalog"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

type counterIDs struct{ next int }

func (c *counterIDs) NewID() (string, error) {
	c.next++
	return fmt.Sprintf("roy-%d", c.next), nil
}

func TestExtractMapsAliasedHeaders(t *testing.T) {
	report := strings.Join([]string{
		"\ufeffDSP, Track Title ,ISRC,Sales Period,Streams,Net Revenue",
		`Spotify,Midnight Drive,US-ABC-24-00001,2026-03,"1,204",$12.3456`,
		"",
		`Apple Music,"Paper Boats, Pt. 2",usabc2400002,2026-03-31,310,4.10`,
		"",
	}, "\n")

	records, err := Extract(strings.NewReader(report), ExtractConfig{OwnerID: "artist-a", IDs: &counterIDs{}})
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.ID != "roy-1" || first.OwnerID != "artist-a" || first.Store != "Spotify" {
		t.Fatalf("unexpected first record %+v", first)
	}
	if first.ISRC != "USABC2400001" || first.Units != 1204 || !first.Amount.Equal(decimal.RequireFromString("12.3456")) {
		t.Fatalf("unexpected parsed values %+v", first)
	}
	second := records[1]
	if second.Track != "Paper Boats, Pt. 2" || second.Period != "2026-03" || second.ISRC != "USABC2400002" {
		t.Fatalf("unexpected second record %+v", second)
	}
}

func TestExtractReportsLineNumbers(t *testing.T) {
	report := strings.Join([]string{
		"store,track,period,units,amount",
		"Spotify,Song A,2026-01,10,1.00",
		",Song B,2026-01,10,1.00",
		"Deezer,Song C,last month,10,1.00",
		"",
		"Tidal,Song D,2026-01,-4,1.00",
		"Tidal,Song E,2026-01,4,abc",
		"Tidal,Song F,2026-02,3,0.75",
	}, "\n")

	records, err := Extract(strings.NewReader(report), ExtractConfig{IDs: &counterIDs{}})
	if len(records) != 2 {
		t.Fatalf("expected the two valid rows, got %d", len(records))
	}
	if !errors.Is(err, ErrInvalidRow) {
		t.Fatalf("expected invalid row error, got %v", err)
	}

	var lines []int
	for _, joined := range err.(interface{ Unwrap() []error }).Unwrap() {
		var rowErr *RowError
		if !errors.As(joined, &rowErr) {
			t.Fatalf("expected row error, got %v", joined)
		}
		lines = append(lines, rowErr.Line)
	}
	if diff := cmp.Diff([]int{3, 4, 6, 7}, lines); diff != "" {
		t.Fatalf("unexpected failing lines (-want +got):\n%s", diff)
	}
}

func TestExtractRequiresColumns(t *testing.T) {
	testCases := []struct {
		name    string
		report  string
		wantErr error
	}{
		{name: "empty", report: "", wantErr: ErrEmptyReport},
		{name: "missing amount", report: "store,track,period\nSpotify,Song,2026-01\n", wantErr: ErrMissingColumn},
		{name: "missing store", report: "title,month,revenue\nSong,2026-01,1\n", wantErr: ErrMissingColumn},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := Extract(strings.NewReader(testCase.report), ExtractConfig{})
			if !errors.Is(err, testCase.wantErr) {
				t.Fatalf("expected %v, got %v", testCase.wantErr, err)
			}
		})
	}
}

func TestSummarizeTotalsExactly(t *testing.T) {
	records := []catalog.Royalty{
		{Store: "Spotify", Period: "2026-02", Units: 100, Amount: decimal.RequireFromString("0.10")},
		{Store: "Apple Music", Period: "2026-01", Units: 50, Amount: decimal.RequireFromString("0.20")},
		{Store: "Spotify", Period: "2026-01", Units: 25, Amount: decimal.RequireFromString("0.10")},
		{Store: "Deezer", Period: "2026-02", Units: 5, Amount: decimal.RequireFromString("0.20")},
	}

	statement := Summarize(records)
	if !statement.TotalAmount.Equal(decimal.RequireFromString("0.6")) || statement.TotalUnits != 180 {
		t.Fatalf("unexpected totals units=%d amount=%s", statement.TotalUnits, statement.TotalAmount)
	}

	var stores []string
	for _, line := range statement.Stores {
		stores = append(stores, line.Key)
	}
	if diff := cmp.Diff([]string{"Apple Music", "Deezer", "Spotify"}, stores); diff != "" {
		t.Fatalf("unexpected store order (-want +got):\n%s", diff)
	}
	if statement.Stores[2].Units != 125 || !statement.Stores[2].Amount.Equal(decimal.RequireFromString("0.2")) {
		t.Fatalf("unexpected spotify line %+v", statement.Stores[2])
	}
	if statement.Periods[0].Key != "2026-01" || statement.Periods[1].Key != "2026-02" {
		t.Fatalf("unexpected period order %+v", statement.Periods)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	statement := Summarize(nil)
	if !statement.TotalAmount.IsZero() || len(statement.Stores) != 0 || len(statement.Periods) != 0 {
		t.Fatalf("expected empty statement, got %+v", statement)
	}
}

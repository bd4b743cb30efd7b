package dataview

import (
	"fmt"
	"strconv"
	"testing"
)

type track struct {
	id       int
	title    string
	artist   string
	genre    string
	status   string
	plays    float64
	released string
}

func trackSchema() Schema[track, int] {
	return Schema[track, int]{
		Name: "tracks",
		ID:   func(t track) int { return t.id },
		Search: []TextField[track]{
			{Name: "title", Value: func(t track) string { return t.title }},
			{Name: "artist", Value: func(t track) string { return t.artist }},
		},
		Dimensions: []Dimension[track]{
			{Name: "genre", Value: func(t track) string { return t.genre }},
			{Name: "status", Value: func(t track) string { return t.status }},
		},
		Sorts: []SortField[track]{
			{Key: "title", Kind: KindString, Text: func(t track) string { return t.title }},
			{Key: "artist", Kind: KindString, Text: func(t track) string { return t.artist }},
			{Key: "plays", Kind: KindNumber, Number: func(t track) float64 { return t.plays }},
			{Key: "released", Kind: KindDate, Text: func(t track) string { return t.released }},
		},
		Columns: []Column[track]{
			{Header: "ID", Value: func(t track) string { return strconv.Itoa(t.id) }},
			{Header: "Title", Value: func(t track) string { return t.title }},
			{Header: "Artist", Value: func(t track) string { return t.artist }},
		},
	}
}

func sampleTracks() []track {
	return []track{
		{id: 1, title: "Midnight Drive", artist: "Nova", genre: "electronic", status: "live", plays: 1200, released: "2024-03-01"},
		{id: 2, title: "Paper Boats", artist: "Lumen", genre: "folk", status: "pending", plays: 300, released: "2023-11-15"},
		{id: 3, title: "Glass Garden", artist: "Nova", genre: "electronic", status: "live", plays: 300, released: "2024-01-20"},
		{id: 4, title: "Harbor Lights", artist: "Marlow", genre: "folk", status: "rejected", plays: 50, released: "not a date"},
		{id: 5, title: "Afterglow", artist: "lumen", genre: "pop", status: "live", plays: 9000, released: "2022-06-30T10:00:00Z"},
		{id: 6, title: "Static Bloom", artist: "Nova", genre: "Electronic", status: "draft", plays: 0, released: "2025-02-02"},
	}
}

// numberedTracks builds count records: ids 1..count, titles "Song 01".., with matching
// set to the ids whose title contains "keep".
func numberedTracks(count int, matching map[int]bool) []track {
	records := make([]track, 0, count)
	for index := 1; index <= count; index++ {
		title := fmt.Sprintf("Song %02d", index)
		if matching[index] {
			title += " keep"
		}
		records = append(records, track{id: index, title: title, artist: "Various", genre: "pop", status: "live"})
	}
	return records
}

func ids(records []track) []int {
	result := make([]int, 0, len(records))
	for _, record := range records {
		result = append(result, record.id)
	}
	return result
}

func mustView(t *testing.T, cfg Config[track, int]) *View[track, int] {
	t.Helper()
	view, err := NewView(cfg)
	if err != nil {
		t.Fatalf("failed to construct view: %v", err)
	}
	return view
}

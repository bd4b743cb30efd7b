package views

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/tunedesk/internal/catalog"
	"github.com/shopspring/decimal"
)

type stubSource struct {
	mu      sync.Mutex
	data    map[catalog.Entity]any
	listErr error
	scopes  []catalog.Scope
}

func (s *stubSource) List(_ context.Context, entity catalog.Entity, scope catalog.Scope, into any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes = append(s.scopes, scope)
	if s.listErr != nil {
		return s.listErr
	}
	payload, err := json.Marshal(s.data[entity])
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, into)
}

func (s *stubSource) Owner(context.Context, catalog.Entity, string) (string, error) {
	return "", nil
}

func (s *stubSource) UpdateStatus(context.Context, catalog.Entity, string, string) error {
	return nil
}

func (s *stubSource) Delete(context.Context, catalog.Entity, string) error {
	return nil
}

type sequenceIDs struct {
	mu   sync.Mutex
	next int
}

func (s *sequenceIDs) NewID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return fmt.Sprintf("session-%d", s.next), nil
}

func sampleWithdrawals(count int) []catalog.Withdrawal {
	records := make([]catalog.Withdrawal, 0, count)
	for index := 1; index <= count; index++ {
		status := "pending"
		if index%3 == 0 {
			status = "paid"
		}
		records = append(records, catalog.Withdrawal{
			ID:          fmt.Sprintf("w-%02d", index),
			OwnerID:     "artist-a",
			Artist:      fmt.Sprintf("Artist %02d", index),
			Reference:   fmt.Sprintf("WD-%03d", index),
			Method:      "bank",
			Amount:      decimal.NewFromInt(int64(index * 10)),
			Status:      status,
			RequestedAt: fmt.Sprintf("2026-03-%02d", index),
		})
	}
	return records
}

var (
	adminViewer  = Viewer{UserID: "admin-1", Role: RoleAdmin}
	artistViewer = Viewer{UserID: "artist-a", Role: RoleArtist}
)

func newTestRegistry(t *testing.T, source *stubSource, limit int) *Registry {
	t.Helper()
	registry, err := NewRegistry(RegistryConfig{
		Factory: Factory{Source: source, DefaultPageSize: 5},
		Limit:   limit,
		IDs:     &sequenceIDs{},
		Clock:   func() time.Time { return time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("failed to construct registry: %v", err)
	}
	return registry
}

func stringPtr(value string) *string { return &value }

func intPtr(value int) *int { return &value }

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/tunedesk/internal/accounts"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/auth"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/catalog"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/database"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/notify"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/views"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	testSigningSecret = "test-signing-secret"
	testIssuer        = "tunedesk-auth"
	testCookieName    = "tunedesk_session"
)

type testServer struct {
	handler  http.Handler
	source   *catalog.SQLiteSource
	registry *views.Registry
	hub      *notify.Hub
	issuer   *auth.TokenIssuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "tunedesk.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	source, err := catalog.NewSQLiteSource(catalog.SQLiteSourceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to construct source: %v", err)
	}
	seedCatalog(t, source)

	registry, err := views.NewRegistry(views.RegistryConfig{
		Factory: views.Factory{Source: source, DefaultPageSize: 3},
	})
	if err != nil {
		t.Fatalf("failed to construct registry: %v", err)
	}
	t.Cleanup(registry.Close)

	validator, err := auth.NewSessionValidator(auth.SessionValidatorConfig{
		SigningSecret: []byte(testSigningSecret),
		Issuer:        testIssuer,
		CookieName:    testCookieName,
	})
	if err != nil {
		t.Fatalf("failed to construct validator: %v", err)
	}
	issuer, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(testSigningSecret),
		Issuer:        testIssuer,
		TokenTTL:      time.Minute,
	})
	if err != nil {
		t.Fatalf("failed to construct issuer: %v", err)
	}
	accountService, err := accounts.NewService(accounts.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to construct accounts: %v", err)
	}

	hub := notify.NewHub()
	handler, err := NewHTTPHandler(Dependencies{
		Sessions:          validator,
		Viewers:           accountService,
		Registry:          registry,
		Source:            source,
		Hub:               hub,
		HeartbeatInterval: time.Hour,
		Logger:            zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("failed to construct http handler: %v", err)
	}
	return &testServer{handler: handler, source: source, registry: registry, hub: hub, issuer: issuer}
}

// seedCatalog stores seven releases for artist-a and two for artist-b, in id order.
func seedCatalog(t *testing.T, source *catalog.SQLiteSource) {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	titles := []struct {
		owner, title, status string
	}{
		{"artist-a", "Aurora", "live"},
		{"artist-a", "Bloom", "draft"},
		{"artist-a", "Cascade", "live"},
		{"artist-a", "Drift", "pending"},
		{"artist-a", "Echo", "live"},
		{"artist-a", "Fable", "draft"},
		{"artist-a", "Glow", "live"},
		{"artist-b", "Halo", "live"},
		{"artist-b", "Iris", "draft"},
	}
	releases := make([]catalog.Release, 0, len(titles))
	for index, entry := range titles {
		releases = append(releases, catalog.Release{
			ID:          fmt.Sprintf("r-%d", index+1),
			OwnerID:     entry.owner,
			Title:       entry.title,
			Artist:      "Nova",
			Format:      "single",
			Status:      entry.status,
			ReleaseDate: fmt.Sprintf("2026-02-%02d", index+1),
			TrackCount:  1,
			CreatedAt:   base.Add(time.Duration(index) * time.Minute),
		})
	}
	if err := source.Create(context.Background(), &releases); err != nil {
		t.Fatalf("failed to seed releases: %v", err)
	}
	withdrawals := []catalog.Withdrawal{
		{ID: "w-1", OwnerID: "artist-a", Artist: "Nova", Reference: "WD-001", Method: "bank", Amount: decimal.RequireFromString("120.50"), Status: "pending", RequestedAt: "2026-03-01", CreatedAt: base},
	}
	if err := source.Create(context.Background(), &withdrawals); err != nil {
		t.Fatalf("failed to seed withdrawals: %v", err)
	}
	invitations := []catalog.Invitation{
		{ID: "i-1", OwnerID: "artist-a", Email: "manager@example.com", Role: "manager", Status: "pending", ExpiresAt: base.Add(72 * time.Hour), CreatedAt: base},
	}
	if err := source.Create(context.Background(), &invitations); err != nil {
		t.Fatalf("failed to seed invitations: %v", err)
	}
}

func (s *testServer) token(t *testing.T, userID string, roles ...string) string {
	t.Helper()
	token, _, err := s.issuer.IssueSessionToken(auth.Identity{UserID: userID, Roles: roles})
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			payload.WriteString(raw)
		} else if err := json.NewEncoder(&payload).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	request := httptest.NewRequest(method, path, &payload)
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	s.handler.ServeHTTP(recorder, request)
	return recorder
}

type pageResponse struct {
	ID     string `json:"id"`
	Entity string `json:"entity"`
	Moved  *bool  `json:"moved"`
	Page   struct {
		Rows []struct {
			ID       string   `json:"id"`
			Selected bool     `json:"selected"`
			Cells    []string `json:"cells"`
		} `json:"rows"`
		State struct {
			Search  string            `json:"search"`
			Filters map[string]string `json:"filters"`
			Sort    struct {
				Key       string `json:"key"`
				Direction string `json:"direction"`
			} `json:"sort"`
			Page     int `json:"page"`
			PageSize int `json:"page_size"`
		} `json:"state"`
		TotalPages      int      `json:"total_pages"`
		Total           int      `json:"total"`
		DatasetSize     int      `json:"dataset_size"`
		HasPrev         bool     `json:"has_prev"`
		HasNext         bool     `json:"has_next"`
		Error           string   `json:"error"`
		AllSelected     bool     `json:"all_selected"`
		SelectedIDs     []string `json:"selected_ids"`
		SelectedTotal   int      `json:"selected_total"`
		SelectedOffPage int      `json:"selected_off_page"`
	} `json:"page"`
}

func (p pageResponse) rowIDs() []string {
	ids := make([]string, 0, len(p.Page.Rows))
	for _, row := range p.Page.Rows {
		ids = append(ids, row.ID)
	}
	return ids
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	if err := json.Unmarshal(recorder.Body.Bytes(), &value); err != nil {
		t.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
	}
	return value
}

func (s *testServer) openView(t *testing.T, token, entity string) pageResponse {
	t.Helper()
	recorder := s.do(t, http.MethodPost, "/views", token, map[string]any{"entity": entity})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("unexpected create status %d: %s", recorder.Code, recorder.Body.String())
	}
	return decodeBody[pageResponse](t, recorder)
}

package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/tunedesk/internal/notify"
)

func TestUpdateStatusPatchesLiveViewsAndNotifiesOwner(t *testing.T) {
	server := newTestServer(t)
	admin := server.token(t, "root", "admin")
	artist := server.token(t, "artist-a")
	adminView := server.openView(t, admin, "releases")
	artistView := server.openView(t, artist, "releases")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ownerEvents, _ := server.hub.Subscribe(ctx, "artist-a", false)
	otherEvents, _ := server.hub.Subscribe(ctx, "artist-b", false)

	recorder := server.do(t, http.MethodPatch, "/records/releases/r-2/status", admin, `{"status":" LIVE "}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", recorder.Code, recorder.Body.String())
	}
	result := decodeBody[mutationResponse](t, recorder)
	if result.Status != "live" || result.SessionsUpdated != 2 {
		t.Fatalf("unexpected mutation result: %+v", result)
	}

	for _, view := range []struct {
		id    string
		token string
	}{{adminView.ID, admin}, {artistView.ID, artist}} {
		page := decodeBody[pageResponse](t, server.do(t, http.MethodGet, "/views/"+view.id, view.token, nil))
		if got := page.Page.Rows[1].Cells[6]; got != "live" {
			t.Fatalf("expected patched status in session %s, got %q", view.id, got)
		}
	}

	select {
	case event := <-ownerEvents:
		if event.Type != notify.EventStatusChanged || event.Entity != "releases" || event.Status != "live" || event.RecordIDs[0] != "r-2" {
			t.Fatalf("unexpected event: %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("expected owner to be notified")
	}
	select {
	case event := <-otherEvents:
		t.Fatalf("unexpected event for another owner: %+v", event)
	default:
	}
}

func TestDeleteRecordRemovesRowsFromLiveViews(t *testing.T) {
	server := newTestServer(t)
	artist := server.token(t, "artist-a")
	view := server.openView(t, artist, "releases")
	server.do(t, http.MethodPost, "/views/"+view.ID+"/selection/toggle", artist, `{"id":"r-1"}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _ := server.hub.Subscribe(ctx, "root", true)

	recorder := server.do(t, http.MethodDelete, "/records/releases/r-1", artist, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", recorder.Code, recorder.Body.String())
	}
	page := decodeBody[pageResponse](t, server.do(t, http.MethodGet, "/views/"+view.ID, artist, nil))
	if page.Page.DatasetSize != 6 || page.Page.Rows[0].ID != "r-2" || page.Page.SelectedTotal != 0 {
		t.Fatalf("expected r-1 removed and deselected, got %+v", page.Page)
	}

	select {
	case event := <-events:
		if event.Type != notify.EventRecordsRemoved || event.OwnerID != "artist-a" {
			t.Fatalf("unexpected event: %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("expected admin subscriber to be notified")
	}
}

func TestRecordMutationRules(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		path       string
		body       string
		admin      bool
		wantStatus int
		wantCode   string
	}{
		{name: "artist cannot moderate releases", method: http.MethodPatch, path: "/records/releases/r-1/status", body: `{"status":"live"}`, wantStatus: http.StatusForbidden, wantCode: "forbidden"},
		{name: "artist can revoke own invitation", method: http.MethodPatch, path: "/records/invitations/i-1/status", body: `{"status":"revoked"}`, wantStatus: http.StatusOK},
		{name: "artist cannot see foreign record", method: http.MethodDelete, path: "/records/releases/r-8", wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{name: "artist cannot delete payouts", method: http.MethodDelete, path: "/records/withdrawals/w-1", wantStatus: http.StatusForbidden, wantCode: "forbidden"},
		{name: "admin approves payout", method: http.MethodPatch, path: "/records/withdrawals/w-1/status", body: `{"status":"approved"}`, admin: true, wantStatus: http.StatusOK},
		{name: "invalid status", method: http.MethodPatch, path: "/records/withdrawals/w-1/status", body: `{"status":"live"}`, admin: true, wantStatus: http.StatusBadRequest, wantCode: "invalid_status"},
		{name: "unknown entity", method: http.MethodDelete, path: "/records/podcasts/p-1", admin: true, wantStatus: http.StatusBadRequest, wantCode: "unknown_entity"},
		{name: "missing record", method: http.MethodDelete, path: "/records/releases/r-404", admin: true, wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{name: "missing status", method: http.MethodPatch, path: "/records/releases/r-1/status", body: `{}`, admin: true, wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			server := newTestServer(t)
			token := server.token(t, "artist-a")
			if testCase.admin {
				token = server.token(t, "root", "admin")
			}
			var body any
			if testCase.body != "" {
				body = testCase.body
			}
			recorder := server.do(t, testCase.method, testCase.path, token, body)
			if recorder.Code != testCase.wantStatus {
				t.Fatalf("unexpected status %d: %s", recorder.Code, recorder.Body.String())
			}
			if testCase.wantCode != "" {
				if got := decodeBody[errorBody](t, recorder); got.Error != testCase.wantCode {
					t.Fatalf("expected %s, got %+v", testCase.wantCode, got)
				}
			}
		})
	}
}

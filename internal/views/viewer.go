// Package views holds server-side table sessions: one dataview.View per dashboard table,
// bound to the viewer that created it.
package views

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MarcoPoloResearchLab/tunedesk/internal/catalog"
)

// Role distinguishes administrators from artists.
type Role string

const (
	// RoleAdmin sees every owner's records.
	RoleAdmin Role = "admin"
	// RoleArtist sees only the records it owns.
	RoleArtist Role = "artist"
)

// ErrInvalidViewer indicates a viewer without a user id or with an unknown role.
var ErrInvalidViewer = errors.New("views: invalid viewer")

// ParseRole validates a role name.
func ParseRole(raw string) (Role, error) {
	switch role := Role(strings.ToLower(strings.TrimSpace(raw))); role {
	case RoleAdmin, RoleArtist:
		return role, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidViewer, raw)
	}
}

// Viewer is the authenticated identity a table is built for. It is fixed when the session
// is created and never re-read afterwards.
type Viewer struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// NewViewer validates and constructs a Viewer.
func NewViewer(userID, role string) (Viewer, error) {
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return Viewer{}, fmt.Errorf("%w: user id required", ErrInvalidViewer)
	}
	parsed, err := ParseRole(role)
	if err != nil {
		return Viewer{}, err
	}
	return Viewer{UserID: trimmed, Role: parsed}, nil
}

// IsAdmin reports whether the viewer has administrator access.
func (v Viewer) IsAdmin() bool {
	return v.Role == RoleAdmin
}

// Scope returns the catalogue scope for the viewer's listings.
func (v Viewer) Scope() catalog.Scope {
	if v.IsAdmin() {
		return catalog.Scope{}
	}
	return catalog.Scope{OwnerID: v.UserID}
}

// Package accounts resolves session claims into canonical dashboard viewers.
package accounts

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MarcoPoloResearchLab/tunedesk/internal/auth"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/views"
	"gorm.io/gorm"
)

// ErrInvalidIdentity indicates the claims did not contain a usable identifier.
var ErrInvalidIdentity = errors.New("accounts: invalid identity")

// ServiceConfig describes the dependencies required for viewer resolution.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
}

// Service manages canonical user identifiers and provider-specific identities.
type Service struct {
	db    *gorm.DB
	now   func() time.Time
	cache sync.Map
}

// NewService constructs the account service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("accounts: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		db:  cfg.Database,
		now: clock,
	}, nil
}

// ResolveViewer returns the viewer for the session claims, recording the identity the
// first time the provider+subject pair is seen. The role always follows the claims.
func (s *Service) ResolveViewer(claims auth.SessionClaims) (views.Viewer, error) {
	provider, subject := deriveProviderSubject(claims)
	if subject == "" {
		return views.Viewer{}, ErrInvalidIdentity
	}
	role := claims.Role()

	cacheKey := provider + ":" + subject + ":" + role
	if cached, ok := s.cache.Load(cacheKey); ok {
		if viewer, ok := cached.(views.Viewer); ok {
			return viewer, nil
		}
	}

	var identity Identity
	err := s.db.
		Where("provider = ? AND subject = ?", provider, subject).
		First(&identity).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		identity = Identity{
			Provider:    provider,
			Subject:     subject,
			UserID:      subject,
			Email:       normalize(claims.UserEmail),
			DisplayName: normalize(claims.UserDisplayName),
			Role:        role,
			LastSeenAt:  s.now(),
		}
		if err := s.db.Create(&identity).Error; err != nil {
			return views.Viewer{}, err
		}
	} else if err != nil {
		return views.Viewer{}, err
	} else {
		updates := map[string]interface{}{"last_seen_at": s.now()}
		if email := normalize(claims.UserEmail); email != "" && email != identity.Email {
			updates["user_email"] = email
		}
		if display := normalize(claims.UserDisplayName); display != "" && display != identity.DisplayName {
			updates["user_display_name"] = display
		}
		if role != identity.Role {
			updates["role"] = role
		}
		if err := s.db.Model(&Identity{}).
			Where("provider = ? AND subject = ?", provider, subject).
			Updates(updates).
			Error; err != nil {
			return views.Viewer{}, err
		}
	}

	viewer, err := views.NewViewer(identity.UserID, role)
	if err != nil {
		return views.Viewer{}, err
	}
	s.cache.Store(cacheKey, viewer)
	return viewer, nil
}

func deriveProviderSubject(claims auth.SessionClaims) (string, string) {
	provider := "default"
	subject := normalize(claims.Subject)

	raw := normalize(claims.UserID)
	if raw != "" {
		if strings.Contains(raw, ":") {
			segments := strings.SplitN(raw, ":", 2)
			if normalize(segments[0]) != "" && normalize(segments[1]) != "" {
				provider = normalize(segments[0])
				subject = normalize(segments[1])
			}
		} else if subject == "" {
			subject = raw
		}
	}

	if subject == "" {
		subject = normalize(claims.UserEmail)
	}

	return provider, subject
}

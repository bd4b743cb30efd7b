package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Entity names a catalogue collection. The value doubles as the REST path segment.
type Entity string

const (
	EntityReleases    Entity = "releases"
	EntityTracks      Entity = "tracks"
	EntityVideos      Entity = "videos"
	EntityArtists     Entity = "artists"
	EntityLabels      Entity = "labels"
	EntityStores      Entity = "stores"
	EntityWithdrawals Entity = "withdrawals"
	EntityRoyalties   Entity = "royalties"
	EntityInvitations Entity = "invitations"
)

var (
	// ErrUnknownEntity indicates a collection name the catalogue does not serve.
	ErrUnknownEntity = errors.New("catalog: unknown entity")
	// ErrInvalidStatus indicates a status value the entity does not allow.
	ErrInvalidStatus = errors.New("catalog: invalid status")
	// ErrStatusUnsupported indicates an entity without a status workflow.
	ErrStatusUnsupported = errors.New("catalog: entity has no status")
	// ErrRecordNotFound indicates that no record matched the identifier.
	ErrRecordNotFound = errors.New("catalog: record not found")
)

var (
	publishingStatuses = []string{"draft", "pending", "approved", "rejected", "live"}
	withdrawalStatuses = []string{"pending", "approved", "rejected", "paid"}
	activityStatuses   = []string{"active", "inactive"}
	invitationStatuses = []string{"pending", "accepted", "revoked"}
)

// Entities returns every served collection in display order.
func Entities() []Entity {
	return []Entity{
		EntityReleases, EntityTracks, EntityVideos, EntityArtists, EntityLabels,
		EntityStores, EntityWithdrawals, EntityRoyalties, EntityInvitations,
	}
}

// ParseEntity validates a collection name.
func ParseEntity(raw string) (Entity, error) {
	candidate := Entity(strings.ToLower(strings.TrimSpace(raw)))
	if slices.Contains(Entities(), candidate) {
		return candidate, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEntity, raw)
}

func (e Entity) String() string {
	return string(e)
}

// Statuses returns the allowed status values, or nil when the entity has no status.
func (e Entity) Statuses() []string {
	switch e {
	case EntityReleases, EntityTracks, EntityVideos:
		return publishingStatuses
	case EntityWithdrawals:
		return withdrawalStatuses
	case EntityArtists, EntityLabels, EntityStores:
		return activityStatuses
	case EntityInvitations:
		return invitationStatuses
	default:
		return nil
	}
}

// ValidateStatus normalizes status and checks it against the entity's workflow.
func (e Entity) ValidateStatus(status string) (string, error) {
	allowed := e.Statuses()
	if allowed == nil {
		return "", fmt.Errorf("%w: %s", ErrStatusUnsupported, e)
	}
	normalized := strings.ToLower(strings.TrimSpace(status))
	if !slices.Contains(allowed, normalized) {
		return "", fmt.Errorf("%w: %q for %s", ErrInvalidStatus, status, e)
	}
	return normalized, nil
}

// model returns a pointer to the zero GORM model backing e.
func (e Entity) model() (any, error) {
	switch e {
	case EntityReleases:
		return &Release{}, nil
	case EntityTracks:
		return &Track{}, nil
	case EntityVideos:
		return &Video{}, nil
	case EntityArtists:
		return &Artist{}, nil
	case EntityLabels:
		return &Label{}, nil
	case EntityStores:
		return &Store{}, nil
	case EntityWithdrawals:
		return &Withdrawal{}, nil
	case EntityRoyalties:
		return &Royalty{}, nil
	case EntityInvitations:
		return &Invitation{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, string(e))
	}
}

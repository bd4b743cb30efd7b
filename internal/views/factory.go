package views

import (
	"errors"
	"fmt"
	"time"

	"github.com/MarcoPoloResearchLab/tunedesk/internal/catalog"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/dataview"
)

var errMissingSource = errors.New("views: records source is required")

// Factory builds tables for catalogue entities.
type Factory struct {
	Source          catalog.Source
	DefaultPageSize int
	KeepLastGood    bool
	Clock           func() time.Time
}

// adminOnly lists entities that only administrators can open.
var adminOnly = map[catalog.Entity]struct{}{
	catalog.EntityArtists: {},
	catalog.EntityStores:  {},
}

// NewTable constructs an unloaded table for entity scoped to viewer. A pageSize of zero
// uses the factory default.
func (f Factory) NewTable(entity catalog.Entity, viewer Viewer, pageSize int) (Table, error) {
	if f.Source == nil {
		return nil, errMissingSource
	}
	if _, err := catalog.ParseEntity(entity.String()); err != nil {
		return nil, err
	}
	if _, restricted := adminOnly[entity]; restricted && !viewer.IsAdmin() {
		return nil, fmt.Errorf("%w: %s", ErrAdminOnly, entity)
	}
	if pageSize == 0 {
		pageSize = f.DefaultPageSize
	}
	if pageSize < 0 || pageSize > MaxPageSize {
		return nil, fmt.Errorf("%w: %d", dataview.ErrInvalidPageSize, pageSize)
	}
	clock := f.Clock
	if clock == nil {
		clock = time.Now
	}
	scope := viewer.Scope()

	switch entity {
	case catalog.EntityReleases:
		return newTable(tableConfig[catalog.Release]{
			entity: entity, schema: catalog.ReleaseSchema(), pageSize: pageSize, keepLast: f.KeepLastGood,
			fetch:     catalog.Fetcher[catalog.Release](f.Source, entity, scope),
			withState: func(r catalog.Release, status string) catalog.Release { r.Status = status; return r },
		})
	case catalog.EntityTracks:
		return newTable(tableConfig[catalog.Track]{
			entity: entity, schema: catalog.TrackSchema(), pageSize: pageSize, keepLast: f.KeepLastGood,
			fetch:     catalog.Fetcher[catalog.Track](f.Source, entity, scope),
			withState: func(r catalog.Track, status string) catalog.Track { r.Status = status; return r },
		})
	case catalog.EntityVideos:
		return newTable(tableConfig[catalog.Video]{
			entity: entity, schema: catalog.VideoSchema(), pageSize: pageSize, keepLast: f.KeepLastGood,
			fetch:     catalog.Fetcher[catalog.Video](f.Source, entity, scope),
			withState: func(r catalog.Video, status string) catalog.Video { r.Status = status; return r },
		})
	case catalog.EntityArtists:
		return newTable(tableConfig[catalog.Artist]{
			entity: entity, schema: catalog.ArtistSchema(), pageSize: pageSize, keepLast: f.KeepLastGood,
			fetch:     catalog.Fetcher[catalog.Artist](f.Source, entity, scope),
			withState: func(r catalog.Artist, status string) catalog.Artist { r.Status = status; return r },
		})
	case catalog.EntityLabels:
		return newTable(tableConfig[catalog.Label]{
			entity: entity, schema: catalog.LabelSchema(), pageSize: pageSize, keepLast: f.KeepLastGood,
			fetch:     catalog.Fetcher[catalog.Label](f.Source, entity, scope),
			withState: func(r catalog.Label, status string) catalog.Label { r.Status = status; return r },
		})
	case catalog.EntityStores:
		return newTable(tableConfig[catalog.Store]{
			entity: entity, schema: catalog.StoreSchema(), pageSize: pageSize, keepLast: f.KeepLastGood,
			fetch:     catalog.Fetcher[catalog.Store](f.Source, entity, scope),
			withState: func(r catalog.Store, status string) catalog.Store { r.Status = status; return r },
		})
	case catalog.EntityWithdrawals:
		return newTable(tableConfig[catalog.Withdrawal]{
			entity: entity, schema: catalog.WithdrawalSchema(), pageSize: pageSize, keepLast: f.KeepLastGood,
			fetch:     catalog.Fetcher[catalog.Withdrawal](f.Source, entity, scope),
			withState: func(r catalog.Withdrawal, status string) catalog.Withdrawal { r.Status = status; return r },
		})
	case catalog.EntityRoyalties:
		return newTable(tableConfig[catalog.Royalty]{
			entity: entity, schema: catalog.RoyaltySchema(), pageSize: pageSize, keepLast: f.KeepLastGood,
			fetch: catalog.Fetcher[catalog.Royalty](f.Source, entity, scope),
		})
	case catalog.EntityInvitations:
		return newTable(tableConfig[catalog.Invitation]{
			entity: entity, schema: catalog.InvitationSchema(), pageSize: pageSize, keepLast: f.KeepLastGood,
			fetch:     catalog.Fetcher[catalog.Invitation](f.Source, entity, scope),
			withState: func(r catalog.Invitation, status string) catalog.Invitation { r.Status = status; return r },
			present:   presentInvitation(clock),
		})
	default:
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownEntity, string(entity))
	}
}

package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Release is an album, EP or single submitted for distribution.
type Release struct {
	ID          string    `gorm:"column:id;primaryKey;size:190;not null" json:"id"`
	OwnerID     string    `gorm:"column:owner_id;size:190;not null;index" json:"owner_id"`
	Title       string    `gorm:"column:title;size:320;not null" json:"title"`
	Artist      string    `gorm:"column:artist;size:320;not null" json:"artist"`
	Label       string    `gorm:"column:label;size:320" json:"label"`
	UPC         string    `gorm:"column:upc;size:32" json:"upc"`
	Format      string    `gorm:"column:format;size:32" json:"format"`
	Status      string    `gorm:"column:status;size:32;not null;index" json:"status"`
	ReleaseDate string    `gorm:"column:release_date;size:32" json:"release_date"`
	TrackCount  int       `gorm:"column:track_count;not null;default:0" json:"track_count"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName provides the explicit table binding for GORM.
func (Release) TableName() string { return "releases" }

// Track is a single recording, usually attached to a release.
type Track struct {
	ID              string    `gorm:"column:id;primaryKey;size:190;not null" json:"id"`
	OwnerID         string    `gorm:"column:owner_id;size:190;not null;index" json:"owner_id"`
	ReleaseID       string    `gorm:"column:release_id;size:190;index" json:"release_id"`
	Title           string    `gorm:"column:title;size:320;not null" json:"title"`
	Artist          string    `gorm:"column:artist;size:320;not null" json:"artist"`
	ISRC            string    `gorm:"column:isrc;size:32" json:"isrc"`
	Explicit        bool      `gorm:"column:explicit;not null;default:false" json:"explicit"`
	DurationSeconds int       `gorm:"column:duration_s;not null;default:0" json:"duration_s"`
	Status          string    `gorm:"column:status;size:32;not null;index" json:"status"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName provides the explicit table binding for GORM.
func (Track) TableName() string { return "tracks" }

// Video is a music video delivered to video stores.
type Video struct {
	ID          string    `gorm:"column:id;primaryKey;size:190;not null" json:"id"`
	OwnerID     string    `gorm:"column:owner_id;size:190;not null;index" json:"owner_id"`
	Title       string    `gorm:"column:title;size:320;not null" json:"title"`
	Artist      string    `gorm:"column:artist;size:320;not null" json:"artist"`
	ISRC        string    `gorm:"column:isrc;size:32" json:"isrc"`
	Status      string    `gorm:"column:status;size:32;not null;index" json:"status"`
	ReleaseDate string    `gorm:"column:release_date;size:32" json:"release_date"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName provides the explicit table binding for GORM.
func (Video) TableName() string { return "videos" }

// Artist is a performer profile.
type Artist struct {
	ID        string    `gorm:"column:id;primaryKey;size:190;not null" json:"id"`
	OwnerID   string    `gorm:"column:owner_id;size:190;not null;index" json:"owner_id"`
	Name      string    `gorm:"column:name;size:320;not null" json:"name"`
	Email     string    `gorm:"column:email;size:320" json:"email"`
	Country   string    `gorm:"column:country;size:64" json:"country"`
	Status    string    `gorm:"column:status;size:32;not null" json:"status"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName provides the explicit table binding for GORM.
func (Artist) TableName() string { return "artists" }

// Label is a record label accepting releases.
type Label struct {
	ID           string    `gorm:"column:id;primaryKey;size:190;not null" json:"id"`
	OwnerID      string    `gorm:"column:owner_id;size:190;not null;index" json:"owner_id"`
	Name         string    `gorm:"column:name;size:320;not null" json:"name"`
	Email        string    `gorm:"column:email;size:320" json:"email"`
	Status       string    `gorm:"column:status;size:32;not null" json:"status"`
	ReleaseCount int       `gorm:"column:release_count;not null;default:0" json:"release_count"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName provides the explicit table binding for GORM.
func (Label) TableName() string { return "labels" }

// Store is a digital service provider that releases are delivered to.
type Store struct {
	ID        string    `gorm:"column:id;primaryKey;size:190;not null" json:"id"`
	OwnerID   string    `gorm:"column:owner_id;size:190;not null;index" json:"owner_id"`
	Name      string    `gorm:"column:name;size:190;not null" json:"name"`
	Code      string    `gorm:"column:code;size:64;not null" json:"code"`
	Region    string    `gorm:"column:region;size:64" json:"region"`
	Status    string    `gorm:"column:status;size:32;not null" json:"status"`
	Priority  int       `gorm:"column:priority;not null;default:0" json:"priority"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName provides the explicit table binding for GORM.
func (Store) TableName() string { return "stores" }

// Withdrawal is an artist's request to pay out royalties.
type Withdrawal struct {
	ID          string          `gorm:"column:id;primaryKey;size:190;not null" json:"id"`
	OwnerID     string          `gorm:"column:owner_id;size:190;not null;index" json:"owner_id"`
	Artist      string          `gorm:"column:artist;size:320;not null" json:"artist"`
	Reference   string          `gorm:"column:reference;size:64;not null" json:"reference"`
	Method      string          `gorm:"column:method;size:32;not null" json:"method"`
	Amount      decimal.Decimal `gorm:"column:amount;type:decimal(14,4);not null" json:"amount"`
	Status      string          `gorm:"column:status;size:32;not null;index" json:"status"`
	RequestedAt string          `gorm:"column:requested_at;size:32;not null" json:"requested_at"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName provides the explicit table binding for GORM.
func (Withdrawal) TableName() string { return "withdrawals" }

// Royalty is one reported earnings line for a track in a store and period.
type Royalty struct {
	ID        string          `gorm:"column:id;primaryKey;size:190;not null" json:"id"`
	OwnerID   string          `gorm:"column:owner_id;size:190;not null;index" json:"owner_id"`
	Store     string          `gorm:"column:store;size:190;not null;index" json:"store"`
	Track     string          `gorm:"column:track;size:320;not null" json:"track"`
	ISRC      string          `gorm:"column:isrc;size:32" json:"isrc"`
	Period    string          `gorm:"column:period;size:16;not null;index" json:"period"`
	Units     int64           `gorm:"column:units;not null;default:0" json:"units"`
	Amount    decimal.Decimal `gorm:"column:amount;type:decimal(14,6);not null" json:"amount"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName provides the explicit table binding for GORM.
func (Royalty) TableName() string { return "royalties" }

// Invitation grants a collaborator access to an artist's account until it expires.
type Invitation struct {
	ID        string    `gorm:"column:id;primaryKey;size:190;not null" json:"id"`
	OwnerID   string    `gorm:"column:owner_id;size:190;not null;index" json:"owner_id"`
	Email     string    `gorm:"column:email;size:320;not null" json:"email"`
	Role      string    `gorm:"column:role;size:32;not null" json:"role"`
	Status    string    `gorm:"column:status;size:32;not null" json:"status"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName provides the explicit table binding for GORM.
func (Invitation) TableName() string { return "invitations" }

// Remaining returns the time left before the invitation expires, never negative.
func (i Invitation) Remaining(now time.Time) time.Duration {
	return max(i.ExpiresAt.Sub(now), 0)
}

// Expired reports whether the invitation can no longer be accepted.
func (i Invitation) Expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// Models lists every persisted catalogue model for schema migration.
func Models() []any {
	return []any{
		&Release{}, &Track{}, &Video{}, &Artist{}, &Label{},
		&Store{}, &Withdrawal{}, &Royalty{}, &Invitation{},
	}
}

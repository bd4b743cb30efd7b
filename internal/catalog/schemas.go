package catalog

import (
	"strconv"
	"time"

	"github.com/MarcoPoloResearchLab/tunedesk/internal/dataview"
)

func text[T any](name string, value func(T) string) dataview.TextField[T] {
	return dataview.TextField[T]{Name: name, Value: value}
}

func dimension[T any](name string, value func(T) string, options ...string) dataview.Dimension[T] {
	return dataview.Dimension[T]{Name: name, Value: value, Options: options}
}

func byText[T any](key string, value func(T) string) dataview.SortField[T] {
	return dataview.SortField[T]{Key: key, Kind: dataview.KindString, Text: value}
}

func byDate[T any](key string, value func(T) string) dataview.SortField[T] {
	return dataview.SortField[T]{Key: key, Kind: dataview.KindDate, Text: value}
}

func byNumber[T any](key string, value func(T) float64) dataview.SortField[T] {
	return dataview.SortField[T]{Key: key, Kind: dataview.KindNumber, Number: value}
}

func column[T any](header string, value func(T) string) dataview.Column[T] {
	return dataview.Column[T]{Header: header, Value: value}
}

func numeric[T any](header string, value func(T) string) dataview.Column[T] {
	return dataview.Column[T]{Header: header, Value: value, Numeric: true}
}

func timestamp(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}

// ReleaseSchema configures the releases table.
func ReleaseSchema() dataview.Schema[Release, string] {
	return dataview.Schema[Release, string]{
		Name: EntityReleases.String(),
		ID:   func(r Release) string { return r.ID },
		Search: []dataview.TextField[Release]{
			text("title", func(r Release) string { return r.Title }),
			text("artist", func(r Release) string { return r.Artist }),
			text("label", func(r Release) string { return r.Label }),
			text("upc", func(r Release) string { return r.UPC }),
		},
		Dimensions: []dataview.Dimension[Release]{
			dimension("status", func(r Release) string { return r.Status }, publishingStatuses...),
			dimension("format", func(r Release) string { return r.Format }, "single", "ep", "album"),
		},
		Sorts: []dataview.SortField[Release]{
			byText("title", func(r Release) string { return r.Title }),
			byText("artist", func(r Release) string { return r.Artist }),
			byDate("release_date", func(r Release) string { return r.ReleaseDate }),
			byNumber("tracks", func(r Release) float64 { return float64(r.TrackCount) }),
		},
		Columns: []dataview.Column[Release]{
			column("ID", func(r Release) string { return r.ID }),
			column("Title", func(r Release) string { return r.Title }),
			column("Artist", func(r Release) string { return r.Artist }),
			column("Label", func(r Release) string { return r.Label }),
			column("UPC", func(r Release) string { return r.UPC }),
			column("Format", func(r Release) string { return r.Format }),
			column("Status", func(r Release) string { return r.Status }),
			column("Release Date", func(r Release) string { return r.ReleaseDate }),
			numeric("Tracks", func(r Release) string { return strconv.Itoa(r.TrackCount) }),
		},
	}
}

// TrackSchema configures the tracks table.
func TrackSchema() dataview.Schema[Track, string] {
	return dataview.Schema[Track, string]{
		Name: EntityTracks.String(),
		ID:   func(t Track) string { return t.ID },
		Search: []dataview.TextField[Track]{
			text("title", func(t Track) string { return t.Title }),
			text("artist", func(t Track) string { return t.Artist }),
			text("isrc", func(t Track) string { return t.ISRC }),
		},
		Dimensions: []dataview.Dimension[Track]{
			dimension("status", func(t Track) string { return t.Status }, publishingStatuses...),
			dimension("explicit", func(t Track) string { return strconv.FormatBool(t.Explicit) }, "true", "false"),
		},
		Sorts: []dataview.SortField[Track]{
			byText("title", func(t Track) string { return t.Title }),
			byText("artist", func(t Track) string { return t.Artist }),
			byNumber("duration", func(t Track) float64 { return float64(t.DurationSeconds) }),
			byDate("created_at", func(t Track) string { return timestamp(t.CreatedAt) }),
		},
		Columns: []dataview.Column[Track]{
			column("ID", func(t Track) string { return t.ID }),
			column("Title", func(t Track) string { return t.Title }),
			column("Artist", func(t Track) string { return t.Artist }),
			column("ISRC", func(t Track) string { return t.ISRC }),
			column("Explicit", func(t Track) string { return strconv.FormatBool(t.Explicit) }),
			numeric("Duration (s)", func(t Track) string { return strconv.Itoa(t.DurationSeconds) }),
			column("Status", func(t Track) string { return t.Status }),
		},
	}
}

// VideoSchema configures the videos table.
func VideoSchema() dataview.Schema[Video, string] {
	return dataview.Schema[Video, string]{
		Name: EntityVideos.String(),
		ID:   func(v Video) string { return v.ID },
		Search: []dataview.TextField[Video]{
			text("title", func(v Video) string { return v.Title }),
			text("artist", func(v Video) string { return v.Artist }),
			text("isrc", func(v Video) string { return v.ISRC }),
		},
		Dimensions: []dataview.Dimension[Video]{
			dimension("status", func(v Video) string { return v.Status }, publishingStatuses...),
		},
		Sorts: []dataview.SortField[Video]{
			byText("title", func(v Video) string { return v.Title }),
			byText("artist", func(v Video) string { return v.Artist }),
			byDate("release_date", func(v Video) string { return v.ReleaseDate }),
		},
		Columns: []dataview.Column[Video]{
			column("ID", func(v Video) string { return v.ID }),
			column("Title", func(v Video) string { return v.Title }),
			column("Artist", func(v Video) string { return v.Artist }),
			column("ISRC", func(v Video) string { return v.ISRC }),
			column("Status", func(v Video) string { return v.Status }),
			column("Release Date", func(v Video) string { return v.ReleaseDate }),
		},
	}
}

// ArtistSchema configures the artists table.
func ArtistSchema() dataview.Schema[Artist, string] {
	return dataview.Schema[Artist, string]{
		Name: EntityArtists.String(),
		ID:   func(a Artist) string { return a.ID },
		Search: []dataview.TextField[Artist]{
			text("name", func(a Artist) string { return a.Name }),
			text("email", func(a Artist) string { return a.Email }),
			text("country", func(a Artist) string { return a.Country }),
		},
		Dimensions: []dataview.Dimension[Artist]{
			dimension("status", func(a Artist) string { return a.Status }, activityStatuses...),
		},
		Sorts: []dataview.SortField[Artist]{
			byText("name", func(a Artist) string { return a.Name }),
			byText("country", func(a Artist) string { return a.Country }),
			byDate("created_at", func(a Artist) string { return timestamp(a.CreatedAt) }),
		},
		Columns: []dataview.Column[Artist]{
			column("ID", func(a Artist) string { return a.ID }),
			column("Name", func(a Artist) string { return a.Name }),
			column("Email", func(a Artist) string { return a.Email }),
			column("Country", func(a Artist) string { return a.Country }),
			column("Status", func(a Artist) string { return a.Status }),
		},
	}
}

// LabelSchema configures the labels table.
func LabelSchema() dataview.Schema[Label, string] {
	return dataview.Schema[Label, string]{
		Name: EntityLabels.String(),
		ID:   func(l Label) string { return l.ID },
		Search: []dataview.TextField[Label]{
			text("name", func(l Label) string { return l.Name }),
			text("email", func(l Label) string { return l.Email }),
		},
		Dimensions: []dataview.Dimension[Label]{
			dimension("status", func(l Label) string { return l.Status }, activityStatuses...),
		},
		Sorts: []dataview.SortField[Label]{
			byText("name", func(l Label) string { return l.Name }),
			byNumber("releases", func(l Label) float64 { return float64(l.ReleaseCount) }),
			byDate("created_at", func(l Label) string { return timestamp(l.CreatedAt) }),
		},
		Columns: []dataview.Column[Label]{
			column("ID", func(l Label) string { return l.ID }),
			column("Name", func(l Label) string { return l.Name }),
			column("Email", func(l Label) string { return l.Email }),
			column("Status", func(l Label) string { return l.Status }),
			numeric("Releases", func(l Label) string { return strconv.Itoa(l.ReleaseCount) }),
		},
	}
}

// StoreSchema configures the stores table.
func StoreSchema() dataview.Schema[Store, string] {
	return dataview.Schema[Store, string]{
		Name: EntityStores.String(),
		ID:   func(s Store) string { return s.ID },
		Search: []dataview.TextField[Store]{
			text("name", func(s Store) string { return s.Name }),
			text("code", func(s Store) string { return s.Code }),
		},
		Dimensions: []dataview.Dimension[Store]{
			dimension("status", func(s Store) string { return s.Status }, activityStatuses...),
			dimension("region", func(s Store) string { return s.Region }),
		},
		Sorts: []dataview.SortField[Store]{
			byText("name", func(s Store) string { return s.Name }),
			byNumber("priority", func(s Store) float64 { return float64(s.Priority) }),
		},
		Columns: []dataview.Column[Store]{
			column("ID", func(s Store) string { return s.ID }),
			column("Name", func(s Store) string { return s.Name }),
			column("Code", func(s Store) string { return s.Code }),
			column("Region", func(s Store) string { return s.Region }),
			column("Status", func(s Store) string { return s.Status }),
			numeric("Priority", func(s Store) string { return strconv.Itoa(s.Priority) }),
		},
	}
}

// WithdrawalSchema configures the withdrawal requests table.
func WithdrawalSchema() dataview.Schema[Withdrawal, string] {
	return dataview.Schema[Withdrawal, string]{
		Name: EntityWithdrawals.String(),
		ID:   func(w Withdrawal) string { return w.ID },
		Search: []dataview.TextField[Withdrawal]{
			text("artist", func(w Withdrawal) string { return w.Artist }),
			text("reference", func(w Withdrawal) string { return w.Reference }),
			text("method", func(w Withdrawal) string { return w.Method }),
		},
		Dimensions: []dataview.Dimension[Withdrawal]{
			dimension("status", func(w Withdrawal) string { return w.Status }, withdrawalStatuses...),
			dimension("method", func(w Withdrawal) string { return w.Method }, "bank", "paypal", "payoneer"),
		},
		Sorts: []dataview.SortField[Withdrawal]{
			{Key: "amount", Kind: dataview.KindNumber, Compare: func(a, b Withdrawal) int { return a.Amount.Cmp(b.Amount) }},
			byDate("requested_at", func(w Withdrawal) string { return w.RequestedAt }),
			byText("artist", func(w Withdrawal) string { return w.Artist }),
		},
		Columns: []dataview.Column[Withdrawal]{
			column("ID", func(w Withdrawal) string { return w.ID }),
			column("Reference", func(w Withdrawal) string { return w.Reference }),
			column("Artist", func(w Withdrawal) string { return w.Artist }),
			column("Method", func(w Withdrawal) string { return w.Method }),
			numeric("Amount", func(w Withdrawal) string { return w.Amount.StringFixed(2) }),
			column("Status", func(w Withdrawal) string { return w.Status }),
			column("Requested At", func(w Withdrawal) string { return w.RequestedAt }),
		},
	}
}

// RoyaltySchema configures the royalty report table.
func RoyaltySchema() dataview.Schema[Royalty, string] {
	return dataview.Schema[Royalty, string]{
		Name: EntityRoyalties.String(),
		ID:   func(r Royalty) string { return r.ID },
		Search: []dataview.TextField[Royalty]{
			text("store", func(r Royalty) string { return r.Store }),
			text("track", func(r Royalty) string { return r.Track }),
			text("isrc", func(r Royalty) string { return r.ISRC }),
			text("period", func(r Royalty) string { return r.Period }),
		},
		Dimensions: []dataview.Dimension[Royalty]{
			dimension("store", func(r Royalty) string { return r.Store }),
			dimension("period", func(r Royalty) string { return r.Period }),
		},
		Sorts: []dataview.SortField[Royalty]{
			{Key: "amount", Kind: dataview.KindNumber, Compare: func(a, b Royalty) int { return a.Amount.Cmp(b.Amount) }},
			byNumber("units", func(r Royalty) float64 { return float64(r.Units) }),
			byDate("period", func(r Royalty) string { return r.Period }),
		},
		Columns: []dataview.Column[Royalty]{
			column("ID", func(r Royalty) string { return r.ID }),
			column("Store", func(r Royalty) string { return r.Store }),
			column("Track", func(r Royalty) string { return r.Track }),
			column("ISRC", func(r Royalty) string { return r.ISRC }),
			column("Period", func(r Royalty) string { return r.Period }),
			numeric("Units", func(r Royalty) string { return strconv.FormatInt(r.Units, 10) }),
			numeric("Amount", func(r Royalty) string { return r.Amount.StringFixed(4) }),
		},
	}
}

// InvitationSchema configures the invitations table.
func InvitationSchema() dataview.Schema[Invitation, string] {
	return dataview.Schema[Invitation, string]{
		Name: EntityInvitations.String(),
		ID:   func(i Invitation) string { return i.ID },
		Search: []dataview.TextField[Invitation]{
			text("email", func(i Invitation) string { return i.Email }),
		},
		Dimensions: []dataview.Dimension[Invitation]{
			dimension("status", func(i Invitation) string { return i.Status }, invitationStatuses...),
			dimension("role", func(i Invitation) string { return i.Role }),
		},
		Sorts: []dataview.SortField[Invitation]{
			byText("email", func(i Invitation) string { return i.Email }),
			byDate("expires_at", func(i Invitation) string { return timestamp(i.ExpiresAt) }),
		},
		Columns: []dataview.Column[Invitation]{
			column("ID", func(i Invitation) string { return i.ID }),
			column("Email", func(i Invitation) string { return i.Email }),
			column("Role", func(i Invitation) string { return i.Role }),
			column("Status", func(i Invitation) string { return i.Status }),
			column("Expires At", func(i Invitation) string { return timestamp(i.ExpiresAt) }),
		},
	}
}

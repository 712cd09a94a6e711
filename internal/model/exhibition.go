package model

import "time"

// Exhibition represents a scheduled exhibition as stored in the
// `exhibitions` table.  An exhibition runs between two dates (inclusive)
// and accepts bookings only while it is both active and published:
// Active is the operational gate staff can flip to pull an exhibition
// offline, Published is the editorial gate that keeps drafts hidden.
type Exhibition struct {
	ID          uint64    // exhibitions.id
	Slug        string    // exhibitions.slug
	Title       string    // exhibitions.title
	Description string    // exhibitions.description
	Location    string    // exhibitions.location
	StartsOn    time.Time // exhibitions.starts_on (DATE)
	EndsOn      time.Time // exhibitions.ends_on (DATE)
	Capacity    uint32    // exhibitions.capacity
	Active      bool      // exhibitions.active
	Published   bool      // exhibitions.published
	CreatedAt   time.Time // exhibitions.created_at
	UpdatedAt   time.Time // exhibitions.updated_at
}

// Bookable reports whether the exhibition accepts registrations on the
// given day: both gates open and the day inside the window, inclusive on
// both ends.  The comparison is at DATE precision in UTC.  This is the
// single place the rule lives; callers must not re-derive it.
func (e *Exhibition) Bookable(today time.Time) bool {
	if !e.Active || !e.Published {
		return false
	}
	day := truncateToDay(today)
	return !day.Before(truncateToDay(e.StartsOn)) && !day.After(truncateToDay(e.EndsOn))
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

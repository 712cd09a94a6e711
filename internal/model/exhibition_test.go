package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBookableWindow(t *testing.T) {
	e := Exhibition{
		StartsOn:  day(2026, 6, 10),
		EndsOn:    day(2026, 6, 20),
		Active:    true,
		Published: true,
	}

	assert.False(t, e.Bookable(day(2026, 6, 9)), "day before window")
	assert.True(t, e.Bookable(day(2026, 6, 10)), "first day is inclusive")
	assert.True(t, e.Bookable(day(2026, 6, 15)))
	assert.True(t, e.Bookable(day(2026, 6, 20)), "last day is inclusive")
	assert.False(t, e.Bookable(day(2026, 6, 21)), "day after window")

	// The time of day must not matter: late evening on the last day is
	// still inside the window.
	assert.True(t, e.Bookable(time.Date(2026, 6, 20, 23, 59, 59, 0, time.UTC)))

	// Non-UTC clocks are normalized before comparison.
	cet := time.FixedZone("CET", 3600)
	assert.True(t, e.Bookable(time.Date(2026, 6, 21, 0, 30, 0, 0, cet)), "00:30 CET is still June 20 in UTC")
}

func TestBookableGates(t *testing.T) {
	base := Exhibition{
		StartsOn:  day(2026, 6, 10),
		EndsOn:    day(2026, 6, 20),
		Active:    true,
		Published: true,
	}
	today := day(2026, 6, 15)

	e := base
	e.Active = false
	assert.False(t, e.Bookable(today))

	e = base
	e.Published = false
	assert.False(t, e.Bookable(today))

	assert.True(t, base.Bookable(today))
}

func TestIdentityCapabilities(t *testing.T) {
	assert.False(t, Identity{Role: RoleVisitor}.IsStaff())
	assert.False(t, Identity{Role: RoleVisitor}.IsAdmin())
	assert.True(t, Identity{Role: RoleStaff}.IsStaff())
	assert.False(t, Identity{Role: RoleStaff}.IsAdmin())
	assert.True(t, Identity{Role: RoleAdmin}.IsStaff())
	assert.True(t, Identity{Role: RoleAdmin}.IsAdmin())
}

func TestBookingAdmitted(t *testing.T) {
	b := Booking{TicketState: TicketIssued}
	assert.False(t, b.Admitted())
	b.TicketState = TicketAdmitted
	assert.True(t, b.Admitted())
}

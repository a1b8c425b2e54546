// Package eligibility decides whether a customer may still cancel an order
// and how long the cancellation window stays open.
//
// The daily cutoff splits orders in two. An order placed at or before the
// cutoff minute can be cancelled until the cutoff on the same calendar day.
// An order placed after it missed that day's harvest run and can be
// cancelled until the end of the following day.
package eligibility

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/freshroots/harvest-backend/internal/models"
)

type Cutoff struct {
	Hour   int
	Minute int
}

// ParseCutoff parses an "HH:MM" time of day.
func ParseCutoff(s string) (Cutoff, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Cutoff{}, fmt.Errorf("cutoff %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return Cutoff{}, fmt.Errorf("cutoff %q: invalid hour", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return Cutoff{}, fmt.Errorf("cutoff %q: invalid minute", s)
	}
	return Cutoff{Hour: h, Minute: m}, nil
}

func (c Cutoff) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// placedAfter reports whether t's time of day is later than HH:MM:00. An
// order placed exactly at the cutoff is on time; one placed later in the
// cutoff minute gets the after-cutoff window, since its same-day deadline
// has already passed.
func (c Cutoff) placedAfter(t time.Time) bool {
	if t.Hour() != c.Hour {
		return t.Hour() > c.Hour
	}
	if t.Minute() != c.Minute {
		return t.Minute() > c.Minute
	}
	return t.Second() > 0 || t.Nanosecond() > 0
}

// Deadline is the last instant an order placed at placedAt may be cancelled,
// evaluated in placedAt's location.
func Deadline(placedAt time.Time, cutoff Cutoff) time.Time {
	y, m, d := placedAt.Date()
	loc := placedAt.Location()
	if cutoff.placedAfter(placedAt) {
		return time.Date(y, m, d+2, 0, 0, 0, 0, loc).Add(-time.Nanosecond)
	}
	return time.Date(y, m, d, cutoff.Hour, cutoff.Minute, 0, 0, loc)
}

func deadline(order models.Order, now time.Time, cutoff Cutoff) (time.Time, bool) {
	if order.NormalizedStatus().Terminal() {
		return time.Time{}, false
	}
	placedAt, ok := order.PlacedAt()
	if !ok {
		return time.Time{}, false
	}
	if !cutoff.placedAfter(placedAt) && !sameDate(placedAt, now.In(placedAt.Location())) {
		return time.Time{}, false
	}
	dl := Deadline(placedAt, cutoff)
	if now.After(dl) {
		return time.Time{}, false
	}
	return dl, true
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// CanCancel reports whether the owner may still cancel order at now.
// Terminal orders and orders without a readable placement instant are never
// cancellable.
func CanCancel(order models.Order, now time.Time, cutoff Cutoff) bool {
	_, ok := deadline(order, now, cutoff)
	return ok
}

// TimeRemaining returns the time left in the cancellation window. ok is false
// when the order cannot be cancelled at all. Callers driving a countdown must
// call it on every tick instead of decrementing a cached value.
func TimeRemaining(order models.Order, now time.Time, cutoff Cutoff) (remaining time.Duration, ok bool) {
	dl, ok := deadline(order, now, cutoff)
	if !ok {
		return 0, false
	}
	return dl.Sub(now), true
}

// Policy binds a cutoff to the store's time zone. Placement instants are
// moved into Location before the calendar arithmetic runs; zone-less
// placement strings are read as wall clock in Location.
type Policy struct {
	Cutoff   Cutoff
	Location *time.Location
}

func (p Policy) localize(order models.Order) models.Order {
	if p.Location == nil {
		return order
	}
	if placedAt, ok := order.PlacedAtIn(p.Location); ok {
		order.Timestamp = models.NewTimestamp(placedAt)
	}
	return order
}

func (p Policy) CanCancel(order models.Order, now time.Time) bool {
	return CanCancel(p.localize(order), now, p.Cutoff)
}

func (p Policy) TimeRemaining(order models.Order, now time.Time) (time.Duration, bool) {
	return TimeRemaining(p.localize(order), now, p.Cutoff)
}

// Window describes the cancellation window of one order at one instant.
type Window struct {
	CanCancel        bool       `json:"canCancel"`
	RemainingSeconds int64      `json:"remainingSeconds"`
	Deadline         *time.Time `json:"deadline,omitempty"`
}

func (p Policy) Window(order models.Order, now time.Time) Window {
	order = p.localize(order)
	dl, ok := deadline(order, now, p.Cutoff)
	if !ok {
		return Window{}
	}
	return Window{
		CanCancel:        true,
		RemainingSeconds: int64(dl.Sub(now) / time.Second),
		Deadline:         &dl,
	}
}

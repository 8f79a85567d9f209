package domain

import "time"

// Slot is a half-open time interval [Start, End).
// swagger:model Slot
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewSlot returns the slot [start, end).
func NewSlot(start, end time.Time) Slot {
	return Slot{Start: start, End: end}
}

// Valid reports whether the slot is well-formed (start strictly before end).
func (s Slot) Valid() bool {
	return s.Start.Before(s.End)
}

// Overlaps reports whether the two slots share at least one instant.
// Adjacent slots such as [9,10) and [10,11) do not overlap.
func (s Slot) Overlaps(o Slot) bool {
	return s.Start.Before(o.End) && o.Start.Before(s.End)
}

// Contains reports whether o lies entirely inside s.
func (s Slot) Contains(o Slot) bool {
	return !o.Start.Before(s.Start) && !o.End.After(s.End)
}

// Duration returns End - Start.
func (s Slot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

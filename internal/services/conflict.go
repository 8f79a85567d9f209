package services

import (
	"cmp"
	"slices"
	"time"

	"eventservices/internal/domain"
)

type edge struct {
	at    time.Time
	delta int
}

// peakConcurrency returns the largest number of bookings that overlap a
// single instant of slot. Bookings are clipped to slot first; an end edge
// sorts before a start edge at the same instant since slots are half-open.
func peakConcurrency(bookings []*domain.Booking, slot domain.Slot) int {
	edges := make([]edge, 0, 2*len(bookings))
	for _, b := range bookings {
		start := b.Slot.Start
		if start.Before(slot.Start) {
			start = slot.Start
		}
		end := b.Slot.End
		if end.After(slot.End) {
			end = slot.End
		}
		if !start.Before(end) {
			continue
		}
		edges = append(edges, edge{start, 1}, edge{end, -1})
	}
	slices.SortFunc(edges, func(a, b edge) int {
		return cmp.Or(a.at.Compare(b.at), cmp.Compare(a.delta, b.delta))
	})

	cur, peak := 0, 0
	for _, e := range edges {
		cur += e.delta
		peak = max(peak, cur)
	}
	return peak
}

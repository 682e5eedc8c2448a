// internal/models/lodgement.go
package models

import "time"

// Lodgement is one physical housing unit. A nil BusyUntil means the unit is
// free now; the allocation engine sets BusyUntil when it binds an assignment,
// and an external process clears it when the term elapses.
type Lodgement struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Size        LodgementSize `json:"size"`
	Description string        `json:"description"`
	Location    string        `json:"location"`
	IsAvailable bool          `json:"isAvailable"`
	BusyUntil   *time.Time    `json:"busyUntil,omitempty"`
	QueueID     int64         `json:"queueId"`
}

// FreeNow reports whether the lodgement can be assigned immediately.
func (l Lodgement) FreeNow() bool {
	return l.BusyUntil == nil
}

// FreeBy reports whether the lodgement is free now or frees up by the given
// date. The boundary is inclusive.
func (l Lodgement) FreeBy(t time.Time) bool {
	return l.BusyUntil == nil || !l.BusyUntil.After(t)
}

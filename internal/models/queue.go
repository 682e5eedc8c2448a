// internal/models/queue.go
package models

import "fmt"

// Queue groups applications competing for a homogeneous class of lodgements.
// A queue is keyed by allocation policy, population type, and size class; every
// lodgement belongs to exactly one queue.
type Queue struct {
	ID            int64         `json:"id"`
	LodgementType LodgementType `json:"lodgementType"`
	PersonnelType PersonnelType `json:"personnelType"`
	LodgementSize LodgementSize `json:"lodgementSize"`
}

func (q Queue) Label() string {
	return fmt.Sprintf("%s - %s - %s", q.LodgementType, q.PersonnelType, q.LodgementSize)
}

// internal/models/assignment.go
package models

import "time"

// Assignment binds one application to one lodgement for a fixed date range.
// Created only by the allocation engine, always in status Locked.
type Assignment struct {
	ID            string           `json:"id"`
	ApplicationID int64            `json:"applicationId"`
	LodgementID   int64            `json:"lodgementId"`
	StartDate     time.Time        `json:"startDate"`
	EndDate       time.Time        `json:"endDate"`
	Status        AssignmentStatus `json:"status"`
	IsDepositPaid bool             `json:"isDepositPaid"`
	CreatedAt     time.Time        `json:"createdAt"`
}

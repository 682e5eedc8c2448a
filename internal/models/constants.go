// internal/models/constants.go
package models

// LodgementSize is the unit size class of a lodgement and its queue.
type LodgementSize int

const (
	SizeOnePlusOne LodgementSize = 1
	SizeTwoPlusOne LodgementSize = 2
)

func (s LodgementSize) String() string {
	switch s {
	case SizeOnePlusOne:
		return "1+1"
	case SizeTwoPlusOne:
		return "2+1"
	}
	return "unknown"
}

// LodgementType is the allocation policy dimension of a queue.
type LodgementType int

const (
	SequentialAllocation LodgementType = 1
	ServiceAllocation    LodgementType = 2
	DutyAllocation       LodgementType = 3
)

func (t LodgementType) String() string {
	switch t {
	case SequentialAllocation:
		return "Sequential Allocation"
	case ServiceAllocation:
		return "Service Allocation"
	case DutyAllocation:
		return "Duty Allocation"
	}
	return "unknown"
}

// PersonnelType is the population dimension of a queue.
type PersonnelType int

const (
	AcademicPersonnel       PersonnelType = 1
	AdministrativePersonnel PersonnelType = 2
	AttendantPersonnel      PersonnelType = 3
)

func (p PersonnelType) String() string {
	switch p {
	case AcademicPersonnel:
		return "Academic"
	case AdministrativePersonnel:
		return "Administrative"
	case AttendantPersonnel:
		return "Attendant"
	}
	return "unknown"
}

// ApplicationStatus is the lifecycle state of one applicant's claim on a queue.
type ApplicationStatus int

const (
	StatusInProgress ApplicationStatus = 1
	StatusPending    ApplicationStatus = 2
	StatusApproved   ApplicationStatus = 3
	StatusRejected   ApplicationStatus = 4
	StatusReUpload   ApplicationStatus = 5
	StatusCancelled  ApplicationStatus = 6
	StatusAssigned   ApplicationStatus = 7
)

func (s ApplicationStatus) String() string {
	switch s {
	case StatusInProgress:
		return "In Progress"
	case StatusPending:
		return "Pending"
	case StatusApproved:
		return "Approved"
	case StatusRejected:
		return "Rejected"
	case StatusReUpload:
		return "Re Upload"
	case StatusCancelled:
		return "Cancelled"
	case StatusAssigned:
		return "Assigned"
	}
	return "unknown"
}

// AssignmentStatus is the lifecycle state of an application/lodgement binding.
// Independent of ApplicationStatus.
type AssignmentStatus int

const (
	AssignmentLocked    AssignmentStatus = 1
	AssignmentActive    AssignmentStatus = 2
	AssignmentCancelled AssignmentStatus = 3
	AssignmentFinished  AssignmentStatus = 4
)

func (s AssignmentStatus) String() string {
	switch s {
	case AssignmentLocked:
		return "Locked"
	case AssignmentActive:
		return "Active"
	case AssignmentCancelled:
		return "Cancelled"
	case AssignmentFinished:
		return "Finished"
	}
	return "unknown"
}

// FieldType is the value kind of a scoring form item.
type FieldType int

const (
	FieldInteger FieldType = 1
	FieldBoolean FieldType = 2
	FieldText    FieldType = 3
)

func (t FieldType) String() string {
	switch t {
	case FieldInteger:
		return "Integer"
	case FieldBoolean:
		return "Boolean"
	case FieldText:
		return "Text"
	}
	return "unknown"
}

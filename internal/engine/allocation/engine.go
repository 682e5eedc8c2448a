// internal/engine/allocation/engine.go

// Package allocation binds approved applications to free lodgements. Every run
// is scoped to a single queue, executes inside one store transaction, and
// either applies all of its assignments or none of them.
package allocation

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"lodgement-workers/internal/common/errors"
	"lodgement-workers/internal/common/logger"
	"lodgement-workers/internal/engine/ranking"
	"lodgement-workers/internal/engine/scoring"
	"lodgement-workers/internal/models"
)

// Policy carries the allocation constants. All durations are calendar based.
type Policy struct {
	// AssignmentLeadDays is the offset from the run date to the tenancy start.
	AssignmentLeadDays int
	// AssignmentTermYears is the tenancy length from the start date.
	AssignmentTermYears int
	// FreeHorizonDays bounds how far ahead a busy unit may free up and still
	// be assignable in this run. The boundary is inclusive.
	FreeHorizonDays int
	// NewTenureYears is the employment-age cutoff separating the new cohort
	// from the old one in the balanced academic strategy.
	NewTenureYears int
	// NewShare is the target fraction of units held by the new cohort.
	NewShare float64
}

// DefaultPolicy returns the production allocation constants.
func DefaultPolicy() Policy {
	return Policy{
		AssignmentLeadDays:  30,
		AssignmentTermYears: 5,
		FreeHorizonDays:     30,
		NewTenureYears:      3,
		NewShare:            0.8,
	}
}

// Snapshot is the full allocation state of one queue, read under the queue
// lock. Applications preserve fetch order so equal scores rank consistently.
type Snapshot struct {
	Queue        models.Queue
	Applications []models.Application
	Lodgements   []models.Lodgement
	// Occupants maps lodgement ID to the employment start of the applicant on
	// the unit's most recent locked or active assignment. Units that never
	// held an assignment are absent.
	Occupants map[int64]time.Time
}

func (s *Snapshot) markAssigned(app models.Application, lodgementID int64, busyUntil time.Time) {
	for i := range s.Applications {
		if s.Applications[i].ID == app.ID {
			s.Applications[i].Status = models.StatusAssigned
		}
	}
	for i := range s.Lodgements {
		if s.Lodgements[i].ID == lodgementID {
			until := busyUntil
			s.Lodgements[i].BusyUntil = &until
		}
	}
	if s.Occupants == nil {
		s.Occupants = make(map[int64]time.Time)
	}
	s.Occupants[lodgementID] = app.EmploymentStart
}

// Tx is the mutation surface available inside a locked allocation run.
type Tx interface {
	Snapshot(ctx context.Context, queueID int64) (*Snapshot, error)
	InsertAssignment(ctx context.Context, a models.Assignment) error
	MarkLodgementBusy(ctx context.Context, lodgementID int64, until time.Time) error
	UpdateApplicationStatus(ctx context.Context, applicationID int64, status models.ApplicationStatus) error
}

// Store opens a locked transaction over one queue. The callback's error
// decides commit or rollback; concurrent runs on the same queue serialize.
type Store interface {
	WithQueueLock(ctx context.Context, queueID int64, fn func(ctx context.Context, tx Tx) error) error
}

// Engine executes allocation runs. Safe for concurrent use across queues.
type Engine struct {
	store  Store
	policy Policy
	logger logger.Logger
	now    func() time.Time
	newID  func() string
}

func NewEngine(store Store, policy Policy, log logger.Logger) *Engine {
	return &Engine{
		store:  store,
		policy: policy,
		logger: log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Run executes one allocation pass over the given queue and returns the
// assignments it created. Re-running a drained queue creates nothing: assigned
// applications leave the cohort and bound units stay busy past the horizon.
// Service-allocation queues return MANUAL_ALLOCATION_REQUIRED untouched.
func (e *Engine) Run(ctx context.Context, queueID int64) ([]models.Assignment, error) {
	var created []models.Assignment

	err := e.store.WithQueueLock(ctx, queueID, func(ctx context.Context, tx Tx) error {
		snap, err := tx.Snapshot(ctx, queueID)
		if err != nil {
			return err
		}

		switch {
		case snap.Queue.LodgementType == models.ServiceAllocation:
			return errors.NewManualAllocationRequiredError(queueID)
		case snap.Queue.LodgementType == models.SequentialAllocation &&
			snap.Queue.PersonnelType == models.AcademicPersonnel:
			created, err = e.runBalancedAcademic(ctx, tx, snap)
		default:
			created, err = e.runDefault(ctx, tx, snap)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Allocation run completed", map[string]interface{}{
		"queueId":     queueID,
		"assignments": len(created),
	})
	return created, nil
}

// runDefault pairs the ranked approved cohort with eligible units, best score
// to earliest unit, until either side runs out.
func (e *Engine) runDefault(ctx context.Context, tx Tx, snap *Snapshot) ([]models.Assignment, error) {
	now := e.now()
	ranked := e.rankApproved(snap, now)
	units := e.eligibleUnits(snap, now)

	n := len(ranked)
	if len(units) < n {
		n = len(units)
	}

	created := make([]models.Assignment, 0, n)
	for i := 0; i < n; i++ {
		asg, err := e.assign(ctx, tx, snap, ranked[i].Application, units[i], now)
		if err != nil {
			return nil, err
		}
		created = append(created, asg)
	}
	return created, nil
}

// runBalancedAcademic steers the queue's occupancy mix toward the configured
// new/old split. Each iteration re-partitions and re-ranks, because every
// assignment changes the state the next choice depends on.
func (e *Engine) runBalancedAcademic(ctx context.Context, tx Tx, snap *Snapshot) ([]models.Assignment, error) {
	now := e.now()
	cutoff := now.AddDate(-e.policy.NewTenureYears, 0, 0)

	total := 0
	for _, l := range snap.Lodgements {
		if l.IsAvailable {
			total++
		}
	}
	targetNew := e.policy.NewShare * float64(total)
	targetOld := (1 - e.policy.NewShare) * float64(total)

	var created []models.Assignment
	for {
		units := e.eligibleUnits(snap, now)
		if len(units) == 0 {
			break
		}

		newCohort, oldCohort := e.rankCohorts(snap, now, cutoff)
		if len(newCohort) == 0 && len(oldCohort) == 0 {
			break
		}

		curNew, curOld := e.occupantCounts(snap, cutoff)
		wantNew := preferNewHypothesis(curNew, curOld, targetNew, targetOld)

		var app models.Application
		switch {
		case wantNew && len(newCohort) > 0:
			app = newCohort[0].Application
		case !wantNew && len(oldCohort) > 0:
			app = oldCohort[0].Application
		case len(newCohort) > 0:
			// Preferred cohort is empty; fall back rather than stall.
			app = newCohort[0].Application
		default:
			app = oldCohort[0].Application
		}

		asg, err := e.assign(ctx, tx, snap, app, units[0], now)
		if err != nil {
			return nil, err
		}
		created = append(created, asg)
	}
	return created, nil
}

// preferNewHypothesis compares the two candidate futures by squared Euclidean
// distance to the target occupancy point. Ties go to the new cohort.
func preferNewHypothesis(curNew, curOld int, targetNew, targetOld float64) bool {
	distNew := sq(float64(curNew+1)-targetNew) + sq(float64(curOld)-targetOld)
	distOld := sq(float64(curNew)-targetNew) + sq(float64(curOld+1)-targetOld)
	return distNew <= distOld
}

func sq(x float64) float64 { return x * x }

// assign is the single mutation primitive: one assignment row, one busy unit,
// one status change, all through the same transaction, mirrored into the
// in-memory snapshot so the next iteration sees them.
func (e *Engine) assign(ctx context.Context, tx Tx, snap *Snapshot, app models.Application, unit models.Lodgement, now time.Time) (models.Assignment, error) {
	next, err := Transition(app.Status, EventAssign)
	if err != nil {
		return models.Assignment{}, err
	}

	start := now.AddDate(0, 0, e.policy.AssignmentLeadDays)
	end := start.AddDate(e.policy.AssignmentTermYears, 0, 0)

	asg := models.Assignment{
		ID:            e.newID(),
		ApplicationID: app.ID,
		LodgementID:   unit.ID,
		StartDate:     start,
		EndDate:       end,
		Status:        models.AssignmentLocked,
		CreatedAt:     now,
	}

	if err := tx.InsertAssignment(ctx, asg); err != nil {
		return models.Assignment{}, err
	}
	if err := tx.MarkLodgementBusy(ctx, unit.ID, end); err != nil {
		return models.Assignment{}, err
	}
	if err := tx.UpdateApplicationStatus(ctx, app.ID, next); err != nil {
		return models.Assignment{}, err
	}

	snap.markAssigned(app, unit.ID, end)

	e.logger.Debug("Assignment created", map[string]interface{}{
		"assignmentId":  asg.ID,
		"applicationId": app.ID,
		"lodgementId":   unit.ID,
		"startDate":     start.Format("2006-01-02"),
		"endDate":       end.Format("2006-01-02"),
	})
	return asg, nil
}

// rankApproved scores the approved cohort and orders it best first.
func (e *Engine) rankApproved(snap *Snapshot, now time.Time) []ranking.ScoredApplication {
	var scored []ranking.ScoredApplication
	for _, a := range snap.Applications {
		if a.Status != models.StatusApproved {
			continue
		}
		scored = append(scored, ranking.ScoredApplication{
			Application: a,
			Score:       scoring.TotalPoints(a.ScoringForm, now),
		})
	}
	return ranking.Order(scored)
}

// rankCohorts splits the approved cohort by employment age at the cutoff and
// ranks each half independently.
func (e *Engine) rankCohorts(snap *Snapshot, now, cutoff time.Time) (newCohort, oldCohort []ranking.ScoredApplication) {
	var newScored, oldScored []ranking.ScoredApplication
	for _, a := range snap.Applications {
		if a.Status != models.StatusApproved {
			continue
		}
		s := ranking.ScoredApplication{
			Application: a,
			Score:       scoring.TotalPoints(a.ScoringForm, now),
		}
		// A start exactly at the cutoff still counts as new.
		if !a.EmploymentStart.Before(cutoff) {
			newScored = append(newScored, s)
		} else {
			oldScored = append(oldScored, s)
		}
	}
	return ranking.Order(newScored), ranking.Order(oldScored)
}

// eligibleUnits returns assignable units in consumption order: free units
// first in fetch order, then busy units by ascending free date within the
// horizon. Administratively withheld units never qualify.
func (e *Engine) eligibleUnits(snap *Snapshot, now time.Time) []models.Lodgement {
	horizon := now.AddDate(0, 0, e.policy.FreeHorizonDays)

	var free, busy []models.Lodgement
	for _, l := range snap.Lodgements {
		if !l.IsAvailable {
			continue
		}
		switch {
		case l.FreeNow():
			free = append(free, l)
		case l.FreeBy(horizon):
			busy = append(busy, l)
		}
	}

	sort.SliceStable(busy, func(i, j int) bool {
		return busy[i].BusyUntil.Before(*busy[j].BusyUntil)
	})
	return append(free, busy...)
}

// occupantCounts tallies units currently held by each cohort. Units with no
// occupant on record count for neither side.
func (e *Engine) occupantCounts(snap *Snapshot, cutoff time.Time) (newCount, oldCount int) {
	for _, l := range snap.Lodgements {
		if !l.IsAvailable {
			continue
		}
		empStart, ok := snap.Occupants[l.ID]
		if !ok {
			continue
		}
		if !empStart.Before(cutoff) {
			newCount++
		} else {
			oldCount++
		}
	}
	return newCount, oldCount
}

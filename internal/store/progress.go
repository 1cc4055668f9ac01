package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/trailquest/internal/progression"
)

// PhaseProgress is a user's stored record for one phase. StartedAt is
// set iff the status is in_progress or completed; CompletedAt and Rating
// only when completed.
type PhaseProgress struct {
	UserID      string
	PhaseID     string
	Status      progression.Status
	StartedAt   *time.Time
	CompletedAt *time.Time
	Rating      *int
}

// ModuleProgress is a user's stored aggregate for one module.
type ModuleProgress struct {
	UserID      string
	ModuleID    string
	Progress    float64
	Completed   bool
	CompletedAt *time.Time
}

// ProgressRepo reads and writes per-user phase and module progress.
type ProgressRepo struct {
	s *Store
}

// ReadPhaseStatus returns the stored status, or Available when the user
// has never touched the phase.
func (r *ProgressRepo) ReadPhaseStatus(ctx context.Context, userID, phaseID string) (progression.Status, error) {
	p, err := r.PhaseProgress(ctx, userID, phaseID)
	if errors.Is(err, ErrNotFound) {
		return progression.StatusAvailable, nil
	}
	if err != nil {
		return "", err
	}
	return p.Status, nil
}

// PhaseProgress returns the full stored record or ErrNotFound.
func (r *ProgressRepo) PhaseProgress(ctx context.Context, userID, phaseID string) (*PhaseProgress, error) {
	p, err := r.readPhase(ctx, r.s.db, userID, phaseID)
	return p, classify("read phase progress", err)
}

func (r *ProgressRepo) readPhase(ctx context.Context, q querier, userID, phaseID string) (*PhaseProgress, error) {
	sel := r.s.sql.Select("status", "started_at", "completed_at", "rating").
		From(r.s.sql.Table(tablePhaseProgress)).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("phase_id", phaseID)))

	var (
		status    string
		started   sql.NullTime
		completed sql.NullTime
		rating    sql.NullInt64
	)
	err := queryRow(ctx, q, sel).Scan(&status, &started, &completed, &rating)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p := &PhaseProgress{
		UserID:      userID,
		PhaseID:     phaseID,
		Status:      progression.Status(status),
		StartedAt:   timePtr(started),
		CompletedAt: timePtr(completed),
	}
	if rating.Valid {
		v := int(rating.Int64)
		p.Rating = &v
	}
	return p, nil
}

// WritePhaseStatus moves a phase to status at the given instant. The
// transition is validated against the stored status inside the same
// transaction; writing the current status again is a no-op. rating is
// only accepted together with StatusCompleted.
func (r *ProgressRepo) WritePhaseStatus(ctx context.Context, userID, phaseID string, status progression.Status, at time.Time, rating *int) error {
	if !status.Valid() {
		return fmt.Errorf("write phase status: unknown status %q", status)
	}
	if rating != nil {
		if status != progression.StatusCompleted {
			return fmt.Errorf("write phase status: rating is only set on completion")
		}
		if err := progression.ValidateRating(rating); err != nil {
			return err
		}
	}
	at = at.UTC()

	return r.s.withTx(ctx, "write phase status", func(tx *sql.Tx) error {
		cur, err := r.readPhase(ctx, tx, userID, phaseID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		from := progression.StatusAvailable
		if cur != nil {
			from = cur.Status
		}
		if err := progression.Transition(from, status); err != nil {
			return err
		}
		if from == status && cur != nil {
			return nil
		}

		next := PhaseProgress{UserID: userID, PhaseID: phaseID, Status: status}
		if cur != nil {
			next.StartedAt = cur.StartedAt
		}
		if status != progression.StatusAvailable && next.StartedAt == nil {
			next.StartedAt = &at
		}
		if status == progression.StatusCompleted {
			next.CompletedAt = &at
			next.Rating = rating
		}

		ins := r.s.sql.Insert(tablePhaseProgress).
			Columns("user_id", "phase_id", "status", "started_at", "completed_at", "rating", "updated_at").
			Values(userID, phaseID, string(status), nullTime(next.StartedAt), nullTime(next.CompletedAt), nullInt(next.Rating), r.s.timestamp()).
			OnConflict(
				entsql.ConflictColumns("user_id", "phase_id"),
				entsql.ResolveWithNewValues(),
			)
		_, err = exec(ctx, tx, ins)
		return err
	})
}

// ModulePhaseStates returns every phase of a module ordered by
// order_index, joined with the user's stored status. Phases the user has
// not touched report an empty status, which the trail treats as
// Available.
func (r *ProgressRepo) ModulePhaseStates(ctx context.Context, userID, moduleID string) ([]progression.PhaseState, error) {
	phases := r.s.sql.Table(tablePhases).As("p")
	progress := r.s.sql.Table(tablePhaseProgress).As("pp")
	sel := r.s.sql.Select(phases.C("id"), phases.C("order_index"), progress.C("status")).
		From(phases).
		LeftJoin(progress).
		OnP(entsql.And(
			entsql.ColumnsEQ(phases.C("id"), progress.C("phase_id")),
			entsql.EQ(progress.C("user_id"), userID),
		)).
		Where(entsql.EQ(phases.C("module_id"), moduleID)).
		OrderBy(phases.C("order_index"))

	rows, err := queryRows(ctx, r.s.db, sel)
	if err != nil {
		return nil, classify("module phase states", err)
	}
	defer rows.Close()

	var states []progression.PhaseState
	for rows.Next() {
		var (
			st     progression.PhaseState
			status sql.NullString
		)
		if err := rows.Scan(&st.PhaseID, &st.OrderIndex, &status); err != nil {
			return nil, classify("scan phase state", err)
		}
		st.Status = progression.Status(status.String)
		states = append(states, st)
	}
	return states, classify("module phase states", rows.Err())
}

// ReadModuleProgress returns the stored percentage, 0 when absent.
func (r *ProgressRepo) ReadModuleProgress(ctx context.Context, userID, moduleID string) (float64, error) {
	mp, err := r.ModuleProgress(ctx, userID, moduleID)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return mp.Progress, nil
}

// ModuleProgress returns the full stored record or ErrNotFound.
func (r *ProgressRepo) ModuleProgress(ctx context.Context, userID, moduleID string) (*ModuleProgress, error) {
	mp, err := r.readModule(ctx, r.s.db, userID, moduleID)
	return mp, classify("read module progress", err)
}

func (r *ProgressRepo) readModule(ctx context.Context, q querier, userID, moduleID string) (*ModuleProgress, error) {
	sel := r.s.sql.Select("progress", "completed", "completed_at").
		From(r.s.sql.Table(tableModuleProgress)).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("module_id", moduleID)))

	mp := &ModuleProgress{UserID: userID, ModuleID: moduleID}
	var completedAt sql.NullTime
	err := queryRow(ctx, q, sel).Scan(&mp.Progress, &mp.Completed, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	mp.CompletedAt = timePtr(completedAt)
	return mp, nil
}

// WriteModuleProgress stores a module percentage. Progress never moves
// backwards and completion is sticky; completed requires 100 percent.
func (r *ProgressRepo) WriteModuleProgress(ctx context.Context, userID, moduleID string, progress float64, completed bool, at time.Time) error {
	if progress < 0 || progress > 100 {
		return fmt.Errorf("write module progress: %.2f out of range", progress)
	}
	if completed && progress < 100 {
		return fmt.Errorf("write module progress: completed module at %.2f%%", progress)
	}
	at = at.UTC()

	return r.s.withTx(ctx, "write module progress", func(tx *sql.Tx) error {
		cur, err := r.readModule(ctx, tx, userID, moduleID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		next := ModuleProgress{Progress: progress, Completed: completed}
		if completed {
			next.CompletedAt = &at
		}
		if cur != nil {
			next.Progress = progression.MonotonicProgress(cur.Progress, progress)
			if cur.Completed {
				next.Completed = true
				next.CompletedAt = cur.CompletedAt
			}
		}

		ins := r.s.sql.Insert(tableModuleProgress).
			Columns("user_id", "module_id", "progress", "completed", "completed_at", "updated_at").
			Values(userID, moduleID, next.Progress, next.Completed, nullTime(next.CompletedAt), r.s.timestamp()).
			OnConflict(
				entsql.ConflictColumns("user_id", "module_id"),
				entsql.ResolveWithNewValues(),
			)
		_, err = exec(ctx, tx, ins)
		return err
	})
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/trailquest/internal/calendar"
	"github.com/abhisek/trailquest/internal/rewards"
)

// Profile is the per-user record: running reward totals plus the streak.
type Profile struct {
	UserID     string
	Totals     rewards.Totals
	StreakDays int
	LastLogin  *calendar.Date
	CreatedAt  time.Time
}

// ProfileRepo reads and updates user profiles.
type ProfileRepo struct {
	s *Store
}

// EnsureProfile creates an empty profile for userID if none exists.
func (r *ProfileRepo) EnsureProfile(ctx context.Context, userID string) error {
	return classify("ensure profile", ensureProfile(ctx, r.s, r.s.db, userID, r.s.timestamp()))
}

// Profile returns the user's profile or ErrNotFound.
func (r *ProfileRepo) Profile(ctx context.Context, userID string) (*Profile, error) {
	sel := r.s.sql.Select("xp", "coins", "level", "streak_days", "last_login", "created_at").
		From(r.s.sql.Table(tableProfiles)).
		Where(entsql.EQ("user_id", userID))

	p := &Profile{UserID: userID}
	var last sql.NullString
	err := queryRow(ctx, r.s.db, sel).Scan(&p.Totals.XP, &p.Totals.Coins, &p.Totals.Level, &p.StreakDays, &last, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, classify("read profile", err)
	}
	if last.Valid && last.String != "" {
		d, err := calendar.ParseDate(last.String)
		if err != nil {
			return nil, fmt.Errorf("read profile %s: last_login: %w", userID, err)
		}
		p.LastLogin = &d
	}
	return p, nil
}

// CompareAndSetStreak stores a new streak only if last_login still equals
// expected (nil meaning never logged in). It returns ErrStaleWrite when
// another session updated the streak first.
func (r *ProfileRepo) CompareAndSetStreak(ctx context.Context, userID string, expected *calendar.Date, lastLogin calendar.Date, streakDays int) error {
	guard := entsql.IsNull("last_login")
	if expected != nil {
		guard = entsql.EQ("last_login", expected.String())
	}
	upd := r.s.sql.Update(tableProfiles).
		Set("streak_days", streakDays).
		Set("last_login", lastLogin.String()).
		Set("updated_at", r.s.timestamp()).
		Where(entsql.And(entsql.EQ("user_id", userID), guard))

	res, err := exec(ctx, r.s.db, upd)
	if err != nil {
		return classify("update streak", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("update streak", err)
	}
	if n == 0 {
		return ErrStaleWrite
	}
	return nil
}

func ensureProfile(ctx context.Context, s *Store, q querier, userID string, now time.Time) error {
	ins := s.sql.Insert(tableProfiles).
		Columns("user_id", "xp", "coins", "level", "streak_days", "created_at", "updated_at").
		Values(userID, 0, 0, 1, 0, now, now).
		OnConflict(
			entsql.ConflictColumns("user_id"),
			entsql.DoNothing(),
		)
	_, err := exec(ctx, q, ins)
	return err
}

func readTotals(ctx context.Context, s *Store, q querier, userID string) (rewards.Totals, error) {
	sel := s.sql.Select("xp", "coins", "level").
		From(s.sql.Table(tableProfiles)).
		Where(entsql.EQ("user_id", userID))

	var t rewards.Totals
	err := queryRow(ctx, q, sel).Scan(&t.XP, &t.Coins, &t.Level)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	return t, err
}

func writeLevel(ctx context.Context, s *Store, q querier, userID string, level int, now time.Time) error {
	upd := s.sql.Update(tableProfiles).
		Set("level", level).
		Set("updated_at", now).
		Where(entsql.EQ("user_id", userID))
	_, err := exec(ctx, q, upd)
	return err
}

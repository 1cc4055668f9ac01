package store

import (
	"context"
	"database/sql"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/trailquest/internal/rewards"
)

// GrantRepo is the durable reward ledger. It implements rewards.Repo.
type GrantRepo struct {
	s *Store
}

var _ rewards.Repo = (*GrantRepo)(nil)

// InsertGrant records g unless its claim key is taken. The unique index
// on (user_id, source, reference_id, claim_day) decides races: exactly
// one concurrent insert affects a row.
func (r *GrantRepo) InsertGrant(ctx context.Context, g rewards.Grant) (bool, error) {
	ins := r.s.sql.Insert(tableRewardGrants).
		Columns("id", "user_id", "source", "reference_id", "claim_day", "xp", "coins", "badge_id", "granted_at").
		Values(g.ID, g.Key.UserID, string(g.Key.Source), g.Key.ReferenceID, g.Key.Day,
			g.Amount.XP, g.Amount.Coins, g.BadgeID, g.GrantedAt.UTC()).
		OnConflict(
			entsql.ConflictColumns("user_id", "source", "reference_id", "claim_day"),
			entsql.DoNothing(),
		)

	res, err := exec(ctx, r.s.db, ins)
	if err != nil {
		return false, classify("insert grant", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classify("insert grant", err)
	}
	return n == 1, nil
}

// ApplyGrant adds g to the user's totals and marks it applied in one
// transaction. A grant that is already applied leaves totals unchanged.
func (r *GrantRepo) ApplyGrant(ctx context.Context, g rewards.Grant) (rewards.Totals, error) {
	var totals rewards.Totals
	err := r.s.withTx(ctx, "apply grant", func(tx *sql.Tx) error {
		now := r.s.timestamp()
		if err := ensureProfile(ctx, r.s, tx, g.Key.UserID, now); err != nil {
			return err
		}

		mark := r.s.sql.Update(tableRewardGrants).
			Set("applied_at", now).
			Where(entsql.And(entsql.EQ("id", g.ID), entsql.IsNull("applied_at")))
		res, err := exec(ctx, tx, mark)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}

		if n == 1 {
			add := r.s.sql.Update(tableProfiles).
				Add("xp", g.Amount.XP).
				Add("coins", g.Amount.Coins).
				Set("updated_at", now).
				Where(entsql.EQ("user_id", g.Key.UserID))
			if _, err := exec(ctx, tx, add); err != nil {
				return err
			}
		}

		totals, err = readTotals(ctx, r.s, tx, g.Key.UserID)
		if err != nil {
			return err
		}
		totals.Level = rewards.Level(totals.XP)
		return writeLevel(ctx, r.s, tx, g.Key.UserID, totals.Level, now)
	})
	return totals, err
}

// SumGrants totals every ledger row of a user.
func (r *GrantRepo) SumGrants(ctx context.Context, userID string) (rewards.Amount, error) {
	sel := r.s.sql.Select(entsql.Sum("xp"), entsql.Sum("coins")).
		From(r.s.sql.Table(tableRewardGrants)).
		Where(entsql.EQ("user_id", userID))

	var xp, coins sql.NullInt64
	if err := queryRow(ctx, r.s.db, sel).Scan(&xp, &coins); err != nil {
		return rewards.Amount{}, classify("sum grants", err)
	}
	return rewards.Amount{XP: int(xp.Int64), Coins: int(coins.Int64)}, nil
}

// SetTotals overwrites the user's totals and marks every pending grant
// as applied.
func (r *GrantRepo) SetTotals(ctx context.Context, userID string, t rewards.Totals) error {
	return r.s.withTx(ctx, "set totals", func(tx *sql.Tx) error {
		now := r.s.timestamp()
		if err := ensureProfile(ctx, r.s, tx, userID, now); err != nil {
			return err
		}
		upd := r.s.sql.Update(tableProfiles).
			Set("xp", t.XP).
			Set("coins", t.Coins).
			Set("level", t.Level).
			Set("updated_at", now).
			Where(entsql.EQ("user_id", userID))
		if _, err := exec(ctx, tx, upd); err != nil {
			return err
		}
		mark := r.s.sql.Update(tableRewardGrants).
			Set("applied_at", now).
			Where(entsql.And(entsql.EQ("user_id", userID), entsql.IsNull("applied_at")))
		_, err := exec(ctx, tx, mark)
		return err
	})
}

// ListGrants returns a user's ledger in grant order.
func (r *GrantRepo) ListGrants(ctx context.Context, userID string) ([]rewards.Grant, error) {
	sel := r.s.sql.Select("id", "source", "reference_id", "claim_day", "xp", "coins", "badge_id", "granted_at").
		From(r.s.sql.Table(tableRewardGrants)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy("granted_at", "id")

	rows, err := queryRows(ctx, r.s.db, sel)
	if err != nil {
		return nil, classify("list grants", err)
	}
	defer rows.Close()

	var grants []rewards.Grant
	for rows.Next() {
		g := rewards.Grant{Key: rewards.ClaimKey{UserID: userID}}
		var (
			source    string
			grantedAt time.Time
		)
		if err := rows.Scan(&g.ID, &source, &g.Key.ReferenceID, &g.Key.Day,
			&g.Amount.XP, &g.Amount.Coins, &g.BadgeID, &grantedAt); err != nil {
			return nil, classify("scan grant", err)
		}
		g.Key.Source = rewards.Source(source)
		g.GrantedAt = grantedAt.UTC()
		grants = append(grants, g)
	}
	return grants, classify("list grants", rows.Err())
}

// PendingCount returns how many of the user's grants are not yet
// reflected in the running totals.
func (r *GrantRepo) PendingCount(ctx context.Context, userID string) (int, error) {
	sel := r.s.sql.Select(entsql.Count("*")).
		From(r.s.sql.Table(tableRewardGrants)).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.IsNull("applied_at")))

	var n int
	if err := queryRow(ctx, r.s.db, sel).Scan(&n); err != nil {
		return 0, classify("count pending grants", err)
	}
	return n, nil
}

// Badges returns the badge ids a user has earned, oldest first.
func (r *GrantRepo) Badges(ctx context.Context, userID string) ([]string, error) {
	sel := r.s.sql.Select("badge_id").
		From(r.s.sql.Table(tableRewardGrants)).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.NEQ("badge_id", ""))).
		OrderBy("granted_at", "id")

	rows, err := queryRows(ctx, r.s.db, sel)
	if err != nil {
		return nil, classify("list badges", err)
	}
	defer rows.Close()

	var badges []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, classify("scan badge", err)
		}
		badges = append(badges, b)
	}
	return badges, classify("list badges", rows.Err())
}

// UserIDs returns every user with a profile or a ledger row.
func (r *GrantRepo) UserIDs(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, table := range []string{tableProfiles, tableRewardGrants} {
		sel := r.s.sql.Select("user_id").
			Distinct().
			From(r.s.sql.Table(table)).
			OrderBy("user_id")
		rows, err := queryRows(ctx, r.s.db, sel)
		if err != nil {
			return nil, classify("list users", err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, classify("scan user", err)
			}
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, classify("list users", err)
		}
	}
	return ids, nil
}

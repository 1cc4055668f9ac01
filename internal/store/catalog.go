package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/trailquest/internal/progression"
	"github.com/abhisek/trailquest/internal/rewards"
)

// Module is a stored content module with its phases in order.
type Module struct {
	ID        string
	Title     string
	Version   string
	Bonus     rewards.Amount
	Phases    []progression.Phase
	UpdatedAt time.Time
}

// CatalogRepo stores module and phase definitions. A repo handed out by
// InTx runs every read and write inside that transaction.
type CatalogRepo struct {
	s  *Store
	tx *sql.Tx
}

func (r *CatalogRepo) db() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.s.db
}

// InTx runs fn against a repo bound to one transaction, committed only if
// fn returns nil.
func (r *CatalogRepo) InTx(ctx context.Context, fn func(*CatalogRepo) error) error {
	if r.tx != nil {
		return fn(r)
	}
	return r.s.withTx(ctx, "catalog", func(tx *sql.Tx) error {
		return fn(&CatalogRepo{s: r.s, tx: tx})
	})
}

// UpsertModule replaces a module and its full phase list atomically.
// Progress rows are keyed by phase id and survive the replacement.
func (r *CatalogRepo) UpsertModule(ctx context.Context, m Module) error {
	return r.InTx(ctx, func(r *CatalogRepo) error {
		tx := r.tx
		now := r.s.timestamp()
		ins := r.s.sql.Insert(tableModules).
			Columns("id", "title", "version", "bonus_xp", "bonus_coins", "updated_at").
			Values(m.ID, m.Title, m.Version, m.Bonus.XP, m.Bonus.Coins, now).
			OnConflict(
				entsql.ConflictColumns("id"),
				entsql.ResolveWithNewValues(),
			)
		if _, err := exec(ctx, tx, ins); err != nil {
			return err
		}

		del := r.s.sql.Delete(tablePhases).Where(entsql.EQ("module_id", m.ID))
		if _, err := exec(ctx, tx, del); err != nil {
			return err
		}
		if len(m.Phases) == 0 {
			return nil
		}

		insPhases := r.s.sql.Insert(tablePhases).
			Columns("id", "module_id", "order_index", "kind", "title", "xp", "coins")
		for _, p := range m.Phases {
			insPhases.Values(p.ID, m.ID, p.OrderIndex, string(p.Kind), p.Title, p.XP, p.Coins)
		}
		_, err := exec(ctx, tx, insPhases)
		return err
	})
}

// Module returns a module with its phases ordered by order_index, or
// ErrNotFound.
func (r *CatalogRepo) Module(ctx context.Context, id string) (*Module, error) {
	sel := r.s.sql.Select("id", "title", "version", "bonus_xp", "bonus_coins", "updated_at").
		From(r.s.sql.Table(tableModules)).
		Where(entsql.EQ("id", id))

	m, err := scanModule(queryRow(ctx, r.db(), sel))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, classify("read module", err)
	}
	if m.Phases, err = r.phases(ctx, id); err != nil {
		return nil, err
	}
	return m, nil
}

// Modules lists every module ordered by id, phases included.
func (r *CatalogRepo) Modules(ctx context.Context) ([]Module, error) {
	sel := r.s.sql.Select("id", "title", "version", "bonus_xp", "bonus_coins", "updated_at").
		From(r.s.sql.Table(tableModules)).
		OrderBy("id")

	rows, err := queryRows(ctx, r.db(), sel)
	if err != nil {
		return nil, classify("list modules", err)
	}
	var modules []Module
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			rows.Close()
			return nil, classify("scan module", err)
		}
		modules = append(modules, *m)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, classify("list modules", err)
	}

	for i := range modules {
		if modules[i].Phases, err = r.phases(ctx, modules[i].ID); err != nil {
			return nil, err
		}
	}
	return modules, nil
}

// ModuleForPhase returns the id of the module containing phaseID.
func (r *CatalogRepo) ModuleForPhase(ctx context.Context, phaseID string) (string, error) {
	sel := r.s.sql.Select("module_id").
		From(r.s.sql.Table(tablePhases)).
		Where(entsql.EQ("id", phaseID))

	var moduleID string
	err := queryRow(ctx, r.db(), sel).Scan(&moduleID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return moduleID, classify("module for phase", err)
}

func (r *CatalogRepo) phases(ctx context.Context, moduleID string) ([]progression.Phase, error) {
	sel := r.s.sql.Select("id", "order_index", "kind", "title", "xp", "coins").
		From(r.s.sql.Table(tablePhases)).
		Where(entsql.EQ("module_id", moduleID)).
		OrderBy("order_index")

	rows, err := queryRows(ctx, r.db(), sel)
	if err != nil {
		return nil, classify("list phases", err)
	}
	defer rows.Close()

	var phases []progression.Phase
	for rows.Next() {
		p := progression.Phase{ModuleID: moduleID}
		var kind string
		if err := rows.Scan(&p.ID, &p.OrderIndex, &kind, &p.Title, &p.XP, &p.Coins); err != nil {
			return nil, classify("scan phase", err)
		}
		p.Kind = progression.PhaseKind(kind)
		phases = append(phases, p)
	}
	return phases, classify("list phases", rows.Err())
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanModule(row rowScanner) (*Module, error) {
	var m Module
	if err := row.Scan(&m.ID, &m.Title, &m.Version, &m.Bonus.XP, &m.Bonus.Coins, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.UpdatedAt = m.UpdatedAt.UTC()
	return &m, nil
}

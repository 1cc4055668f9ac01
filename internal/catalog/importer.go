package catalog

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/mod/semver"

	"github.com/abhisek/trailquest/internal/logger"
	"github.com/abhisek/trailquest/internal/rewards"
	"github.com/abhisek/trailquest/internal/store"
)

// ErrVersionConflict indicates a module definition changed without a
// version bump. The completion reward must be stable for a given module
// version, so this is rejected rather than overwritten.
type ErrVersionConflict struct {
	ModuleID string
	Version  string
	Reason   string
}

func (e *ErrVersionConflict) Error() string {
	return fmt.Sprintf("module %q %s: %s without a version bump", e.ModuleID, e.Version, e.Reason)
}

// ModuleRepo is the storage an import plans against and writes to.
type ModuleRepo interface {
	Module(ctx context.Context, id string) (*store.Module, error)
	UpsertModule(ctx context.Context, m store.Module) error
}

// Action is what an import did with one module.
type Action string

const (
	ActionAdded     Action = "added"
	ActionUpdated   Action = "updated"
	ActionUnchanged Action = "unchanged"
	ActionSkipped   Action = "skipped" // stored version is newer
)

// ModuleResult reports the import outcome of one module.
type ModuleResult struct {
	ModuleID string
	Version  string
	Previous string
	Action   Action
}

// Importer loads catalogs into the store.
type Importer struct {
	repo *store.CatalogRepo
	log  *logger.Logger
}

// NewImporter creates an importer. log may be nil.
func NewImporter(repo *store.CatalogRepo, log *logger.Logger) *Importer {
	return &Importer{repo: repo, log: logger.OrNop(log)}
}

// Import plans and writes every module in one transaction. A version
// conflict or a failed write leaves the store unchanged.
func (im *Importer) Import(ctx context.Context, cat *Catalog) ([]ModuleResult, error) {
	var results []ModuleResult
	err := im.repo.InTx(ctx, func(repo *store.CatalogRepo) error {
		var err error
		results, err = apply(ctx, repo, cat)
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, res := range results {
		if res.Action == ActionAdded || res.Action == ActionUpdated {
			im.log.Info("module imported", "module", res.ModuleID, "version", res.Version, "action", string(res.Action))
		}
	}
	return results, nil
}

func apply(ctx context.Context, repo ModuleRepo, cat *Catalog) ([]ModuleResult, error) {
	results := make([]ModuleResult, 0, len(cat.Modules))
	for _, m := range cat.Modules {
		res, err := plan(ctx, repo, m)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	for i, res := range results {
		if res.Action != ActionAdded && res.Action != ActionUpdated {
			continue
		}
		if err := repo.UpsertModule(ctx, cat.Modules[i].ToStore()); err != nil {
			return nil, fmt.Errorf("import module %q: %w", res.ModuleID, err)
		}
	}
	return results, nil
}

func plan(ctx context.Context, repo ModuleRepo, m Module) (ModuleResult, error) {
	res := ModuleResult{ModuleID: m.ID, Version: m.Version}

	existing, err := repo.Module(ctx, m.ID)
	if errors.Is(err, store.ErrNotFound) {
		res.Action = ActionAdded
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("read module %q: %w", m.ID, err)
	}
	res.Previous = existing.Version

	switch cmp := semver.Compare(m.Version, existing.Version); {
	case cmp > 0:
		res.Action = ActionUpdated
	case cmp < 0:
		res.Action = ActionSkipped
	default:
		next := m.ToStore()
		if rewards.ModuleReward(next.Phases, next.Bonus) != rewards.ModuleReward(existing.Phases, existing.Bonus) {
			return res, &ErrVersionConflict{ModuleID: m.ID, Version: m.Version, Reason: "completion reward changed"}
		}
		if !samePhases(next, *existing) {
			return res, &ErrVersionConflict{ModuleID: m.ID, Version: m.Version, Reason: "phases changed"}
		}
		res.Action = ActionUnchanged
		if next.Title != existing.Title {
			// Cosmetic edits do not need a version bump.
			res.Action = ActionUpdated
		}
	}
	return res, nil
}

func samePhases(a, b store.Module) bool {
	if len(a.Phases) != len(b.Phases) {
		return false
	}
	for i := range a.Phases {
		pa, pb := a.Phases[i], b.Phases[i]
		if pa.ID != pb.ID || pa.OrderIndex != pb.OrderIndex || pa.Kind != pb.Kind ||
			pa.XP != pb.XP || pa.Coins != pb.Coins {
			return false
		}
	}
	return true
}

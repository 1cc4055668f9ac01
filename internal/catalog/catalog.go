package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"

	"github.com/abhisek/trailquest/internal/progression"
	"github.com/abhisek/trailquest/internal/rewards"
	"github.com/abhisek/trailquest/internal/store"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "schema://trailquest/catalog.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// Catalog is the content definition file: modules and their phases.
type Catalog struct {
	Modules []Module `json:"modules"`
}

// Module defines one module at one version.
type Module struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Version         string  `json:"version"`
	CompletionBonus Reward  `json:"completion_bonus"`
	Phases          []Phase `json:"phases"`
}

// Phase defines one phase of a module.
type Phase struct {
	ID         string `json:"id"`
	OrderIndex int    `json:"order_index"`
	Kind       string `json:"kind"`
	Title      string `json:"title"`
	XP         int    `json:"xp"`
	Coins      int    `json:"coins"`
}

// Reward is an XP/coin pair in catalog form.
type Reward struct {
	XP    int `json:"xp"`
	Coins int `json:"coins"`
}

// Parse decodes and validates a catalog. Schema violations and
// structural problems are reported together; ordering problems are
// *progression.ErrInvalidOrdering values inside the joined error.
func Parse(raw []byte) (*Catalog, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse catalog: invalid JSON: %w", err)
	}

	sch, err := catalogSchema()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("catalog schema validation failed: %w", err)
	}

	var cat Catalog
	if err := json.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	for i := range cat.Modules {
		cat.Modules[i].Version = canonicalVersion(cat.Modules[i].Version)
	}
	if err := validate(&cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

func catalogSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			compileErr = fmt.Errorf("parse catalog schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// canonicalVersion accepts "1.2.0" as well as "v1.2.0".
func canonicalVersion(v string) string {
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// validate performs the checks a schema cannot express.
func validate(cat *Catalog) error {
	var errs []error

	moduleIDs := make(map[string]bool, len(cat.Modules))
	phaseOwner := make(map[string]string)
	for _, m := range cat.Modules {
		if moduleIDs[m.ID] {
			errs = append(errs, fmt.Errorf("duplicate module ID: %q", m.ID))
		}
		moduleIDs[m.ID] = true

		if !semver.IsValid(m.Version) {
			errs = append(errs, fmt.Errorf("module %q: invalid semantic version %q", m.ID, m.Version))
		}
		if len(m.Phases) == 0 {
			errs = append(errs, fmt.Errorf("module %q has no phases", m.ID))
		}

		for _, p := range m.Phases {
			if owner, ok := phaseOwner[p.ID]; ok {
				errs = append(errs, fmt.Errorf("duplicate phase ID %q in modules %q and %q", p.ID, owner, m.ID))
			}
			phaseOwner[p.ID] = m.ID
		}

		// Ties are a configuration error; the file may list phases in
		// any order, so compare after sorting.
		sorted := m.sortedPhases()
		for i := 1; i < len(sorted); i++ {
			if sorted[i].OrderIndex == sorted[i-1].OrderIndex {
				errs = append(errs, &progression.ErrInvalidOrdering{
					ModuleID:   m.ID,
					PhaseID:    sorted[i].ID,
					OrderIndex: sorted[i].OrderIndex,
					Previous:   sorted[i-1].OrderIndex,
				})
			}
		}
	}

	return errors.Join(errs...)
}

func (m Module) sortedPhases() []Phase {
	phases := append([]Phase(nil), m.Phases...)
	sort.SliceStable(phases, func(i, j int) bool {
		return phases[i].OrderIndex < phases[j].OrderIndex
	})
	return phases
}

// Bonus returns the module completion bonus.
func (m Module) Bonus() rewards.Amount {
	return rewards.Amount{XP: m.CompletionBonus.XP, Coins: m.CompletionBonus.Coins}
}

// ToStore converts the definition to its stored form, phases ordered by
// order_index.
func (m Module) ToStore() store.Module {
	sm := store.Module{
		ID:      m.ID,
		Title:   m.Title,
		Version: m.Version,
		Bonus:   m.Bonus(),
	}
	for _, p := range m.sortedPhases() {
		sm.Phases = append(sm.Phases, progression.Phase{
			ID:         p.ID,
			ModuleID:   m.ID,
			OrderIndex: p.OrderIndex,
			Kind:       progression.PhaseKind(p.Kind),
			Title:      p.Title,
			XP:         p.XP,
			Coins:      p.Coins,
		})
	}
	return sm
}

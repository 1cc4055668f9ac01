package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column declarations fed to ent's migrator. Locked is never a
// column: it is derived from the neighbouring phase on every read.

const (
	tableProfiles       = "user_profiles"
	tableModules        = "modules"
	tablePhases         = "phases"
	tablePhaseProgress  = "phase_progress"
	tableModuleProgress = "module_progress"
	tableRewardGrants   = "reward_grants"
)

var (
	profileColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeString, Size: 128},
		{Name: "xp", Type: field.TypeInt, Default: 0},
		{Name: "coins", Type: field.TypeInt, Default: 0},
		{Name: "level", Type: field.TypeInt, Default: 1},
		{Name: "streak_days", Type: field.TypeInt, Default: 0},
		{Name: "last_login", Type: field.TypeString, Size: 10, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	profilesTable = &schema.Table{
		Name:       tableProfiles,
		Columns:    profileColumns,
		PrimaryKey: []*schema.Column{profileColumns[0]},
	}

	moduleColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 128},
		{Name: "title", Type: field.TypeString},
		{Name: "version", Type: field.TypeString, Size: 64},
		{Name: "bonus_xp", Type: field.TypeInt, Default: 0},
		{Name: "bonus_coins", Type: field.TypeInt, Default: 0},
		{Name: "updated_at", Type: field.TypeTime},
	}
	modulesTable = &schema.Table{
		Name:       tableModules,
		Columns:    moduleColumns,
		PrimaryKey: []*schema.Column{moduleColumns[0]},
	}

	phaseColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 128},
		{Name: "module_id", Type: field.TypeString, Size: 128},
		{Name: "order_index", Type: field.TypeInt},
		{Name: "kind", Type: field.TypeString, Size: 32},
		{Name: "title", Type: field.TypeString},
		{Name: "xp", Type: field.TypeInt, Default: 0},
		{Name: "coins", Type: field.TypeInt, Default: 0},
	}
	phasesTable = &schema.Table{
		Name:       tablePhases,
		Columns:    phaseColumns,
		PrimaryKey: []*schema.Column{phaseColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "phase_module_order",
				Unique:  true,
				Columns: []*schema.Column{phaseColumns[1], phaseColumns[2]},
			},
		},
	}

	phaseProgressColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeString, Size: 128},
		{Name: "phase_id", Type: field.TypeString, Size: 128},
		{Name: "status", Type: field.TypeString, Size: 32},
		{Name: "started_at", Type: field.TypeTime, Nullable: true},
		{Name: "completed_at", Type: field.TypeTime, Nullable: true},
		{Name: "rating", Type: field.TypeInt, Nullable: true},
		{Name: "updated_at", Type: field.TypeTime},
	}
	phaseProgressTable = &schema.Table{
		Name:       tablePhaseProgress,
		Columns:    phaseProgressColumns,
		PrimaryKey: []*schema.Column{phaseProgressColumns[0], phaseProgressColumns[1]},
	}

	moduleProgressColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeString, Size: 128},
		{Name: "module_id", Type: field.TypeString, Size: 128},
		{Name: "progress", Type: field.TypeFloat64, Default: 0},
		{Name: "completed", Type: field.TypeBool, Default: false},
		{Name: "completed_at", Type: field.TypeTime, Nullable: true},
		{Name: "updated_at", Type: field.TypeTime},
	}
	moduleProgressTable = &schema.Table{
		Name:       tableModuleProgress,
		Columns:    moduleProgressColumns,
		PrimaryKey: []*schema.Column{moduleProgressColumns[0], moduleProgressColumns[1]},
	}

	// claim_day is empty for one-shot grants, so one unique index enforces
	// both the one-shot and the day-scoped claim key.
	rewardGrantColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 64},
		{Name: "user_id", Type: field.TypeString, Size: 128},
		{Name: "source", Type: field.TypeString, Size: 64},
		{Name: "reference_id", Type: field.TypeString, Size: 128},
		{Name: "claim_day", Type: field.TypeString, Size: 10, Default: ""},
		{Name: "xp", Type: field.TypeInt, Default: 0},
		{Name: "coins", Type: field.TypeInt, Default: 0},
		{Name: "badge_id", Type: field.TypeString, Size: 128, Default: ""},
		{Name: "granted_at", Type: field.TypeTime},
		{Name: "applied_at", Type: field.TypeTime, Nullable: true},
	}
	rewardGrantsTable = &schema.Table{
		Name:       tableRewardGrants,
		Columns:    rewardGrantColumns,
		PrimaryKey: []*schema.Column{rewardGrantColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "reward_grant_claim_key",
				Unique:  true,
				Columns: []*schema.Column{rewardGrantColumns[1], rewardGrantColumns[2], rewardGrantColumns[3], rewardGrantColumns[4]},
			},
			{
				Name:    "reward_grant_user_applied",
				Columns: []*schema.Column{rewardGrantColumns[1], rewardGrantColumns[9]},
			},
		},
	}

	// tables lists every table in migration order.
	tables = []*schema.Table{
		profilesTable,
		modulesTable,
		phasesTable,
		phaseProgressTable,
		moduleProgressTable,
		rewardGrantsTable,
	}
)

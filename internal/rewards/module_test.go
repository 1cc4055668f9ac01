package rewards

import (
	"testing"

	"github.com/abhisek/trailquest/internal/progression"
)

func TestModuleReward(t *testing.T) {
	phases := []progression.Phase{
		{ID: "p0", XP: 10, Coins: 1},
		{ID: "p1", XP: 20, Coins: 2},
		{ID: "p2", XP: 30, Coins: 3},
	}
	got := ModuleReward(phases, Amount{XP: 40, Coins: 4})
	if got != (Amount{XP: 100, Coins: 10}) {
		t.Errorf("ModuleReward = %+v, want {100 10}", got)
	}
}

// Preview and collect must agree regardless of how often they are computed.
func TestModuleReward_Stable(t *testing.T) {
	phases := []progression.Phase{{ID: "a", XP: 7, Coins: 3}, {ID: "b", XP: 11, Coins: 0}}
	bonus := Amount{XP: 5}
	preview := ModuleReward(phases, bonus)
	for i := 0; i < 10; i++ {
		if collect := ModuleReward(phases, bonus); collect != preview {
			t.Fatalf("collect %+v != preview %+v", collect, preview)
		}
	}
}

func TestModuleReward_Empty(t *testing.T) {
	if got := ModuleReward(nil, Amount{}); got != (Amount{}) {
		t.Errorf("empty module reward = %+v", got)
	}
}

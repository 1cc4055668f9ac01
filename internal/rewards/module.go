package rewards

import "github.com/abhisek/trailquest/internal/progression"

// ModuleReward is the payout for completing a module: the sum of its
// phases' rewards plus the module's completion bonus.
//
// Preview and collect both call this with the same module version, so
// the amount shown is the amount paid.
func ModuleReward(phases []progression.Phase, bonus Amount) Amount {
	total := bonus
	for _, p := range phases {
		total = total.Add(Amount{XP: p.XP, Coins: p.Coins})
	}
	return total
}

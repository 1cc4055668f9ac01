package rewards

// Rarity is the display tier of a badge.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// AllRarities returns all rarities in order from lowest to highest.
func AllRarities() []Rarity {
	return []Rarity{RarityCommon, RarityRare, RarityEpic, RarityLegendary}
}

// DisplayName returns a human-readable label for the rarity.
func (r Rarity) DisplayName() string {
	switch r {
	case RarityCommon:
		return "Common"
	case RarityRare:
		return "Rare"
	case RarityEpic:
		return "Epic"
	case RarityLegendary:
		return "Legendary"
	default:
		return string(r)
	}
}

// StreakRarity returns the badge rarity for a day-streak length.
func StreakRarity(days int) Rarity {
	switch {
	case days >= 30:
		return RarityLegendary
	case days >= 14:
		return RarityEpic
	case days >= 7:
		return RarityRare
	default:
		return RarityCommon
	}
}

// StreakMilestoneAmount is the bonus paid alongside a streak badge.
// Longer streaks pay more.
func StreakMilestoneAmount(days int) Amount {
	switch StreakRarity(days) {
	case RarityLegendary:
		return Amount{XP: 100, Coins: 50}
	case RarityEpic:
		return Amount{XP: 50, Coins: 25}
	case RarityRare:
		return Amount{XP: 25, Coins: 10}
	default:
		return Amount{XP: 10, Coins: 5}
	}
}

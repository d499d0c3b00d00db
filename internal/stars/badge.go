package stars

// Badge grades a whole session by its average stars per turn.
type Badge string

const (
	BadgeCommon    Badge = "common"
	BadgeRare      Badge = "rare"
	BadgeEpic      Badge = "epic"
	BadgeLegendary Badge = "legendary"
)

// AllBadges returns all badges in order from lowest to highest.
func AllBadges() []Badge {
	return []Badge{BadgeCommon, BadgeRare, BadgeEpic, BadgeLegendary}
}

// DisplayName returns a human-readable label for the badge.
func (b Badge) DisplayName() string {
	switch b {
	case BadgeCommon:
		return "Commun"
	case BadgeRare:
		return "Rare"
	case BadgeEpic:
		return "Épique"
	case BadgeLegendary:
		return "Légendaire"
	default:
		return string(b)
	}
}

// Icon returns the display icon for the badge.
func (b Badge) Icon() string {
	switch b {
	case BadgeLegendary:
		return "🏆"
	case BadgeEpic:
		return "💎"
	case BadgeRare:
		return "⭐"
	default:
		return "✦"
	}
}

// BadgeFor returns the badge for an average number of stars per turn.
func BadgeFor(avgStarsPerTurn float64) Badge {
	switch {
	case avgStarsPerTurn >= 4.5:
		return BadgeLegendary
	case avgStarsPerTurn >= 3.5:
		return BadgeEpic
	case avgStarsPerTurn >= 2.5:
		return BadgeRare
	default:
		return BadgeCommon
	}
}

// SessionBadge grades a session from its total score and turn count.
func SessionBadge(totalStars, learnerTurns int) Badge {
	if learnerTurns == 0 {
		return BadgeCommon
	}
	return BadgeFor(float64(totalStars) / float64(learnerTurns))
}

package learner

// Level groups consultations of comparable difficulty.
type Level struct {
	ID          string
	Name        string
	Description string
	Order       int
	MinStars    int
}

// Passed reports whether stars meet the level's unlock threshold.
func (l Level) Passed(stars int) bool {
	return stars >= l.MinStars
}

// Levels is the curriculum in order.
var Levels = []Level{
	{
		ID:          "niveau_debutant",
		Name:        "Consultations de base",
		Description: "Apprentissage des consultations médicales de base",
		Order:       1,
		MinStars:    20,
	},
	{
		ID:          "niveau_avance",
		Name:        "Consultations avancées",
		Description: "Cas complexes et diagnostics différentiels",
		Order:       2,
		MinStars:    20,
	},
}

// LevelFor returns the starting level for a tier.
func LevelFor(t Tier) Level {
	if t == TierBeginner {
		return Levels[0]
	}
	return Levels[1]
}

// LevelByID looks up a level. Unknown IDs fall back to the first level and
// report false.
func LevelByID(id string) (Level, bool) {
	for _, l := range Levels {
		if l.ID == id {
			return l, true
		}
	}
	return Levels[0], false
}

// Next returns the level following l, if any.
func Next(l Level) (Level, bool) {
	for i, cur := range Levels {
		if cur.ID == l.ID && i+1 < len(Levels) {
			return Levels[i+1], true
		}
	}
	return Level{}, false
}

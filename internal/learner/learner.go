// Package learner holds learner identities, profiles and curriculum levels.
package learner

import (
	"fmt"
	"strings"
	"time"
)

// Tier is a learner's self-declared expertise.
type Tier string

const (
	TierBeginner     Tier = "DEBUTANT"
	TierIntermediate Tier = "INTERMEDIAIRE"
	TierExpert       Tier = "EXPERT"
)

// AllTiers lists tiers from least to most advanced.
var AllTiers = []Tier{TierBeginner, TierIntermediate, TierExpert}

// ParseTier accepts the stored value or its English name, case-insensitively.
func ParseTier(s string) (Tier, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUTANT", "BEGINNER":
		return TierBeginner, nil
	case "INTERMEDIAIRE", "INTERMEDIATE":
		return TierIntermediate, nil
	case "EXPERT":
		return TierExpert, nil
	}
	return "", fmt.Errorf("unknown expertise tier %q", s)
}

// Label returns a human-readable name.
func (t Tier) Label() string {
	switch t {
	case TierBeginner:
		return "Beginner"
	case TierIntermediate:
		return "Intermediate"
	case TierExpert:
		return "Expert"
	}
	return string(t)
}

// Profile is the mutable part of a learner.
type Profile struct {
	Tier      Tier
	Specialty string
	Domain    string
	AppLevel  string
}

// DefaultProfile is assigned to learners created on first interaction.
func DefaultProfile() Profile {
	return Profile{
		Tier:      TierBeginner,
		Specialty: "Médecine Générale",
		Domain:    "Santé",
		AppLevel:  "1",
	}
}

// Learner is a registered learner.
type Learner struct {
	ID           string
	Name         string
	FirstName    string
	Email        string
	RegisteredAt time.Time
	Profile      Profile
}

// DisplayName returns "FirstName Name", or whichever part is set.
func (l Learner) DisplayName() string {
	return strings.TrimSpace(l.FirstName + " " + l.Name)
}

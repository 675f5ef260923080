package service

import (
	"strings"

	"fightbook/models"
)

// nameMatchResolver resolves winners by fuzzy name matching: the published
// winner name and both fighter names are lowercased and trimmed, and the
// winner is whichever fighter's name is a substring of the published name or
// vice versa. This mirrors how the results feed publishes winners (free text,
// sometimes truncated to a surname). Inherently fuzzy; swap in a stricter
// resolver via the WinnerResolver interface if the feed ever publishes ids.
type nameMatchResolver struct{}

// NewNameMatchResolver creates the default fuzzy winner resolver
func NewNameMatchResolver() WinnerResolver {
	return nameMatchResolver{}
}

func (nameMatchResolver) Resolve(fight *models.Fight) (string, error) {
	if !fight.HasResult() {
		return "", ErrUnresolvableWinner
	}

	winner := normalizeName(fight.Result.WinnerName)
	fighter1 := normalizeName(fight.Fighter1Name)
	fighter2 := normalizeName(fight.Fighter2Name)

	if fighter1 != "" && namesMatch(winner, fighter1) {
		return fight.Fighter1ID, nil
	}
	if fighter2 != "" && namesMatch(winner, fighter2) {
		return fight.Fighter2ID, nil
	}

	return "", ErrUnresolvableWinner
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func namesMatch(winner, fighter string) bool {
	return strings.Contains(winner, fighter) || strings.Contains(fighter, winner)
}

package service

import (
	"fightbook/models"
)

// DetectChanges diffs two successive snapshots of the same event and flags
// fight-level deltas that must trigger refunds. A fight accumulates reasons
// as a set and is reported once. Fights that only appear in the current
// snapshot are ignored: no wager can exist on a fight that was never
// published. Pure; no I/O.
func DetectChanges(previousFights, currentFights []models.Fight) []models.FightChange {
	previous := make(map[string]*models.Fight, len(previousFights))
	for i := range previousFights {
		previous[previousFights[i].FightID] = &previousFights[i]
	}

	var changes []models.FightChange
	seen := make(map[string]bool, len(currentFights))

	for i := range currentFights {
		current := &currentFights[i]
		seen[current.FightID] = true

		prev, ok := previous[current.FightID]
		if !ok {
			continue
		}

		var reasons []string

		if prev.Fighter1ID != current.Fighter1ID ||
			prev.Fighter2ID != current.Fighter2ID ||
			prev.Fighter1Name != current.Fighter1Name ||
			prev.Fighter2Name != current.Fighter2Name {
			reasons = append(reasons, models.ChangeReasonFighterSubstitution)
		}

		if current.Status == models.FightStatusCancelled {
			reasons = append(reasons, models.ChangeReasonFightCancelled)
		}

		// Weight class is only compared when both snapshots carry one; an
		// empty value means the feed had not published it yet.
		if prev.WeightClass != "" && current.WeightClass != "" &&
			prev.WeightClass != current.WeightClass {
			reasons = append(reasons, models.ChangeReasonWeightClassChanged)
		}

		if prev.IsTitleFight != current.IsTitleFight {
			reasons = append(reasons, models.ChangeReasonTitleStatusChanged)
		}

		if len(reasons) > 0 {
			changes = append(changes, models.FightChange{
				FightID:    current.FightID,
				Reasons:    reasons,
				RefundType: models.RefundTypeFull,
			})
		}
	}

	// Fights dropped from the card refund in full
	for i := range previousFights {
		if !seen[previousFights[i].FightID] {
			changes = append(changes, models.FightChange{
				FightID:    previousFights[i].FightID,
				Reasons:    []string{models.ChangeReasonFightRemoved},
				RefundType: models.RefundTypeFull,
			})
		}
	}

	return changes
}

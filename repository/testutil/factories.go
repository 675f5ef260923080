package testutil

import (
	"time"

	"fightbook/models"
)

// CreateTestWager creates a pending test wager with default values
func CreateTestWager(accountID, eventID, fightID, selectionID string) *models.Wager {
	return &models.Wager{
		AccountID:       accountID,
		EventID:         eventID,
		FightID:         fightID,
		SelectionID:     selectionID,
		SelectionLabel:  selectionID,
		Stake:           100,
		OddsAmerican:    150,
		OddsDecimal:     2.5,
		PotentialPayout: 250,
		Status:          models.WagerStatusPending,
	}
}

// CreateTestWagerWithStake creates a pending test wager with a specific stake
func CreateTestWagerWithStake(accountID, eventID, fightID, selectionID string, stake, potentialPayout int64) *models.Wager {
	wager := CreateTestWager(accountID, eventID, fightID, selectionID)
	wager.Stake = stake
	wager.PotentialPayout = potentialPayout
	return wager
}

// CreateTestTransaction creates a ledger entry consistent with the given balances
func CreateTestTransaction(accountID string, amount, balanceBefore int64, kind models.TransactionKind) *models.Transaction {
	return &models.Transaction{
		AccountID:     accountID,
		Amount:        amount,
		Kind:          kind,
		Reason:        "test entry",
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceBefore + amount,
	}
}

// CreateTestFight creates a scheduled fight with two named fighters
func CreateTestFight(fightID string) models.Fight {
	return models.Fight{
		FightID:      fightID,
		Fighter1ID:   fightID + "-red",
		Fighter1Name: "Red Corner",
		Fighter2ID:   fightID + "-blue",
		Fighter2Name: "Blue Corner",
		WeightClass:  "Lightweight",
		Status:       models.FightStatusScheduled,
	}
}

// CreateTestSnapshot creates an active snapshot for an event with the given fights
func CreateTestSnapshot(eventID, sourceURL string, fights ...models.Fight) *models.EventSnapshot {
	return &models.EventSnapshot{
		EventID:        eventID,
		SourceURL:      sourceURL,
		EventName:      "Test Event " + eventID,
		EventStartTime: time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
		IsActive:       true,
		ScrapedAt:      time.Now(),
		Fights:         fights,
	}
}

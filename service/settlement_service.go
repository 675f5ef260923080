package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fightbook/config"
	"fightbook/events"
	"fightbook/metrics"
	"fightbook/models"

	log "github.com/sirupsen/logrus"
)

type settlementService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
	resolver   WinnerResolver
	now        func() time.Time
}

// NewSettlementService creates a new settlement engine
func NewSettlementService(uowFactory UnitOfWorkFactory, cfg *config.Config, resolver WinnerResolver) SettlementService {
	return &settlementService{
		uowFactory: uowFactory,
		cfg:        cfg,
		resolver:   resolver,
		now:        time.Now,
	}
}

// SettleEvent resolves every pending wager on the event's decided fights.
// Each wager's resolution is its own atomic unit, so a half-processed run is
// safe to re-run: already-settled wagers are skipped by the idempotency
// barrier and a second run settles nothing further.
func (s *settlementService) SettleEvent(ctx context.Context, eventID string) (*models.SettlementResult, error) {
	snapshot, wagers, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	result := &models.SettlementResult{}
	var itemErrors []*ItemError

	for _, wager := range wagers {
		// Defense in depth beyond the status filter in the query: a wager
		// with a payout or settlement timestamp is terminal regardless.
		if wager.IsSettled() {
			continue
		}

		fight := snapshot.FightByID(wager.FightID)
		if fight == nil || !fight.HasResult() {
			continue
		}

		winnerID, err := s.resolver.Resolve(fight)
		if err != nil {
			if errors.Is(err, ErrUnresolvableWinner) {
				// Logged, not fatal: the wager stays pending until the feed
				// publishes a name we can match.
				log.WithFields(log.Fields{
					"wagerId":    wager.ID,
					"fightId":    wager.FightID,
					"winnerName": fight.Result.WinnerName,
				}).Warn("Winner name matches neither fighter, leaving wager pending")
				continue
			}
			itemErrors = append(itemErrors, &ItemError{WagerID: wager.ID, Err: err})
			continue
		}

		won := winnerID == wager.SelectionID
		settled, err := s.settleWager(ctx, wager, won)
		if err != nil {
			metrics.BatchItemFailures.WithLabelValues("settlement").Inc()
			itemErrors = append(itemErrors, &ItemError{WagerID: wager.ID, Err: err})
			log.WithFields(log.Fields{
				"wagerId": wager.ID,
				"error":   err,
			}).Error("Failed to settle wager, continuing batch")
			continue
		}
		if !settled {
			continue
		}

		result.SettledCount++
		if won {
			result.WonCount++
			result.PaidOut += wager.PotentialPayout
			metrics.WagersSettledTotal.WithLabelValues("won").Inc()
		} else {
			result.LostCount++
			metrics.WagersSettledTotal.WithLabelValues("lost").Inc()
		}
	}

	log.WithFields(log.Fields{
		"eventId":      eventID,
		"settledCount": result.SettledCount,
		"wonCount":     result.WonCount,
		"lostCount":    result.LostCount,
		"paidOut":      result.PaidOut,
		"failures":     len(itemErrors),
	}).Info("Settlement run completed")

	if len(itemErrors) > 0 {
		return result, &PartialBatchFailure{Items: itemErrors}
	}
	return result, nil
}

func (s *settlementService) loadEvent(ctx context.Context, eventID string) (*models.EventSnapshot, []*models.Wager, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	snapshot, err := uow.SnapshotRepository().GetLatestByEvent(ctx, eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get event snapshot: %w", err)
	}
	if snapshot == nil {
		return nil, nil, ErrEventNotFound
	}

	wagers, err := uow.WagerRepository().GetPendingByEvent(ctx, eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get pending wagers: %w", err)
	}

	return snapshot, wagers, nil
}

// settleWager is one atomic unit: CAS the wager out of pending, then update
// the account and the ledger. A win credits the potential payout; a loss
// records a zero-amount ledger entry for audit continuity since the stake was
// already debited at placement. Returns settled=false when the wager lost the
// race and is no longer pending.
func (s *settlementService) settleWager(ctx context.Context, wager *models.Wager, won bool) (settled bool, err error) {
	err = withConflictRetry(s.cfg.RetryAttempts, func() error {
		uow := s.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer uow.Rollback()

		account, err := uow.AccountRepository().GetForUpdate(ctx, wager.AccountID)
		if err != nil {
			return fmt.Errorf("failed to lock account: %w", err)
		}
		if account == nil {
			return ErrAccountNotFound
		}

		var (
			status models.WagerStatus
			payout int64
		)
		if won {
			status = models.WagerStatusWon
			payout = wager.PotentialPayout
		} else {
			status = models.WagerStatusLost
		}

		ok, err := uow.WagerRepository().TransitionFromPending(ctx, wager.ID, status, payout, s.now(), nil)
		if err != nil {
			return fmt.Errorf("failed to transition wager: %w", err)
		}
		if !ok {
			settled = false
			return nil
		}

		var txn *models.Transaction
		if won {
			if err := uow.AccountRepository().ApplyBalanceChange(ctx, wager.AccountID, payout, 0, payout, 0); err != nil {
				return fmt.Errorf("failed to credit payout: %w", err)
			}
			txn = &models.Transaction{
				AccountID:     wager.AccountID,
				Amount:        payout,
				Kind:          models.TransactionKindWagerWon,
				Reason:        fmt.Sprintf("won on %s in fight %s", wager.SelectionLabel, wager.FightID),
				RefWagerID:    &wager.ID,
				BalanceBefore: account.Balance,
				BalanceAfter:  account.Balance + payout,
			}
		} else {
			if err := uow.AccountRepository().ApplyBalanceChange(ctx, wager.AccountID, 0, 0, 0, wager.Stake); err != nil {
				return fmt.Errorf("failed to update loss aggregates: %w", err)
			}
			txn = &models.Transaction{
				AccountID:     wager.AccountID,
				Amount:        0,
				Kind:          models.TransactionKindWagerLost,
				Reason:        fmt.Sprintf("lost on %s in fight %s", wager.SelectionLabel, wager.FightID),
				RefWagerID:    &wager.ID,
				BalanceBefore: account.Balance,
				BalanceAfter:  account.Balance,
			}
		}

		if err := uow.TransactionRepository().Record(ctx, txn); err != nil {
			return fmt.Errorf("failed to record ledger entry: %w", err)
		}

		uow.EventBus().Publish(events.WagerSettledEvent{
			AccountID: wager.AccountID,
			WagerID:   wager.ID,
			EventID:   wager.EventID,
			FightID:   wager.FightID,
			Status:    status,
			Payout:    payout,
		})

		if err := uow.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}

		settled = true
		return nil
	})

	if err != nil {
		// The commit outcome can be ambiguous on a connection failure; the
		// stored status is the truth. Our intended status means the write
		// landed; any other terminal status means someone else got there.
		intended := models.WagerStatusLost
		if won {
			intended = models.WagerStatusWon
		}
		switch status, checkErr := s.currentStatus(ctx, wager.ID); {
		case checkErr == nil && status == intended:
			return true, nil
		case checkErr == nil && status != models.WagerStatusPending:
			return false, nil
		}
		return false, err
	}
	return settled, nil
}

func (s *settlementService) currentStatus(ctx context.Context, wagerID int64) (models.WagerStatus, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return "", err
	}
	defer uow.Rollback()

	wager, err := uow.WagerRepository().GetByID(ctx, wagerID)
	if err != nil {
		return "", err
	}
	if wager == nil {
		return "", fmt.Errorf("wager %d not found", wagerID)
	}
	return wager.Status, nil
}

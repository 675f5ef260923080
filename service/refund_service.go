package service

import (
	"context"
	"fmt"
	"time"

	"fightbook/config"
	"fightbook/events"
	"fightbook/metrics"
	"fightbook/models"

	log "github.com/sirupsen/logrus"
)

type refundService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
	now        func() time.Time
}

// NewRefundService creates a new refund engine
func NewRefundService(uowFactory UnitOfWorkFactory, cfg *config.Config) RefundService {
	return &refundService{
		uowFactory: uowFactory,
		cfg:        cfg,
		now:        time.Now,
	}
}

// ProcessRefunds refunds all pending wagers on the flagged fights. Each
// wager's refund commits on its own, so one failure never rolls back or
// blocks the others; failures come back as a PartialBatchFailure alongside
// the totals for the wagers that did refund. Re-running with the same changes
// is safe: wagers that already left pending are skipped untouched.
func (s *refundService) ProcessRefunds(ctx context.Context, eventID string, changes []models.FightChange) (*models.RefundResult, error) {
	result := &models.RefundResult{}
	accounts := make(map[string]bool)
	var itemErrors []*ItemError

	for _, change := range changes {
		wagers, err := s.pendingWagers(ctx, eventID, change.FightID)
		if err != nil {
			return nil, err
		}

		for _, wager := range wagers {
			refunded, amount, err := s.refundWager(ctx, wager, &change)
			if err != nil {
				metrics.BatchItemFailures.WithLabelValues("refund").Inc()
				itemErrors = append(itemErrors, &ItemError{WagerID: wager.ID, Err: err})
				log.WithFields(log.Fields{
					"wagerId": wager.ID,
					"fightId": change.FightID,
					"error":   err,
				}).Error("Failed to refund wager, continuing batch")
				continue
			}
			if !refunded {
				// Lost the race against a concurrent settlement; the wager
				// is already terminal and must not be touched again.
				continue
			}

			result.BetsRefunded++
			result.AmountRefunded += amount
			accounts[wager.AccountID] = true
			metrics.WagersRefundedTotal.Inc()
			metrics.AmountRefundedTotal.Add(float64(amount))
		}
	}

	result.AccountsAffected = len(accounts)

	log.WithFields(log.Fields{
		"eventId":          eventID,
		"betsRefunded":     result.BetsRefunded,
		"amountRefunded":   result.AmountRefunded,
		"accountsAffected": result.AccountsAffected,
		"failures":         len(itemErrors),
	}).Info("Refund run completed")

	if len(itemErrors) > 0 {
		return result, &PartialBatchFailure{Items: itemErrors}
	}
	return result, nil
}

func (s *refundService) pendingWagers(ctx context.Context, eventID, fightID string) ([]*models.Wager, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wagers, err := uow.WagerRepository().GetPendingByFight(ctx, eventID, fightID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending wagers: %w", err)
	}
	return wagers, nil
}

// refundWager is one atomic unit: CAS the wager out of pending, credit the
// account, append the ledger entry. Returns refunded=false when the wager was
// no longer pending.
func (s *refundService) refundWager(ctx context.Context, wager *models.Wager, change *models.FightChange) (refunded bool, amount int64, err error) {
	amount = wager.Stake
	if change.RefundType == models.RefundTypePartial {
		amount = wager.Stake * s.cfg.PartialRefundPercent / 100
	}

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

		reason := change.ReasonText()
		ok, err := uow.WagerRepository().TransitionFromPending(ctx, wager.ID, models.WagerStatusRefunded, amount, s.now(), &reason)
		if err != nil {
			return fmt.Errorf("failed to transition wager: %w", err)
		}
		if !ok {
			refunded = false
			return nil
		}

		// The stake leaves total_wagered again; the repository floors it at
		// zero.
		if err := uow.AccountRepository().ApplyBalanceChange(ctx, wager.AccountID, amount, -wager.Stake, 0, 0); err != nil {
			return fmt.Errorf("failed to credit refund: %w", err)
		}

		txn := &models.Transaction{
			AccountID:     wager.AccountID,
			Amount:        amount,
			Kind:          models.TransactionKindWagerRefunded,
			Reason:        reason,
			RefWagerID:    &wager.ID,
			BalanceBefore: account.Balance,
			BalanceAfter:  account.Balance + amount,
		}
		if err := uow.TransactionRepository().Record(ctx, txn); err != nil {
			return fmt.Errorf("failed to record ledger entry: %w", err)
		}

		uow.EventBus().Publish(events.WagerRefundedEvent{
			AccountID: wager.AccountID,
			WagerID:   wager.ID,
			EventID:   wager.EventID,
			FightID:   wager.FightID,
			Amount:    amount,
			Reason:    reason,
		})

		if err := uow.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}

		refunded = true
		return nil
	})

	if err != nil {
		// Ambiguous commit outcome: consult the stored status before
		// reporting failure. A refunded wager means the write landed; any
		// other terminal status means settlement won the race.
		switch status, checkErr := s.currentStatus(ctx, wager.ID); {
		case checkErr == nil && status == models.WagerStatusRefunded:
			return true, amount, nil
		case checkErr == nil && status != models.WagerStatusPending:
			return false, 0, nil
		}
		return false, 0, err
	}
	return refunded, amount, nil
}

func (s *refundService) currentStatus(ctx context.Context, wagerID int64) (models.WagerStatus, error) {
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

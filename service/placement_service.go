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

type placementService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
	now        func() time.Time
}

// NewPlacementService creates a new placement service
func NewPlacementService(uowFactory UnitOfWorkFactory, cfg *config.Config) PlacementService {
	return &placementService{
		uowFactory: uowFactory,
		cfg:        cfg,
		now:        time.Now,
	}
}

// PlaceWager validates a placement request and executes it as one atomic
// unit: wager insert, ledger entry, balance debit. Either all of it lands or
// none of it does.
func (s *placementService) PlaceWager(ctx context.Context, req PlaceWagerRequest) (*models.Wager, error) {
	if req.Stake <= 0 {
		return nil, ErrInvalidStake
	}

	decimalOdds, potentialPayout, err := ToDecimalAndPayout(req.Stake, req.OddsAmerican)
	if err != nil {
		return nil, err
	}

	var wager *models.Wager
	err = withConflictRetry(s.cfg.RetryAttempts, func() error {
		var err error
		wager, err = s.placeOnce(ctx, req, decimalOdds, potentialPayout)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.WagersPlacedTotal.Inc()
	log.WithFields(log.Fields{
		"accountId": req.AccountID,
		"wagerId":   wager.ID,
		"eventId":   req.EventID,
		"fightId":   req.FightID,
		"stake":     req.Stake,
	}).Info("Wager placed")

	return wager, nil
}

func (s *placementService) placeOnce(ctx context.Context, req PlaceWagerRequest, decimalOdds float64, potentialPayout int64) (*models.Wager, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := s.checkPredictionWindow(ctx, uow, req.EventID, req.FightID); err != nil {
		return nil, err
	}

	// Row lock: the before/after balances on the ledger entry are computed
	// under it, and no concurrent operation can touch this account until the
	// commit.
	account, err := uow.AccountRepository().GetForUpdate(ctx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	if req.Stake > account.Balance {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, account.Balance, req.Stake)
	}

	wager := &models.Wager{
		AccountID:       req.AccountID,
		EventID:         req.EventID,
		FightID:         req.FightID,
		SelectionID:     req.SelectionID,
		SelectionLabel:  req.SelectionLabel,
		Stake:           req.Stake,
		OddsAmerican:    req.OddsAmerican,
		OddsDecimal:     decimalOdds,
		PotentialPayout: potentialPayout,
		Status:          models.WagerStatusPending,
	}

	if err := uow.WagerRepository().Create(ctx, wager); err != nil {
		return nil, fmt.Errorf("failed to create wager: %w", err)
	}

	if err := uow.AccountRepository().ApplyBalanceChange(ctx, req.AccountID, -req.Stake, req.Stake, 0, 0); err != nil {
		return nil, fmt.Errorf("failed to debit stake: %w", err)
	}

	txn := &models.Transaction{
		AccountID:     req.AccountID,
		Amount:        -req.Stake,
		Kind:          models.TransactionKindWagerPlaced,
		Reason:        fmt.Sprintf("stake on %s in fight %s", req.SelectionLabel, req.FightID),
		RefWagerID:    &wager.ID,
		BalanceBefore: account.Balance,
		BalanceAfter:  account.Balance - req.Stake,
	}
	if err := uow.TransactionRepository().Record(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record ledger entry: %w", err)
	}

	uow.EventBus().Publish(events.WagerPlacedEvent{
		AccountID:       req.AccountID,
		WagerID:         wager.ID,
		EventID:         req.EventID,
		FightID:         req.FightID,
		Stake:           req.Stake,
		PotentialPayout: potentialPayout,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return wager, nil
}

// checkPredictionWindow rejects placements once the event is within the lead
// time of its start. A missing or unparseable start time leaves the window
// open when WindowFailOpen is set and closes it otherwise.
func (s *placementService) checkPredictionWindow(ctx context.Context, uow UnitOfWork, eventID, fightID string) error {
	snapshot, err := uow.SnapshotRepository().GetLatestByEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to get event snapshot: %w", err)
	}
	if snapshot == nil {
		return ErrEventNotFound
	}
	if snapshot.FightByID(fightID) == nil {
		return ErrFightNotFound
	}

	start, ok := snapshot.StartTime()
	if !ok {
		if s.cfg.WindowFailOpen {
			log.WithFields(log.Fields{
				"eventId":   eventID,
				"startTime": snapshot.EventStartTime,
			}).Warn("Unparseable event start time, prediction window treated as open")
			return nil
		}
		return ErrPredictionWindowClosed
	}

	if !s.now().Before(start.Add(-s.cfg.PredictionWindowLead)) {
		return ErrPredictionWindowClosed
	}

	return nil
}

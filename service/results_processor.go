package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fightbook/events"
	"fightbook/models"

	log "github.com/sirupsen/logrus"
)

type resultsProcessor struct {
	uowFactory UnitOfWorkFactory
	refunds    RefundService
	settlement SettlementService
	eventBus   *events.Bus
}

// NewResultsProcessor creates the single entry point for reacting to results
// feed updates. The HTTP layer and the periodic worker both go through it, so
// refund and settlement logic lives in exactly one place.
func NewResultsProcessor(uowFactory UnitOfWorkFactory, refunds RefundService, settlement SettlementService, eventBus *events.Bus) ResultsProcessor {
	return &resultsProcessor{
		uowFactory: uowFactory,
		refunds:    refunds,
		settlement: settlement,
		eventBus:   eventBus,
	}
}

// IngestSnapshot stores a snapshot from the results feed and immediately
// processes the event it belongs to.
func (p *resultsProcessor) IngestSnapshot(ctx context.Context, snapshot *models.EventSnapshot) error {
	if snapshot.SourceURL == "" {
		return fmt.Errorf("snapshot source URL cannot be empty")
	}
	if snapshot.EventID == "" {
		return fmt.Errorf("snapshot event id cannot be empty")
	}
	if snapshot.ScrapedAt.IsZero() {
		snapshot.ScrapedAt = time.Now()
	}

	uow := p.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.SnapshotRepository().Insert(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return p.ProcessEvent(ctx, snapshot.SourceURL)
}

// ProcessEvent runs the full pipeline for one event: diff the two most recent
// snapshots, refund wagers on changed fights, then settle wagers on decided
// fights. Both stages are idempotent, so re-processing after a partial
// failure is safe.
func (p *resultsProcessor) ProcessEvent(ctx context.Context, sourceURL string) error {
	current, previous, err := p.latestPair(ctx, sourceURL)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrEventNotFound
	}

	if previous != nil {
		changes := DetectChanges(previous.Fights, current.Fights)
		if len(changes) > 0 {
			result, err := p.refunds.ProcessRefunds(ctx, current.EventID, changes)
			if err != nil {
				var partial *PartialBatchFailure
				if !errors.As(err, &partial) {
					return fmt.Errorf("refund stage failed for event %s: %w", current.EventID, err)
				}
				log.WithFields(log.Fields{
					"eventId":  current.EventID,
					"failures": len(partial.Items),
				}).Warn("Refund stage completed with per-wager failures")
			}
			if result != nil && result.BetsRefunded > 0 {
				p.eventBus.Emit(ctx, events.RefundCompletedEvent{
					EventID:          current.EventID,
					BetsRefunded:     result.BetsRefunded,
					AmountRefunded:   result.AmountRefunded,
					AccountsAffected: result.AccountsAffected,
				})
			}
		}
	}

	result, err := p.settlement.SettleEvent(ctx, current.EventID)
	if err != nil {
		var partial *PartialBatchFailure
		if !errors.As(err, &partial) {
			return fmt.Errorf("settlement stage failed for event %s: %w", current.EventID, err)
		}
		log.WithFields(log.Fields{
			"eventId":  current.EventID,
			"failures": len(partial.Items),
		}).Warn("Settlement stage completed with per-wager failures")
	}
	if result != nil && result.SettledCount > 0 {
		p.eventBus.Emit(ctx, events.SettlementCompletedEvent{
			EventID:      current.EventID,
			SettledCount: result.SettledCount,
			WonCount:     result.WonCount,
			LostCount:    result.LostCount,
			PaidOut:      result.PaidOut,
		})
	}

	return nil
}

// ProcessActiveEvents runs ProcessEvent for every event whose latest snapshot
// is still active. Called by the periodic worker.
func (p *resultsProcessor) ProcessActiveEvents(ctx context.Context) error {
	urls, err := p.activeSourceURLs(ctx)
	if err != nil {
		return err
	}

	for _, url := range urls {
		if err := p.ProcessEvent(ctx, url); err != nil {
			log.WithFields(log.Fields{
				"sourceUrl": url,
				"error":     err,
			}).Error("Failed to process event, continuing with remaining events")
		}
	}

	return nil
}

func (p *resultsProcessor) latestPair(ctx context.Context, sourceURL string) (*models.EventSnapshot, *models.EventSnapshot, error) {
	uow := p.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	current, previous, err := uow.SnapshotRepository().GetLatestPair(ctx, sourceURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get snapshot pair: %w", err)
	}
	return current, previous, nil
}

func (p *resultsProcessor) activeSourceURLs(ctx context.Context) ([]string, error) {
	uow := p.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	urls, err := uow.SnapshotRepository().GetActiveSourceURLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active events: %w", err)
	}
	return urls, nil
}

package service

import (
	"context"
	"fmt"

	"fightbook/config"
	"fightbook/events"
	"fightbook/models"
)

type accountService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
}

// NewAccountService creates a new account service
func NewAccountService(uowFactory UnitOfWorkFactory, cfg *config.Config) AccountService {
	return &accountService{
		uowFactory: uowFactory,
		cfg:        cfg,
	}
}

// GetOrCreateAccount retrieves an account, bootstrapping it with the starting
// balance on first access. Identity itself is owned by the identity provider;
// this only initializes the ledger side. The seed is the baseline of the
// conservation law, not a transaction.
func (s *accountService) GetOrCreateAccount(ctx context.Context, accountID string) (*models.Account, error) {
	if accountID == "" {
		return nil, fmt.Errorf("account id cannot be empty")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if account != nil {
		return account, nil
	}

	account, err = uow.AccountRepository().Create(ctx, accountID, s.cfg.StartingBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	uow.EventBus().Publish(events.AccountCreatedEvent{
		AccountID:       accountID,
		StartingBalance: s.cfg.StartingBalance,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return account, nil
}

// GrantBonus credits an account outside the wager lifecycle, recorded as an
// admin_bonus ledger entry.
func (s *accountService) GrantBonus(ctx context.Context, accountID string, amount int64, reason string) (*models.Account, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("bonus amount must be positive")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetForUpdate(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	if err := uow.AccountRepository().ApplyBalanceChange(ctx, accountID, amount, 0, 0, 0); err != nil {
		return nil, fmt.Errorf("failed to credit bonus: %w", err)
	}

	txn := &models.Transaction{
		AccountID:     accountID,
		Amount:        amount,
		Kind:          models.TransactionKindAdminBonus,
		Reason:        reason,
		BalanceBefore: account.Balance,
		BalanceAfter:  account.Balance + amount,
	}
	if err := uow.TransactionRepository().Record(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record ledger entry: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	account.Balance += amount
	return account, nil
}

// ListWagers returns an account's wagers, newest first.
func (s *accountService) ListWagers(ctx context.Context, accountID string, limit int) ([]*models.Wager, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wagers, err := uow.WagerRepository().GetByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list wagers: %w", err)
	}
	return wagers, nil
}

// ListTransactions returns an account's ledger entries, newest first.
func (s *accountService) ListTransactions(ctx context.Context, accountID string, limit int) ([]*models.Transaction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	txns, err := uow.TransactionRepository().GetByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}

package service

import (
	"time"

	"fightbook/config"
	"fightbook/models"

	"github.com/stretchr/testify/mock"
)

// mockUnits bundles a unit of work, its factory and the repositories it hands
// out, pre-wired for service tests.
type mockUnits struct {
	factory      *MockUnitOfWorkFactory
	uow          *MockUnitOfWork
	accounts     *MockAccountRepository
	wagers       *MockWagerRepository
	transactions *MockTransactionRepository
	snapshots    *MockSnapshotRepository
}

func newMockUnits() *mockUnits {
	u := &mockUnits{
		factory:      new(MockUnitOfWorkFactory),
		uow:          new(MockUnitOfWork),
		accounts:     new(MockAccountRepository),
		wagers:       new(MockWagerRepository),
		transactions: new(MockTransactionRepository),
		snapshots:    new(MockSnapshotRepository),
	}
	u.uow.SetRepositories(u.accounts, u.wagers, u.transactions, u.snapshots)
	u.factory.On("Create").Return(u.uow)
	return u
}

// expectUnit arms the usual transaction lifecycle: Begin and Rollback always
// succeed, and Commit succeeds when commit is true. Rollback after a commit
// is a no-op in the real unit of work, so it is always allowed here.
func (u *mockUnits) expectUnit(commit bool) {
	u.uow.On("Begin", mock.Anything).Return(nil)
	u.uow.On("Rollback").Return(nil)
	if commit {
		u.uow.On("Commit").Return(nil)
	}
}

func testConfig() *config.Config {
	return &config.Config{
		StartingBalance:      1000,
		PartialRefundPercent: 50,
		PredictionWindowLead: 10 * time.Minute,
		WindowFailOpen:       true,
		RetryAttempts:        3,
	}
}

// upcomingSnapshot builds a snapshot whose event starts one hour after the
// given time, far outside the ten minute prediction window.
func upcomingSnapshot(now time.Time, fights ...models.Fight) *models.EventSnapshot {
	return &models.EventSnapshot{
		EventID:        "event-1",
		SourceURL:      "https://results.example.com/event-1",
		EventName:      "Championship Night 12",
		EventStartTime: now.Add(time.Hour).Format(time.RFC3339),
		IsActive:       true,
		ScrapedAt:      now,
		Fights:         fights,
	}
}

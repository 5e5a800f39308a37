package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/turtacn/tokenlife/internal/domain/models"
)

// MockRevocationApplier stands in for the token service on the consuming side of revocation events.
type MockRevocationApplier struct {
	mock.Mock
}

func (m *MockRevocationApplier) ApplyRevocation(ctx context.Context, event models.RevocationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockSweepRunner stands in for the token service in the sweep scheduler.
type MockSweepRunner struct {
	mock.Mock
}

func (m *MockSweepRunner) CleanupInvalidList(ctx context.Context, opts models.VerifyOptions) (*models.SweepResult, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SweepResult), args.Error(1)
}

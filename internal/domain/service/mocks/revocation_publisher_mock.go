package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/turtacn/tokenlife/internal/domain/models"
)

type MockRevocationPublisher struct {
	mock.Mock
}

func (m *MockRevocationPublisher) PublishRevocation(ctx context.Context, event models.RevocationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

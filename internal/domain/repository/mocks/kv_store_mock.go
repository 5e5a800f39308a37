package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/turtacn/tokenlife/internal/domain/repository"
)

type MockKVStore struct {
	mock.Mock
}

var _ repository.KVStore = (*MockKVStore)(nil)

func (m *MockKVStore) Get(ctx context.Context, key []byte) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockKVStore) Put(ctx context.Context, key, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockKVStore) Delete(ctx context.Context, key []byte) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// Scan feeds the key/value pairs given as the first return argument (a [][2][]byte) to fn,
// then returns the second return argument.
func (m *MockKVStore) Scan(ctx context.Context, prefix []byte, fn repository.ScanFunc) error {
	args := m.Called(ctx, prefix, fn)
	if pairs, ok := args.Get(0).([][2][]byte); ok {
		for _, p := range pairs {
			if err := fn(p[0], p[1]); err != nil {
				if err == repository.ErrStopScan {
					return nil
				}
				return err
			}
		}
	}
	return args.Error(1)
}

func (m *MockKVStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockKVStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

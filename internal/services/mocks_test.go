package services_test

import (
	"context"

	"printsi/pkg/payments"

	"github.com/stretchr/testify/mock"
)

// MockGateway is a mock implementation of payments.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateSession(ctx context.Context, input payments.SessionInput) (*payments.Session, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Session), args.Error(1)
}

func (m *MockGateway) VerifyEvent(payload []byte, signatureHeader string) (*payments.Event, error) {
	args := m.Called(payload, signatureHeader)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Event), args.Error(1)
}

func (m *MockGateway) ListLineItems(ctx context.Context, sessionID string) ([]payments.SettledLine, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payments.SettledLine), args.Error(1)
}

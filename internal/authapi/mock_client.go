package authapi

import (
	"context"

	"github.com/stretchr/testify/mock"

	"langsite/internal/session"
)

// MockClient is a testify mock implementing Client.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Login(ctx context.Context, email, password string) (session.Session, error) {
	args := m.Called(ctx, email, password)
	if sess, ok := args.Get(0).(session.Session); ok {
		return sess, args.Error(1)
	}
	return session.Session{}, args.Error(1)
}

func (m *MockClient) Register(ctx context.Context, name, email, password string) (session.Session, error) {
	args := m.Called(ctx, name, email, password)
	if sess, ok := args.Get(0).(session.Session); ok {
		return sess, args.Error(1)
	}
	return session.Session{}, args.Error(1)
}

// Package mocks holds testify mocks of the ledger's ports.
package mocks

import (
	"context"

	"github.com/amirasaad/ledger/pkg/eventbus"
	"github.com/stretchr/testify/mock"
)

// MockPublisher is a mock eventbus.Publisher.
type MockPublisher struct {
	mock.Mock
}

// NewMockPublisher creates a MockPublisher whose expectations are asserted
// when the test ends.
func NewMockPublisher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPublisher {
	m := &MockPublisher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Emit records the call and returns the configured error.
func (m *MockPublisher) Emit(ctx context.Context, event eventbus.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

var _ eventbus.Publisher = (*MockPublisher)(nil)

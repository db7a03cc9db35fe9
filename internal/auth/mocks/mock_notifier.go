// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MTGVault Contributors

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mtgvault/mtgvault/internal/auth"
)

// MockNotifier is a mock of auth.Notifier.
type MockNotifier struct {
	mock.Mock
}

var _ auth.Notifier = (*MockNotifier)(nil)

// NewMockNotifier creates a mock whose expectations are asserted on test cleanup.
func NewMockNotifier(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockNotifier {
	m := &MockNotifier{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// SendPasswordReset provides a mock function.
func (m *MockNotifier) SendPasswordReset(ctx context.Context, notice auth.ResetNotice) error {
	return m.Called(ctx, notice).Error(0)
}

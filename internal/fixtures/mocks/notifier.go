// Package mocks holds testify mocks of the service ports, shaped the way
// mockery lays them out.
package mocks

import (
	"context"

	"github.com/amirasaad/charity/pkg/service/notification"
	"github.com/stretchr/testify/mock"
)

// MockNotifier is a mock of the Notifier ports in the contribution, records
// and auth services.
type MockNotifier struct {
	mock.Mock
}

type MockNotifier_Expecter struct {
	mock *mock.Mock
}

func (_m *MockNotifier) EXPECT() *MockNotifier_Expecter {
	return &MockNotifier_Expecter{mock: &_m.Mock}
}

// Notify provides a mock function with given fields: ctx, msg
func (_m *MockNotifier) Notify(ctx context.Context, msg notification.Message) {
	_m.Called(ctx, msg)
}

// MockNotifier_Notify_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Notify'
type MockNotifier_Notify_Call struct {
	*mock.Call
}

// Notify is a helper method to define mock.On call
//   - ctx context.Context
//   - msg notification.Message
func (_e *MockNotifier_Expecter) Notify(ctx any, msg any) *MockNotifier_Notify_Call {
	return &MockNotifier_Notify_Call{Call: _e.mock.On("Notify", ctx, msg)}
}

func (_c *MockNotifier_Notify_Call) Run(run func(ctx context.Context, msg notification.Message)) *MockNotifier_Notify_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(notification.Message))
	})
	return _c
}

func (_c *MockNotifier_Notify_Call) Return() *MockNotifier_Notify_Call {
	_c.Call.Return()
	return _c
}

// NotifyAdmin provides a mock function with given fields: ctx, msg
func (_m *MockNotifier) NotifyAdmin(ctx context.Context, msg notification.Message) {
	_m.Called(ctx, msg)
}

// MockNotifier_NotifyAdmin_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'NotifyAdmin'
type MockNotifier_NotifyAdmin_Call struct {
	*mock.Call
}

// NotifyAdmin is a helper method to define mock.On call
//   - ctx context.Context
//   - msg notification.Message
func (_e *MockNotifier_Expecter) NotifyAdmin(ctx any, msg any) *MockNotifier_NotifyAdmin_Call {
	return &MockNotifier_NotifyAdmin_Call{Call: _e.mock.On("NotifyAdmin", ctx, msg)}
}

func (_c *MockNotifier_NotifyAdmin_Call) Run(run func(ctx context.Context, msg notification.Message)) *MockNotifier_NotifyAdmin_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(notification.Message))
	})
	return _c
}

func (_c *MockNotifier_NotifyAdmin_Call) Return() *MockNotifier_NotifyAdmin_Call {
	_c.Call.Return()
	return _c
}

// Messages returns the messages passed to method, in call order.
func (_m *MockNotifier) Messages(method string) []notification.Message {
	var out []notification.Message
	for _, call := range _m.Calls {
		if call.Method == method {
			out = append(out, call.Arguments.Get(1).(notification.Message))
		}
	}
	return out
}

// NewMockNotifier creates a new instance of MockNotifier. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockNotifier(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockNotifier {
	m := &MockNotifier{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

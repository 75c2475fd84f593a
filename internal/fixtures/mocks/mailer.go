package mocks

import (
	"context"

	"github.com/amirasaad/charity/pkg/provider/mail"
	"github.com/stretchr/testify/mock"
)

// MockMailer is a mock of the mail.Mailer port.
type MockMailer struct {
	mock.Mock
}

type MockMailer_Expecter struct {
	mock *mock.Mock
}

func (_m *MockMailer) EXPECT() *MockMailer_Expecter {
	return &MockMailer_Expecter{mock: &_m.Mock}
}

// Send provides a mock function with given fields: ctx, msg
func (_m *MockMailer) Send(ctx context.Context, msg *mail.Message) error {
	ret := _m.Called(ctx, msg)

	if len(ret) == 0 {
		panic("no return value specified for Send")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, *mail.Message) error); ok {
		r0 = rf(ctx, msg)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// MockMailer_Send_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Send'
type MockMailer_Send_Call struct {
	*mock.Call
}

// Send is a helper method to define mock.On call
//   - ctx context.Context
//   - msg *mail.Message
func (_e *MockMailer_Expecter) Send(ctx any, msg any) *MockMailer_Send_Call {
	return &MockMailer_Send_Call{Call: _e.mock.On("Send", ctx, msg)}
}

func (_c *MockMailer_Send_Call) Run(run func(ctx context.Context, msg *mail.Message)) *MockMailer_Send_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(*mail.Message))
	})
	return _c
}

func (_c *MockMailer_Send_Call) Return(_a0 error) *MockMailer_Send_Call {
	_c.Call.Return(_a0)
	return _c
}

func (_c *MockMailer_Send_Call) RunAndReturn(run func(context.Context, *mail.Message) error) *MockMailer_Send_Call {
	_c.Call.Return(run)
	return _c
}

// NewMockMailer creates a new instance of MockMailer. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockMailer(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockMailer {
	m := &MockMailer{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

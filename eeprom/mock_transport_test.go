package eeprom

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ardnew/softeeprom/bus"
)

// mockTransport is a testify mock of bus.Transport.
type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) ReadByteData(ctx context.Context, addr bus.Addr, offset uint16) (byte, error) {
	args := m.Called(ctx, addr, offset)
	return args.Get(0).(byte), args.Error(1)
}

func (m *mockTransport) WriteByteData(ctx context.Context, addr bus.Addr, offset uint16, value byte) error {
	args := m.Called(ctx, addr, offset, value)
	return args.Error(0)
}

func (m *mockTransport) Functionality() bus.Functionality {
	args := m.Called()
	return args.Get(0).(bus.Functionality)
}

func newMockTransport() *mockTransport {
	m := &mockTransport{}
	m.On("Functionality").Return(bus.FuncEEPROM).Maybe()
	return m
}

// mockWideTransport is a mockTransport that also takes word-address
// configuration.
type mockWideTransport struct {
	mockTransport
}

func (m *mockWideTransport) SetWideAddressing(addr bus.Addr, wide bool) {
	m.Called(addr, wide)
}

func newMockWideTransport() *mockWideTransport {
	m := &mockWideTransport{}
	m.On("Functionality").Return(bus.FuncEEPROM).Maybe()
	return m
}

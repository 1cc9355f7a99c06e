package sensor

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Temperatures(ctx context.Context) (Groups, error) {
	args := m.Called(ctx)
	groups, _ := args.Get(0).(Groups)
	return groups, args.Error(1)
}

type mockUsage struct {
	mock.Mock
}

func (m *mockUsage) CPUPercent(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockUsage) MemoryPercent(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

type panicSource struct{}

func (panicSource) Temperatures(context.Context) (Groups, error) {
	panic("sysfs vanished")
}

type fakeNVML struct {
	initErr  error
	inits    int
	shutdown int
	temps    []float64
	failAt   int
}

func (f *fakeNVML) Initialize() error {
	f.inits++
	return f.initErr
}

func (f *fakeNVML) Shutdown() error {
	f.shutdown++
	return nil
}

func (f *fakeNVML) GetDeviceCount() (int, error) {
	return len(f.temps), nil
}

func (f *fakeNVML) GetTemperature(index int) (float64, error) {
	if index == f.failAt {
		return 0, errNVMLRead
	}
	return f.temps[index], nil
}

// MockMarketDataProvider follows mockgen's output layout for the go:generate
// directive in market_provider.go. Running go generate ./services replaces
// this file with the generated mock.

package services_test

import (
	context "context"
	reflect "reflect"

	models "github.com/fenilmodi00/market-backend/models"
	services "github.com/fenilmodi00/market-backend/services"
	gomock "go.uber.org/mock/gomock"
)

// MockMarketDataProvider is a mock of MarketDataProvider interface.
type MockMarketDataProvider struct {
	ctrl     *gomock.Controller
	recorder *MockMarketDataProviderMockRecorder
	isgomock struct{}
}

// MockMarketDataProviderMockRecorder is the mock recorder for MockMarketDataProvider.
type MockMarketDataProviderMockRecorder struct {
	mock *MockMarketDataProvider
}

// NewMockMarketDataProvider creates a new mock instance.
func NewMockMarketDataProvider(ctrl *gomock.Controller) *MockMarketDataProvider {
	mock := &MockMarketDataProvider{ctrl: ctrl}
	mock.recorder = &MockMarketDataProviderMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockMarketDataProvider) EXPECT() *MockMarketDataProviderMockRecorder {
	return m.recorder
}

// FetchIndexSeries mocks base method.
func (m *MockMarketDataProvider) FetchIndexSeries(ctx context.Context, symbol string, span models.Period) ([]services.RawBar, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FetchIndexSeries", ctx, symbol, span)
	ret0, _ := ret[0].([]services.RawBar)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FetchIndexSeries indicates an expected call of FetchIndexSeries.
func (mr *MockMarketDataProviderMockRecorder) FetchIndexSeries(ctx, symbol, span any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FetchIndexSeries", reflect.TypeOf((*MockMarketDataProvider)(nil).FetchIndexSeries), ctx, symbol, span)
}

// FetchQuote mocks base method.
func (m *MockMarketDataProvider) FetchQuote(ctx context.Context, symbol string) (services.RawQuote, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FetchQuote", ctx, symbol)
	ret0, _ := ret[0].(services.RawQuote)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FetchQuote indicates an expected call of FetchQuote.
func (mr *MockMarketDataProviderMockRecorder) FetchQuote(ctx, symbol any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FetchQuote", reflect.TypeOf((*MockMarketDataProvider)(nil).FetchQuote), ctx, symbol)
}

// FetchSeries mocks base method.
func (m *MockMarketDataProvider) FetchSeries(ctx context.Context, symbol string, period models.Period) ([]services.RawBar, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FetchSeries", ctx, symbol, period)
	ret0, _ := ret[0].([]services.RawBar)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FetchSeries indicates an expected call of FetchSeries.
func (mr *MockMarketDataProviderMockRecorder) FetchSeries(ctx, symbol, period any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FetchSeries", reflect.TypeOf((*MockMarketDataProvider)(nil).FetchSeries), ctx, symbol, period)
}

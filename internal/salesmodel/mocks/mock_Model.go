// Package mocks provides test doubles for sales models.
package mocks

import (
	model "github.com/sells-group/sitesales/internal/model"
	mock "github.com/stretchr/testify/mock"
)

// MockModel is a mock type for the Model interface.
type MockModel struct {
	mock.Mock
}

// Name provides a mock function with given fields:
func (_m *MockModel) Name() string {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Name")
	}

	var r0 string
	if rf, ok := ret.Get(0).(func() string); ok {
		r0 = rf()
	} else {
		r0 = ret.Get(0).(string)
	}

	return r0
}

// Features provides a mock function with given fields:
func (_m *MockModel) Features() []string {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Features")
	}

	var r0 []string
	if rf, ok := ret.Get(0).(func() []string); ok {
		r0 = rf()
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]string)
		}
	}

	return r0
}

// Predict provides a mock function with given fields: v
func (_m *MockModel) Predict(v model.FeatureVector) (float64, error) {
	ret := _m.Called(v)

	if len(ret) == 0 {
		panic("no return value specified for Predict")
	}

	var r0 float64
	var r1 error
	if rf, ok := ret.Get(0).(func(model.FeatureVector) (float64, error)); ok {
		return rf(v)
	}
	if rf, ok := ret.Get(0).(func(model.FeatureVector) float64); ok {
		r0 = rf(v)
	} else {
		r0 = ret.Get(0).(float64)
	}

	if rf, ok := ret.Get(1).(func(model.FeatureVector) error); ok {
		r1 = rf(v)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockModel creates a new instance of MockModel. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMockModel(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockModel {
	m := &MockModel{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

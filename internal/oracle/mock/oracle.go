// Package mock provides a testify mock of oracle.Oracle.
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/roach88/ombu/internal/model"
	"github.com/roach88/ombu/internal/oracle"
)

// Oracle is a mock type for the oracle.Oracle interface.
type Oracle struct {
	mock.Mock
}

var _ oracle.Oracle = (*Oracle)(nil)

// NewOracle creates a mock and registers assertion of expectations on cleanup.
func NewOracle(t interface {
	mock.TestingT
	Cleanup(func())
}) *Oracle {
	m := &Oracle{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// CreateGroup provides a mock function with given fields: ctx
func (_m *Oracle) CreateGroup(ctx context.Context) (model.GroupID, error) {
	ret := _m.Called(ctx)

	var r0 model.GroupID
	if rf, ok := ret.Get(0).(func(context.Context) model.GroupID); ok {
		r0 = rf(ctx)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(model.GroupID)
	}
	return r0, ret.Error(1)
}

// AddMember provides a mock function with given fields: ctx, group, commitment
func (_m *Oracle) AddMember(ctx context.Context, group model.GroupID, commitment model.Commitment) error {
	ret := _m.Called(ctx, group, commitment)
	return ret.Error(0)
}

// RemoveMember provides a mock function with given fields: ctx, group, commitment, siblings
func (_m *Oracle) RemoveMember(ctx context.Context, group model.GroupID, commitment model.Commitment, siblings []model.Word) error {
	ret := _m.Called(ctx, group, commitment, siblings)
	return ret.Error(0)
}

// UpdateGroupAdmin provides a mock function with given fields: ctx, group, newAdmin
func (_m *Oracle) UpdateGroupAdmin(ctx context.Context, group model.GroupID, newAdmin model.Address) error {
	ret := _m.Called(ctx, group, newAdmin)
	return ret.Error(0)
}

// AcceptGroupAdmin provides a mock function with given fields: ctx, group
func (_m *Oracle) AcceptGroupAdmin(ctx context.Context, group model.GroupID) error {
	ret := _m.Called(ctx, group)
	return ret.Error(0)
}

// ValidateProof provides a mock function with given fields: ctx, group, proof
func (_m *Oracle) ValidateProof(ctx context.Context, group model.GroupID, proof model.Proof) error {
	ret := _m.Called(ctx, group, proof)
	return ret.Error(0)
}

// HasMember provides a mock function with given fields: ctx, group, commitment
func (_m *Oracle) HasMember(ctx context.Context, group model.GroupID, commitment model.Commitment) (bool, error) {
	ret := _m.Called(ctx, group, commitment)

	var r0 bool
	if rf, ok := ret.Get(0).(func(context.Context, model.GroupID, model.Commitment) bool); ok {
		r0 = rf(ctx, group, commitment)
	} else {
		r0 = ret.Bool(0)
	}
	return r0, ret.Error(1)
}

package ridepool_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/challengeschool/ridepool"
)

// MockIdentityClient implements ridepool.IdentityClient
type MockIdentityClient struct {
	mock.Mock
}

func (m *MockIdentityClient) BeginFederatedSignIn(ctx context.Context, provider string) (string, error) {
	args := m.Called(ctx, provider)
	return args.String(0), args.Error(1)
}

func (m *MockIdentityClient) CurrentSession(ctx context.Context) (*ridepool.SessionObject, error) {
	args := m.Called(ctx)
	session, _ := args.Get(0).(*ridepool.SessionObject)
	return session, args.Error(1)
}

func (m *MockIdentityClient) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockProfileService implements ridepool.ProfileService
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) Fetch(ctx context.Context, identifier string) (*ridepool.Profile, error) {
	args := m.Called(ctx, identifier)
	profile, _ := args.Get(0).(*ridepool.Profile)
	return profile, args.Error(1)
}

func (m *MockProfileService) Create(ctx context.Context, profile *ridepool.Profile) (*ridepool.Profile, error) {
	args := m.Called(ctx, profile)
	created, _ := args.Get(0).(*ridepool.Profile)
	return created, args.Error(1)
}

func (m *MockProfileService) Update(ctx context.Context, profile *ridepool.Profile) (*ridepool.Profile, error) {
	args := m.Called(ctx, profile)
	updated, _ := args.Get(0).(*ridepool.Profile)
	return updated, args.Error(1)
}

func (m *MockProfileService) Delete(ctx context.Context, identifier string) error {
	args := m.Called(ctx, identifier)
	return args.Error(0)
}

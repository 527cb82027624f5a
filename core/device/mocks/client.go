package mocks

import (
	"context"

	"declaration-manager/core/device"

	"github.com/stretchr/testify/mock"
)

// Client is a mock implementation of device.Client
type Client struct {
	mock.Mock
}

func (m *Client) Create(ctx context.Context, path string, body device.Body) error {
	args := m.Called(ctx, path, body)
	return args.Error(0)
}

func (m *Client) Modify(ctx context.Context, path string, body device.Body) error {
	args := m.Called(ctx, path, body)
	return args.Error(0)
}

func (m *Client) CreateOrModify(ctx context.Context, path string, body device.Body, opts *device.QueryOptions, retry *device.RetryPolicy) error {
	args := m.Called(ctx, path, body, opts, retry)
	return args.Error(0)
}

func (m *Client) Transaction(ctx context.Context, commands []device.Command) error {
	args := m.Called(ctx, commands)
	return args.Error(0)
}

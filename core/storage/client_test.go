package storage_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"declaration-manager/core/storage"
	"declaration-manager/core/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		cfg := storage.Config{
			Endpoint:  "localhost:9000",
			AccessKey: "testkey",
			SecretKey: "testsecret",
			UseSSL:    false,
			Bucket:    "test-bucket",
			Region:    "us-east-1",
		}

		client, err := storage.NewClient(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("EndpointWithHTTP", func(t *testing.T) {
		cfg := storage.Config{
			Endpoint:  "http://localhost:9000",
			AccessKey: "testkey",
			SecretKey: "testsecret",
			UseSSL:    false,
		}

		client, err := storage.NewClient(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("EndpointWithHTTPS", func(t *testing.T) {
		cfg := storage.Config{
			Endpoint:  "https://s3.amazonaws.com",
			AccessKey: "testkey",
			SecretKey: "testsecret",
			UseSSL:    true,
			Region:    "us-east-1",
		}

		client, err := storage.NewClient(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestNewClient_NotConfigured(t *testing.T) {
	_, err := storage.NewClient(storage.Config{})
	assert.ErrorIs(t, err, storage.ErrNotConfigured)
}

func TestReadObject(t *testing.T) {
	client := new(mocks.Client)
	client.On("GetObject", mock.Anything, "declarations", "site-a.json", mock.Anything).
		Return(io.NopCloser(bytes.NewReader([]byte(`{"class":"DO"}`))), nil).Once()
	client.On("GetObject", mock.Anything, "declarations", "missing.json", mock.Anything).
		Return(nil, errors.New("NoSuchKey")).Once()

	data, err := storage.ReadObject(context.Background(), client, "declarations", "site-a.json")
	require.NoError(t, err)
	assert.Equal(t, `{"class":"DO"}`, string(data))

	_, err = storage.ReadObject(context.Background(), client, "declarations", "missing.json")
	require.Error(t, err)
	assert.Equal(t, "failed to get missing.json: NoSuchKey", err.Error())
}

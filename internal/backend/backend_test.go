package backend_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/tether/internal/backend"
	"github.com/jacentio/tether/internal/config"
	"github.com/jacentio/tether/memstore"
	"github.com/jacentio/tether/user"
)

func TestOpen_Memory(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Backend: config.BackendMemory, CollectionPrefix: "dev-"}

	b, err := backend.Open(ctx, cfg, nil)
	require.NoError(t, err)
	defer b.Close(ctx)

	assert.Equal(t, "dev-principals", b.Principals.Collection())
	assert.Equal(t, "dev-auth_types", b.AuthTypes.Collection())
	assert.Equal(t, []string{"dev-auth_types"}, b.Registry.Collections())
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := backend.Open(context.Background(), &config.Config{Backend: "redis"}, nil)
	assert.Error(t, err)
}

func TestBackend_Cascade(t *testing.T) {
	ctx := context.Background()
	b := backend.New(memstore.NewCollection("principals"), memstore.NewCollection("auth_types"), nil, nil)

	at := &user.AuthTypeEntity{}
	at.SetSource(user.Password)
	at, err := b.AuthTypes.Save(ctx, at, nil)
	require.NoError(t, err)
	require.NotNil(t, at)

	for range 2 {
		p := &user.PrincipalEntity{}
		p.SetPrincipalID(at.ID())
		saved, err := b.Principals.Service().Save(ctx, p, nil)
		require.NoError(t, err)
		require.NotNil(t, saved)
	}

	n, err := b.Registry.Detach(ctx, b.AuthTypes.Collection(), at.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	count, err := b.Principals.CountByPrincipalID(ctx, at.ID())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestBackend_Close(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disconnect")
	var closed bool
	b := backend.New(memstore.NewCollection("p"), memstore.NewCollection("a"), func(context.Context) error {
		closed = true
		return boom
	}, nil)

	assert.ErrorIs(t, b.Close(ctx), boom)
	assert.True(t, closed)

	noop := backend.New(memstore.NewCollection("p"), memstore.NewCollection("a"), nil, nil)
	assert.NoError(t, noop.Close(ctx))
}

func TestNewDynamoDBClient_Endpoint(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	client, err := backend.NewDynamoDBClient(context.Background(), &config.Config{
		DynamoDBRegion:   "eu-west-1",
		DynamoDBEndpoint: "http://localhost:8000",
	})
	require.NoError(t, err)

	opts := client.Options()
	assert.Equal(t, "eu-west-1", opts.Region)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://localhost:8000", *opts.BaseEndpoint)
}

package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPostgresPing_WithoutPool(t *testing.T) {
	t.Parallel()

	require.Error(t, (&Postgres{}).Ping(context.Background()))

	var p *Postgres
	require.Error(t, p.Ping(context.Background()))
}

func TestRedisPing_WithoutClient(t *testing.T) {
	t.Parallel()

	require.Error(t, (&Redis{}).Ping(context.Background()))

	var r *Redis
	require.Error(t, r.Ping(context.Background()))
}

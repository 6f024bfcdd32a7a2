package memstore

import (
	"context"
	"testing"

	"fxconv-service/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	s := New()
	_, err := s.Load(context.Background())
	require.ErrorIs(t, err, domain.ErrNoSnapshot)

	snap := domain.RateSnapshot{Seq: 2, USDToRUB: 95, USDToKGS: 89.5, Status: domain.SnapshotStatusValid}
	require.NoError(t, s.Save(context.Background(), snap))
	got, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, snap, got)
}

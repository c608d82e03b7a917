package entity_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tickforge/tickforge/internal/core/component"
	"github.com/tickforge/tickforge/internal/core/entity"
)

type position struct{ X, Y float64 }
type velocity struct{ X, Y float64 }

func TestStore_Query(t *testing.T) {
	s := entity.NewStore()
	positions := component.For[position](s)
	velocities := component.For[velocity](s)

	moving := s.Create()
	positions.Insert(moving, position{X: 1})
	velocities.Insert(moving, velocity{X: 1})

	still := s.Create()
	positions.Insert(still, position{X: 2})

	loose := s.Create()
	_ = loose

	t.Run("matches entities holding all listed types", func(t *testing.T) {
		got := s.Query(component.TypeOf[position](), component.TypeOf[velocity]()).Collect()
		require.Equal(t, []entity.ID{moving}, got)
	})

	t.Run("single type matches every holder", func(t *testing.T) {
		got := s.Query(component.TypeOf[position]()).Collect()
		require.ElementsMatch(t, []entity.ID{moving, still}, got)
	})

	t.Run("iterator is restartable", func(t *testing.T) {
		q := s.Query(component.TypeOf[position]())
		require.Equal(t, 2, q.Count())
		require.Equal(t, 2, q.Count())
	})

	t.Run("no types yields nothing", func(t *testing.T) {
		require.Zero(t, s.Query().Count())
	})

	t.Run("unattached type yields nothing", func(t *testing.T) {
		type never struct{}
		require.Zero(t, s.Query(component.TypeOf[never]()).Count())
	})

	t.Run("destroyed entities drop out", func(t *testing.T) {
		require.NoError(t, s.Destroy(moving))
		got := s.Query(component.TypeOf[position]()).Collect()
		require.Equal(t, []entity.ID{still}, got)
	})
}

func TestStore_All(t *testing.T) {
	s := entity.NewStore()
	a := s.Create()
	b := s.Create()
	require.NoError(t, s.Destroy(a))

	require.Equal(t, []entity.ID{b}, s.All().Collect())
}

package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreInitIsLazyAndOnce(t *testing.T) {
	s := NewStore()
	_, ok := s.Get(4)
	assert.False(t, ok)

	s.Init(4, 3)
	o, ok := s.Get(4)
	assert.True(t, ok)
	assert.Equal(t, Order{0, 1, 2}, o)

	s.MoveToEnd(4, 0)
	s.Init(4, 3)
	o, _ = s.Get(4)
	assert.Equal(t, Order{1, 2, 0}, o)
}

func TestStoreMutations(t *testing.T) {
	s := NewStore()
	s.Init(0, 4)
	s.Delete(0, 1)
	s.MoveToStart(0, 2)
	o, _ := s.Get(0)
	assert.Equal(t, Order{3, 0, 2}, o)

	s.Reconcile(0, 3)
	s.Reconcile(0, 3)
	o, _ = s.Get(0)
	assert.Equal(t, Order{0, 2}, o)
}

func TestStoreMutationsWithoutOrderAreNoops(t *testing.T) {
	s := NewStore()
	s.Delete(1, 0)
	s.MoveToStart(1, 1)
	s.MoveToEnd(1, 0)
	s.Reconcile(1, 0)
	assert.Equal(t, 0, s.Len())
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	s := NewStore()
	s.Init(0, 2)
	snap := s.Snapshot()
	s.MoveToEnd(0, 0)
	assert.Equal(t, Order{0, 1}, snap[0])

	got, _ := s.Get(0)
	got[0] = 9
	again, _ := s.Get(0)
	assert.Equal(t, Order{1, 0}, again)

	s.Reset()
	assert.Equal(t, 0, s.Len())
}

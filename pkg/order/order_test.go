package order

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func randomOrder(r *rand.Rand) Order {
	n := r.Intn(8)
	o := Order(r.Perm(n + r.Intn(4))[:n])
	return o
}

func TestReconcileIsIdempotent(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		o := randomOrder(r)
		k := r.Intn(10)
		once := o.Reconcile(k)
		assert.Equal(t, once, once.Reconcile(k), "order %v, count %d", o, k)
	}
}

func TestReconcileKeepsSurvivorsInOrder(t *testing.T) {
	assert.Equal(t, Order{2, 0}, Order{2, 3, 0, 4}.Reconcile(3))
	assert.Equal(t, Order{}, Order{5, 6}.Reconcile(2))
	assert.Equal(t, Order{1, 0}, Order{1, 1, 0}.Reconcile(2))
}

func TestDeleteRemovesExactlyOne(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 200; i++ {
		o := randomOrder(r)
		if len(o) == 0 {
			continue
		}
		x := o[r.Intn(len(o))]
		got := o.Delete(x)
		assert.Len(t, got, len(o)-1)
		assert.NotContains(t, got, x)

		var want Order
		for _, i := range o {
			if i != x {
				want = append(want, i)
			}
		}
		if want == nil {
			want = Order{}
		}
		assert.Equal(t, want, got)
	}
}

func TestDeleteAbsentIsNoop(t *testing.T) {
	o := Order{0, 1, 2}
	assert.Equal(t, o, o.Delete(7))
}

func TestMoveToStartThenEnd(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		o := randomOrder(r)
		if len(o) == 0 {
			continue
		}
		pos := r.Intn(len(o))
		x := o[pos]
		moved := o.MoveToStart(pos)
		assert.Equal(t, x, moved[0])
		// wherever it is now, moving it to the end puts it last
		back := moved.MoveToEnd(0)
		assert.Equal(t, x, back[len(back)-1])
		assert.ElementsMatch(t, o, back)
	}
}

func TestMovesAtTheEdgesAreIdentity(t *testing.T) {
	o := Order{3, 1, 2}
	assert.Equal(t, o, o.MoveToStart(0))
	assert.Equal(t, o, o.MoveToEnd(2))
}

func TestMovesOutOfRangeAreNoops(t *testing.T) {
	o := Order{0, 1, 2}
	assert.Equal(t, o, o.MoveToStart(3))
	assert.Equal(t, o, o.MoveToStart(-1))
	assert.Equal(t, o, o.MoveToEnd(9))
	assert.Equal(t, Order{}, Order{}.MoveToEnd(0))
}

func TestMovesDoNotAlias(t *testing.T) {
	o := Order{0, 1, 2}
	_ = o.MoveToEnd(0)
	_ = o.MoveToStart(2)
	_ = o.Delete(1)
	assert.Equal(t, Order{0, 1, 2}, o)
}

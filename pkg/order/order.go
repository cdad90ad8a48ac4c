// Package order keeps, per table row, the display (and save) order of
// that row's images.
//
// An Order is a sequence of indices into a row's image list: the
// non-empty image slots of the row, in column order. Mutations never
// fail; asking for something out of range leaves the order as it
// was.
package order

// Order is a permutation of (a subset of) the indices into one row's
// image list.
type Order []int

// Identity returns the order [0, 1, ..., n-1].
func Identity(n int) Order {
	if n < 0 {
		n = 0
	}
	o := make(Order, n)
	for i := range o {
		o[i] = i
	}
	return o
}

// Copy returns an order that shares no storage with o.
func (o Order) Copy() Order {
	if o == nil {
		return nil
	}
	c := make(Order, len(o))
	copy(c, o)
	return c
}

// Reconcile drops every index that is no longer valid for an image
// list of length count, keeping the survivors in their relative
// order. Duplicates are dropped too, so the result is always a valid
// ordering.
func (o Order) Reconcile(count int) Order {
	out := make(Order, 0, len(o))
	seen := make(map[int]bool, len(o))
	for _, i := range o {
		if i < 0 || i >= count || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	return out
}

// Delete removes the (first) occurrence of imageIndex.
func (o Order) Delete(imageIndex int) Order {
	for pos, i := range o {
		if i == imageIndex {
			out := make(Order, 0, len(o)-1)
			out = append(out, o[:pos]...)
			return append(out, o[pos+1:]...)
		}
	}
	return o.Copy()
}

// MoveToStart moves the element at position to the front.
func (o Order) MoveToStart(position int) Order {
	if position < 0 || position >= len(o) {
		return o.Copy()
	}
	out := make(Order, 0, len(o))
	out = append(out, o[position])
	out = append(out, o[:position]...)
	return append(out, o[position+1:]...)
}

// MoveToEnd moves the element at position to the back.
func (o Order) MoveToEnd(position int) Order {
	if position < 0 || position >= len(o) {
		return o.Copy()
	}
	out := make(Order, 0, len(o))
	out = append(out, o[:position]...)
	out = append(out, o[position+1:]...)
	return append(out, o[position])
}

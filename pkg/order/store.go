package order

// Store holds the current Order of every row that has been looked
// at. Rows are identified by their index in the loaded table.
//
// Store is not safe for concurrent use; the session that owns it
// serialises access.
type Store struct {
	orders map[int]Order
}

func NewStore() *Store {
	return &Store{orders: map[int]Order{}}
}

// Init creates the identity order for a row, unless it already has
// one.
func (s *Store) Init(row, imageCount int) {
	if _, ok := s.orders[row]; ok {
		return
	}
	s.orders[row] = Identity(imageCount)
}

// Reconcile drops indices that are out of range for a row whose
// image list now has currentCount entries.
func (s *Store) Reconcile(row, currentCount int) {
	if o, ok := s.orders[row]; ok {
		s.orders[row] = o.Reconcile(currentCount)
	}
}

// Delete removes imageIndex from a row's order. Clearing the
// underlying slot is up to the caller.
func (s *Store) Delete(row, imageIndex int) {
	if o, ok := s.orders[row]; ok {
		s.orders[row] = o.Delete(imageIndex)
	}
}

// MoveToStart moves the image shown at position to the front of the
// row's order.
func (s *Store) MoveToStart(row, position int) {
	if o, ok := s.orders[row]; ok {
		s.orders[row] = o.MoveToStart(position)
	}
}

// MoveToEnd moves the image shown at position to the back of the
// row's order.
func (s *Store) MoveToEnd(row, position int) {
	if o, ok := s.orders[row]; ok {
		s.orders[row] = o.MoveToEnd(position)
	}
}

// Get returns a copy of a row's order, and whether there is one.
func (s *Store) Get(row int) (Order, bool) {
	o, ok := s.orders[row]
	return o.Copy(), ok
}

// Set replaces a row's order.
func (s *Store) Set(row int, o Order) {
	s.orders[row] = o.Copy()
}

// Snapshot returns a deep copy of every row's order.
func (s *Store) Snapshot() map[int]Order {
	snap := make(map[int]Order, len(s.orders))
	for row, o := range s.orders {
		snap[row] = o.Copy()
	}
	return snap
}

// Reset forgets every order, e.g., when another table is loaded.
func (s *Store) Reset() {
	s.orders = map[int]Order{}
}

// Len is the number of rows with an order.
func (s *Store) Len() int {
	return len(s.orders)
}

package connect

// Table is a simple, thread-unsafe connection table keyed by descriptor. It is owned
// by the event loop and must only be touched from it
type Table[C any] struct {
	conns map[int]C
}

func New[C any]() *Table[C] {
	return &Table[C]{
		conns: make(map[int]C),
	}
}

func (t *Table[C]) Set(fd int, conn C) {
	t.conns[fd] = conn
}

// Get returns the connection corresponding to the descriptor, or false if not found
func (t *Table[C]) Get(fd int) (conn C, found bool) {
	conn, found = t.conns[fd]
	return conn, found
}

// Delete removes the entry and returns it. Deleting an unknown descriptor is a no-op
// reporting false, so a descriptor queued twice for closure is released once
func (t *Table[C]) Delete(fd int) (conn C, found bool) {
	conn, found = t.conns[fd]
	if found {
		delete(t.conns, fd)
	}

	return conn, found
}

func (t *Table[C]) Len() int {
	return len(t.conns)
}

// Fds appends every tracked descriptor to buff. The order is unspecified
func (t *Table[C]) Fds(buff []int) []int {
	for fd := range t.conns {
		buff = append(buff, fd)
	}

	return buff
}

// Clear calls onRemove for every entry and empties the table
func (t *Table[C]) Clear(onRemove func(fd int, conn C)) {
	for fd, conn := range t.conns {
		onRemove(fd, conn)
		delete(t.conns, fd)
	}
}

package host

// Arena is a fixed-capacity scratch region for one enumeration pass.
// The descriptor parser copies the configuration descriptor set into the
// arena and hands out sub-slice views of it; parsed records are stored in
// fixed-size backing arrays owned by the arena. Nothing is heap-allocated
// during a parse.
//
// The arena is exclusively owned by the enumeration pass in progress and
// is reset before parsing the next device's descriptor. Records returned
// by the parser borrow arena storage and must not be retained past that
// reset.
type Arena struct {
	buf []byte
	off int

	ifaceStore [MaxInterfacesPerDevice]Interface
	ifaceCount int

	epStore [MaxEndpointsPerDevice]Endpoint
	epCount int
}

// NewArena creates an arena with the given byte capacity. The capacity
// bounds the size of a single device's configuration descriptor set.
func NewArena(capacity int) *Arena {
	return &Arena{buf: make([]byte, capacity)}
}

// Capacity returns the arena's byte capacity.
func (a *Arena) Capacity() int {
	return len(a.buf)
}

// Len returns the number of bytes currently in use.
func (a *Arena) Len() int {
	return a.off
}

// Reset discards all storage, invalidating every record and slice handed
// out since the previous reset.
func (a *Arena) Reset() {
	a.off = 0
	a.ifaceCount = 0
	a.epCount = 0
}

// copyIn copies data into the arena and returns the owned view.
// Returns false if the arena lacks capacity.
func (a *Arena) copyIn(data []byte) ([]byte, bool) {
	if a.off+len(data) > len(a.buf) {
		return nil, false
	}
	out := a.buf[a.off : a.off+len(data)]
	copy(out, data)
	a.off += len(data)
	return out, true
}

// newInterface opens a new interface record. Returns nil if the record
// store is full.
func (a *Arena) newInterface() *Interface {
	if a.ifaceCount >= len(a.ifaceStore) {
		return nil
	}
	iface := &a.ifaceStore[a.ifaceCount]
	*iface = Interface{}
	a.ifaceCount++
	return iface
}

// newEndpoint appends an endpoint record. Returns nil if the record
// store is full. Endpoints for one interface are appended consecutively,
// so an interface's endpoint list is a sub-slice of the store.
func (a *Arena) newEndpoint() *Endpoint {
	if a.epCount >= len(a.epStore) {
		return nil
	}
	ep := &a.epStore[a.epCount]
	*ep = Endpoint{}
	a.epCount++
	return ep
}

// interfacesFrom returns the records opened since index start.
func (a *Arena) interfacesFrom(start int) []Interface {
	return a.ifaceStore[start:a.ifaceCount]
}

// endpointsFrom returns the endpoint records appended since index start.
func (a *Arena) endpointsFrom(start int) []Endpoint {
	return a.epStore[start:a.epCount]
}

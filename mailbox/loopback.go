package mailbox

type frame struct {
	data Message
	n    int
}

// Endpoint is one side of an in-memory mailbox pair. It backs the
// host-side simulator and the package tests; on real hardware the
// Mailbox interface is implemented by the shared-memory driver.
type Endpoint struct {
	rx, tx chan frame
	events chan struct{}
	closed chan struct{}
}

// Pair returns two connected endpoints. Messages written on one side
// are read on the other. Event signals travel from a to b only,
// matching the device-to-host notification line.
func Pair() (a, b *Endpoint) {
	ab := make(chan frame, 8)
	ba := make(chan frame, 8)
	events := make(chan struct{}, 8)
	closed := make(chan struct{})

	a = &Endpoint{rx: ba, tx: ab, events: events, closed: closed}
	b = &Endpoint{rx: ab, tx: ba, events: events, closed: closed}
	return a, b
}

func (e *Endpoint) Read(msg *Message, block bool) (bool, error) {
	if block {
		select {
		case f := <-e.rx:
			*msg = f.data
			return true, nil
		case <-e.closed:
			return false, ErrClosed
		}
	}

	select {
	case f := <-e.rx:
		*msg = f.data
		return true, nil
	case <-e.closed:
		return false, ErrClosed
	default:
		return false, nil
	}
}

func (e *Endpoint) Write(msg *Message, length int) error {
	f := frame{n: length}
	copy(f.data[:], msg[:length])

	select {
	case e.tx <- f:
		return nil
	case <-e.closed:
		return ErrClosed
	}
}

func (e *Endpoint) SignalEvent() error {
	select {
	case e.events <- struct{}{}:
	default:
	}
	return nil
}

// WaitEvent reports whether an event signal is pending, consuming it.
func (e *Endpoint) WaitEvent() bool {
	select {
	case <-e.events:
		return true
	default:
		return false
	}
}

// Close tears down both sides of the pair.
func (e *Endpoint) Close() error {
	select {
	case <-e.closed:
	default:
		close(e.closed)
	}
	return nil
}

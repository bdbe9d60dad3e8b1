package mailbox

import "errors"

// ErrClosed is returned once the peer endpoint has gone away.
var ErrClosed = errors.New("mailbox closed")

// Mailbox moves fixed-format messages between this processor and the
// host. Exchanges are strictly ordered: the response for one request is
// written before the next request is read, and only one exchange may be
// in flight at a time.
type Mailbox interface {
	// Read fills msg with the next request. With block set it waits for
	// one; otherwise it returns false immediately when none is pending.
	Read(msg *Message, block bool) (bool, error)

	// Write sends the first length bytes of msg as a response.
	Write(msg *Message, length int) error

	// SignalEvent raises the out-of-band notification line telling the
	// host that an asynchronous event is queued.
	SignalEvent() error
}

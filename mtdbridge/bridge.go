package mtdbridge

import (
	"time"

	"github.com/labxtech/bridgeboot/mmio"
)

// Bridge drives a storage bridge peripheral that exposes a remote
// processor's flash through a command/status register block and a
// small staging buffer. One command may be outstanding at a time;
// callers must not issue a new command while a prior one is pending.
type Bridge struct {
	bus mmio.Bus

	timeout time.Duration
	slice   time.Duration

	LogFunc func(format string, params ...any)
}

func New(bus mmio.Bus, opts ...Option) *Bridge {
	b := &Bridge{
		bus:     bus,
		timeout: defaultTimeout,
		slice:   defaultSlice,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

func (b *Bridge) log(format string, params ...any) {
	if b.LogFunc != nil {
		b.LogFunc(format, params...)
	}
}

// IssueCommand programs one command into the bridge and waits for the
// remote peer to respond. If the peer never signals completion within
// the timeout, StatusNoResponse is returned. If the peer responds with
// StatusInProgress, the bridge is polled for a second timeout window;
// should the operation still be running when that window elapses, the
// last-read status is returned as-is with StatusInProgress set. Callers
// must treat such a status as a possibly-incomplete operation, not a
// hard failure.
func (b *Bridge) IssueCommand(offset uint32, length uint32, opcode uint32) Status {
	// Clear the completion flag before triggering, so a stale flag from
	// a prior exchange cannot satisfy the poll below.
	b.bus.Write32(regIRQ, irqCompleteBit)
	b.bus.Write32(regAddress, offset)
	b.bus.Write32(regLength, length)
	b.bus.Write32(regCommand, opcode)

	if !b.poll(func() bool {
		return b.bus.Read32(regIRQ)&irqCompleteBit != 0
	}) {
		b.log("bridge: no response to opcode %02x at %08x", opcode, offset)
		return StatusNoResponse
	}

	status := Status(b.bus.Read32(regStatus))

	if status&StatusInProgress != 0 {
		b.poll(func() bool {
			status = Status(b.bus.Read32(regStatus))
			return status&StatusInProgress == 0
		})
	}

	return status
}

// poll evaluates done every slice interval until it reports true or the
// total timeout budget elapses.
func (b *Bridge) poll(done func() bool) bool {
	waits := int((b.timeout + b.slice - 1) / b.slice)
	for i := 0; i <= waits; i++ {
		if done() {
			return true
		}
		time.Sleep(b.slice)
	}
	return false
}

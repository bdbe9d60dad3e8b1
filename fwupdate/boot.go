package fwupdate

import (
	"time"

	"github.com/labxtech/bridgeboot/icap"
	"github.com/labxtech/bridgeboot/mailbox"
)

// State is the result of the boot-time update decision.
type State uint8

const (
	StateIdle State = iota
	StateFallbackDetected
	StateHostRequested
	StateBootDelayRequested
	StateNormal
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFallbackDetected:
		return "fallback detected"
	case StateHostRequested:
		return "host requested"
	case StateBootDelayRequested:
		return "boot delay requested"
	case StateNormal:
		return "normal"
	default:
		return "unknown"
	}
}

// Reconfigurer is the reconfiguration engine consulted for the
// persistent fallback indicator and used to launch a new image.
type Reconfigurer interface {
	TriggerReconfiguration(primary uint32, fallback uint32) error
	ReadFallbackIndicator() (uint16, error)
}

// Boot runs the startup policy deciding whether the device enters
// update mode or continues booting.
type Boot struct {
	loop  *Loop
	recon Reconfigurer
}

func NewBoot(loop *Loop, recon Reconfigurer) *Boot {
	return &Boot{
		loop:  loop,
		recon: recon,
	}
}

// Check reads the fallback indicator, gives the host a brief mailbox
// polling window, and ranks the collected signals. For
// StateFallbackDetected and StateHostRequested it enters the update
// loop and then halts for an external reset; under normal operation the
// caller never regains control from those states. The other states
// return to the caller, with StateBootDelayRequested asking for a
// deliberate pause before the normal boot path continues.
func (b *Boot) Check() State {
	indicator, err := b.recon.ReadFallbackIndicator()
	if err != nil {
		b.loop.logf("fallback indicator read: %v", err)
		indicator = 0
	}

	b.pollMailbox()

	// Signals are ranked: a reconfiguration fallback outweighs a host
	// update request, which outweighs a boot-delay request.
	state := StateNormal
	switch {
	case indicator == icap.FallbackMagic:
		state = StateFallbackDetected
	case b.loop.remainRequested:
		state = StateHostRequested
	case b.loop.delayRequested:
		state = StateBootDelayRequested
	}

	b.loop.logf("boot decision: %v", state)

	switch state {
	case StateFallbackDetected, StateHostRequested:
		b.loop.Run()
		b.loop.logf("firmware update completed, waiting for reset from host")
		b.loop.cfg.halt()
	}

	return state
}

// pollMailbox gives the host a short window to request update mode,
// dispatching any well-formed request immediately and stopping early
// once a dispatch succeeds.
func (b *Boot) pollMailbox() {
	for i := 0; i < b.loop.cfg.pollAttempts; i++ {
		ok, err := b.loop.mbox.Read(&b.loop.req, false)
		if err != nil {
			return
		}

		if !ok {
			time.Sleep(b.loop.cfg.pollInterval)
			continue
		}

		b.loop.serve()
		if b.loop.resp.Status() == mailbox.StatusSuccess {
			break
		}
	}
}

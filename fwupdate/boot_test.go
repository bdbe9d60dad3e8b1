package fwupdate

import (
	"testing"
	"time"

	"github.com/labxtech/bridgeboot/icap"
	"github.com/labxtech/bridgeboot/mailbox"
)

type fakeRecon struct {
	indicator uint16
	triggered bool
}

func (f *fakeRecon) TriggerReconfiguration(primary, fallback uint32) error {
	f.triggered = true
	return nil
}

func (f *fakeRecon) ReadFallbackIndicator() (uint16, error) {
	return f.indicator, nil
}

func newTestBoot(t *testing.T, indicator uint16) (*Boot, *Loop, *mailbox.Endpoint, *bool) {
	t.Helper()

	dev, host := mailbox.Pair()
	t.Cleanup(func() { dev.Close() })

	halted := false
	l := NewLoop(dev, NewSession(make([]byte, 64)),
		WithLogFunc(t.Logf),
		WithHalt(func() { halted = true }),
		WithPollAttempts(50),
		WithPollInterval(time.Millisecond),
	)
	return NewBoot(l, &fakeRecon{indicator: indicator}), l, host, &halted
}

func TestBootFallbackDetected(t *testing.T) {
	b, _, host, halted := newTestBoot(t, icap.FallbackMagic)

	// No mailbox activity; the update loop is entered unconditionally
	// and ends here only because the mailbox goes away.
	host.Close()

	if state := b.Check(); state != StateFallbackDetected {
		t.Errorf("state %v, want %v", state, StateFallbackDetected)
	}
	if !*halted {
		t.Error("device did not halt after the update loop ended")
	}
}

func TestBootFallbackOutranksHostSignals(t *testing.T) {
	b, l, host, _ := newTestBoot(t, icap.FallbackMagic)

	// Even with both host flags raised, fallback wins.
	l.remainRequested = true
	l.delayRequested = true
	host.Close()

	if state := b.Check(); state != StateFallbackDetected {
		t.Errorf("state %v, want %v", state, StateFallbackDetected)
	}
}

func TestBootHostRequested(t *testing.T) {
	b, _, host, halted := newTestBoot(t, 0)

	go func() {
		req := simpleReq(mailbox.ClassFirmwareUpdate, mailbox.SvcRemainInBootloader, 0)
		host.Write(req, req.Length())

		var resp mailbox.Message
		host.Read(&resp, true)
		host.Close()
	}()

	if state := b.Check(); state != StateHostRequested {
		t.Errorf("state %v, want %v", state, StateHostRequested)
	}
	if !*halted {
		t.Error("device did not halt after the update loop ended")
	}
}

func TestBootDelayRequested(t *testing.T) {
	b, _, host, halted := newTestBoot(t, 0)

	req := simpleReq(mailbox.ClassFirmwareUpdate, mailbox.SvcRequestBootDelay, 0)
	if err := host.Write(req, req.Length()); err != nil {
		t.Fatal(err)
	}

	// Boot delay returns control to the caller.
	if state := b.Check(); state != StateBootDelayRequested {
		t.Errorf("state %v, want %v", state, StateBootDelayRequested)
	}
	if *halted {
		t.Error("boot delay must not halt the device")
	}
}

func TestBootNormal(t *testing.T) {
	dev, _ := mailbox.Pair()
	defer dev.Close()

	l := NewLoop(dev, NewSession(make([]byte, 64)),
		WithPollAttempts(2),
		WithPollInterval(time.Millisecond),
	)
	b := NewBoot(l, &fakeRecon{})

	if state := b.Check(); state != StateNormal {
		t.Errorf("state %v, want %v", state, StateNormal)
	}
}

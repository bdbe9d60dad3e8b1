package mailbox

import (
	"bytes"
	"testing"
)

func TestMessageHeader(t *testing.T) {
	var m Message
	m.SetHeader(ClassFirmwareUpdate, SvcStartUpdate, 0)

	if m.Length() != HeaderSize {
		t.Errorf("header-only length %d, want %d", m.Length(), HeaderSize)
	}
	if m.ClassCode() != ClassFirmwareUpdate || m.ServiceCode() != SvcStartUpdate {
		t.Error("header codes not preserved")
	}
	if m.Status() != StatusSuccess {
		t.Errorf("fresh header status %v, want success", m.Status())
	}
}

func TestMessageBody(t *testing.T) {
	var m Message
	m.SetHeader(ClassFirmwareUpdate, SvcSendData, 0)

	payload := []byte{1, 2, 3, 4, 5}
	m.SetBody(payload)

	if m.Length() != HeaderSize+len(payload) {
		t.Errorf("length %d, want %d", m.Length(), HeaderSize+len(payload))
	}
	if !bytes.Equal(m.Body(), payload) {
		t.Errorf("body %v, want %v", m.Body(), payload)
	}
}

func TestMessageFinishRecomputesLength(t *testing.T) {
	var m Message
	m.SetHeader(ClassFirmwareUpdate, SvcGetAttribute, AttrNextQueuedEvent)

	copy(m.Payload(), []byte{9, 9, 9, 9})
	m.Finish(StatusNotExecuted, 4)

	if m.Length() != HeaderSize+4 {
		t.Errorf("length %d, want %d", m.Length(), HeaderSize+4)
	}
	if m.Status() != StatusNotExecuted {
		t.Errorf("status %v, want %v", m.Status(), StatusNotExecuted)
	}
}

func TestMessageLengthClamped(t *testing.T) {
	var m Message
	// A corrupt length field must never frame outside the buffer.
	m[0] = 0xFF
	m[1] = 0xFF
	if m.Length() != BufferSize {
		t.Errorf("oversized length framed as %d", m.Length())
	}
	m[0] = 1
	m[1] = 0
	if m.Length() != HeaderSize {
		t.Errorf("undersized length framed as %d", m.Length())
	}
}

func TestLoopbackExchange(t *testing.T) {
	dev, host := Pair()
	defer dev.Close()

	var req Message
	req.SetHeader(ClassFirmwareUpdate, SvcRequestBootDelay, 0)
	if err := host.Write(&req, req.Length()); err != nil {
		t.Fatal(err)
	}

	var got Message
	ok, err := dev.Read(&got, false)
	if err != nil || !ok {
		t.Fatalf("Read = %v, %v", ok, err)
	}
	if got.ServiceCode() != SvcRequestBootDelay {
		t.Errorf("service code %#x", got.ServiceCode())
	}

	// Non-blocking read with nothing pending.
	if ok, err := dev.Read(&got, false); ok || err != nil {
		t.Errorf("empty Read = %v, %v", ok, err)
	}
}

func TestLoopbackEventSignal(t *testing.T) {
	dev, host := Pair()
	defer dev.Close()

	if host.WaitEvent() {
		t.Error("unexpected pending event")
	}
	if err := dev.SignalEvent(); err != nil {
		t.Fatal(err)
	}
	if !host.WaitEvent() {
		t.Error("event signal not delivered")
	}
}

func TestLoopbackClose(t *testing.T) {
	dev, _ := Pair()
	dev.Close()

	var m Message
	if _, err := dev.Read(&m, true); err != ErrClosed {
		t.Errorf("Read after close = %v, want ErrClosed", err)
	}
}

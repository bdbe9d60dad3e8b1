package icap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fakePort struct {
	words    []uint32
	control  []uint32
	readback uint32
}

func (p *fakePort) Put(word uint32) error {
	p.words = append(p.words, word)
	return nil
}

func (p *fakePort) PutControl(word uint32) error {
	p.control = append(p.control, word)
	return nil
}

func (p *fakePort) Get() (uint32, error) {
	return p.readback, nil
}

func TestTriggerReconfiguration(t *testing.T) {
	port := &fakePort{}
	c := New(port)
	c.settle = 0

	if err := c.TriggerReconfiguration(0x00345678, 0x00010000); err != nil {
		t.Fatal(err)
	}

	want := []uint32{
		wordPad, wordPad,
		wordSync1, wordSync2,
		wordWriteGeneral1, 0x2B3C, // (0x345678 >> 1) & 0xFFFF
		wordWriteGeneral2, 0x001A, // 0x345678 >> 17
		wordWriteGeneral3, 0x0000, // 0x010000 & 0xFFFF
		wordWriteGeneral4, 0x0001, // 0x010000 >> 16
		wordWriteCmd, wordIProg, wordNop,
		wordFinish,
	}
	if diff := cmp.Diff(want, port.words); diff != "" {
		t.Errorf("word sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestReadFallbackIndicator(t *testing.T) {
	port := &fakePort{readback: FallbackMagic}
	c := New(port)
	c.settle = 0

	value, err := c.ReadFallbackIndicator()
	if err != nil {
		t.Fatal(err)
	}
	if value != FallbackMagic {
		t.Errorf("indicator %04x, want %04x", value, FallbackMagic)
	}

	if len(port.control) != 1 || port.control[0] != wordPad {
		t.Errorf("control words %v, want one pad word", port.control)
	}

	want := []uint32{
		wordPad, wordPad,
		wordSync1, wordSync2,
		wordReadGeneral5,
		wordNop, wordNop,
		wordFinish,
	}
	if diff := cmp.Diff(want, port.words); diff != "" {
		t.Errorf("word sequence mismatch (-want +got):\n%s", diff)
	}
}

// Package icap drives the FPGA reconfiguration engine through its
// word-serial configuration port. It provides the two primitives the
// boot path needs: triggering a reconfiguration with a fallback
// address, and reading back the persistent fallback indicator left by
// a failed reconfiguration attempt.
package icap

import (
	"fmt"
	"time"
)

// Configuration words fed to the engine. All are type-1 packets except
// wordFinish, which tells the port to drain its FIFO into the engine.
const (
	wordPad    = 0x0FFFF
	wordSync1  = 0x0AA99
	wordSync2  = 0x05566
	wordNop    = 0x02000
	wordIProg  = 0x0000E
	wordFinish = 0x80000000

	wordWriteGeneral1 = 0x03261
	wordWriteGeneral2 = 0x03281
	wordWriteGeneral3 = 0x032A1
	wordWriteGeneral4 = 0x032C1
	wordReadGeneral5  = 0x02AE1
	wordWriteCmd      = 0x030A1
)

// FallbackMagic is found in the GENERAL5 register after the engine fell
// back to the boot image because a reconfiguration attempt failed.
const FallbackMagic = 0x0ABCD

// Port is the word-serial link feeding the reconfiguration engine.
type Port interface {
	Put(word uint32) error
	PutControl(word uint32) error
	Get() (uint32, error)
}

type ICAP struct {
	port   Port
	settle time.Duration
}

func New(port Port) *ICAP {
	return &ICAP{
		port: port,

		// time for the engine to latch a drained sequence
		settle: time.Millisecond,
	}
}

func (c *ICAP) putAll(words ...uint32) error {
	for _, w := range words {
		if err := c.port.Put(w); err != nil {
			return fmt.Errorf("icap word %05x: %w", w, err)
		}
	}
	return nil
}

// TriggerReconfiguration instructs the engine to load the image at
// primary, falling back to the image at fallback if that load fails.
// On real hardware this call does not return: the engine reconfigures
// the device out from under the caller.
//
// The engine takes 16-bit half-word addresses, so the byte offsets are
// shifted right by one extra bit.
func (c *ICAP) TriggerReconfiguration(primary uint32, fallback uint32) error {
	return c.putAll(
		wordPad, wordPad,
		wordSync1, wordSync2,

		wordWriteGeneral1, (primary>>1)&0xFFFF,
		wordWriteGeneral2, (primary>>17)&0xFF,

		wordWriteGeneral3, fallback&0xFFFF,
		wordWriteGeneral4, (fallback>>16)&0xFF,

		wordWriteCmd, wordIProg, wordNop,
		wordFinish,
	)
}

// ReadFallbackIndicator returns the GENERAL5 register content. A value
// of FallbackMagic means the previous reconfiguration failed and the
// device booted its backup image.
func (c *ICAP) ReadFallbackIndicator() (uint16, error) {
	if err := c.port.PutControl(wordPad); err != nil {
		return 0, err
	}
	time.Sleep(c.settle)

	err := c.putAll(
		wordPad, wordPad,
		wordSync1, wordSync2,

		wordReadGeneral5,
		wordNop, wordNop,

		wordFinish,
	)
	if err != nil {
		return 0, err
	}
	time.Sleep(c.settle)

	value, err := c.port.Get()
	return uint16(value), err
}

package mtdbridge

import "strings"

// Register offsets within the bridge window. The lower registers belong
// to the console UART sharing the peripheral and are not touched here.
const (
	regIRQ     = 0x010
	regMask    = 0x014
	regCommand = 0x018
	regStatus  = 0x01C
	regAddress = 0x020
	regLength  = 0x024

	// mailboxRAM is the staging buffer used for chunked transfers.
	mailboxRAM = 0x800
)

const irqCompleteBit = 1 << 0

// Opcodes understood by the remote storage daemon.
const (
	OpcodeWrite       = 0x02
	OpcodeRead        = 0x03
	OpcodeSectorErase = 0xD8
)

// BufferSize is the capacity of the bridge mailbox RAM, and therefore
// the largest single read or write chunk.
const BufferSize = 2048

// Status is the bridge status register bitfield. StatusNoResponse is
// synthesized locally when the remote peer never signals completion;
// the remaining bits come from the hardware register.
type Status uint32

const (
	StatusInProgress     Status = 1 << 0 // operation still running on the remote side
	StatusWriteEnable    Status = 1 << 1
	StatusNoResponse     Status = 1 << 2
	StatusReadWriteError Status = 1 << 3
	StatusUnmapped       Status = 1 << 4 // address not mapped to a backing file
	StatusRangeError     Status = 1 << 5 // block extends beyond the mapped area
	StatusReadOnly       Status = 1 << 6
	StatusInvalidCommand Status = 1 << 7
)

// Ok reports whether the status carries no error or busy bits.
func (s Status) Ok() bool {
	return s == 0
}

var statusNames = []struct {
	bit  Status
	name string
}{
	{StatusInProgress, "in-progress"},
	{StatusWriteEnable, "write-enable"},
	{StatusNoResponse, "no-response"},
	{StatusReadWriteError, "read/write-error"},
	{StatusUnmapped, "unmapped-address"},
	{StatusRangeError, "range-error"},
	{StatusReadOnly, "read-only"},
	{StatusInvalidCommand, "invalid-command"},
}

func (s Status) String() string {
	if s == 0 {
		return "ok"
	}

	var parts []string
	for _, m := range statusNames {
		if s&m.bit != 0 {
			parts = append(parts, m.name)
		}
	}
	return strings.Join(parts, "|")
}

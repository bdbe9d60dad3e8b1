package mailbox

import (
	"encoding/binary"
	"fmt"
)

// Request and response messages share the same framing: an 8-byte
// header followed by a service-specific payload. The length field
// counts the full message including the header and must always reflect
// the actual encoded size, not the buffer capacity.
const (
	// BufferSize is the fixed capacity of a message buffer.
	BufferSize = 1024

	// HeaderSize is the size of the message header, and therefore the
	// payload offset.
	HeaderSize = 8
)

// Header byte offsets.
const (
	offLength    = 0 // uint16, little-endian
	offClass     = 2
	offService   = 3
	offAttribute = 4
	offStatus    = 5
	// bytes 6..7 reserved
)

// Class codes.
const (
	ClassFirmwareUpdate = 0x01
	ClassSystem         = 0x02
)

// Service codes within the firmware-update class.
const (
	SvcStartUpdate        = 0x01
	SvcSendData           = 0x02
	SvcSendCommand        = 0x03
	SvcRemainInBootloader = 0x04
	SvcRequestBootDelay   = 0x05
	SvcGetAttribute       = 0x06
	SvcSetAttribute       = 0x07
)

// Attribute codes used with SvcGetAttribute/SvcSetAttribute.
const (
	AttrExecutingImageType = 0x01
	AttrEventQueueEnabled  = 0x02
	AttrNextQueuedEvent    = 0x03
)

// CodeImageBoot identifies the bootloader as the executing image in the
// ExecutingImageType attribute.
const CodeImageBoot = 0x02

// Status is the wire status code carried in every response header.
type Status uint8

const (
	StatusSuccess Status = iota
	StatusAlreadyInProgress
	StatusNotInProgress
	StatusCorruptImage
	StatusNotExecuted
	StatusInvalidServiceCode
	StatusInvalidClassCode
	StatusRangeError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusAlreadyInProgress:
		return "update already in progress"
	case StatusNotInProgress:
		return "update not in progress"
	case StatusCorruptImage:
		return "corrupt image"
	case StatusNotExecuted:
		return "command not executed"
	case StatusInvalidServiceCode:
		return "invalid service code"
	case StatusInvalidClassCode:
		return "invalid class code"
	case StatusRangeError:
		return "range error"
	default:
		return fmt.Sprintf("unknown status 0x%02x", uint8(s))
	}
}

// Message is a fixed-capacity request or response buffer, reused across
// exchanges. No per-message allocation takes place.
type Message [BufferSize]byte

func (m *Message) Length() int {
	n := int(binary.LittleEndian.Uint16(m[offLength:]))
	if n < HeaderSize {
		return HeaderSize
	}
	if n > BufferSize {
		return BufferSize
	}
	return n
}

func (m *Message) setLength(n int) {
	binary.LittleEndian.PutUint16(m[offLength:], uint16(n))
}

func (m *Message) ClassCode() uint8     { return m[offClass] }
func (m *Message) ServiceCode() uint8   { return m[offService] }
func (m *Message) AttributeCode() uint8 { return m[offAttribute] }
func (m *Message) Status() Status       { return Status(m[offStatus]) }

// SetHeader prepares a header-only message for the given codes.
func (m *Message) SetHeader(class, service, attribute uint8) {
	m[offClass] = class
	m[offService] = service
	m[offAttribute] = attribute
	m[offStatus] = uint8(StatusSuccess)
	m[6], m[7] = 0, 0
	m.setLength(HeaderSize)
}

// CopyHeader takes the class/service/attribute codes from a request,
// for building the matching response.
func (m *Message) CopyHeader(req *Message) {
	m.SetHeader(req.ClassCode(), req.ServiceCode(), req.AttributeCode())
}

// Payload returns the payload area up to the buffer capacity. Handlers
// write into it and then call Finish with the number of bytes used.
func (m *Message) Payload() []byte {
	return m[HeaderSize:]
}

// Body returns the payload as framed by the length field.
func (m *Message) Body() []byte {
	return m[HeaderSize:m.Length()]
}

// Finish records the response status and recomputes the length field
// from the actual payload size.
func (m *Message) Finish(status Status, payloadLen int) {
	m[offStatus] = uint8(status)
	m.setLength(HeaderSize + payloadLen)
}

// SetBody copies a payload into the message and updates the length
// field accordingly. Oversized payloads are truncated to capacity.
func (m *Message) SetBody(data []byte) int {
	n := copy(m.Payload(), data)
	m.setLength(HeaderSize + n)
	return n
}

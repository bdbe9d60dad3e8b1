package image

import (
	"encoding/binary"
	"errors"
)

// Legacy boot image format: a 64-byte big-endian header followed by the
// payload. The bootloader only accepts kernel-type images.
const (
	HeaderSize = 64
	Magic      = 0x27051956

	TypeInvalid = 0
	TypeKernel  = 2

	nameSize = 32
)

// Header field offsets.
const (
	offMagic     = 0
	offHeaderCRC = 4
	offTime      = 8
	offSize      = 12
	offLoad      = 16
	offEntry     = 20
	offDataCRC   = 24
	offOS        = 28
	offArch      = 29
	offType      = 30
	offComp      = 31
	offName      = 32
)

var (
	ErrorInvalidLength = errors.New("image length not valid")
	ErrorInvalidHeader = errors.New("header is not valid")
	ErrorInvalidType   = errors.New("image type is not bootable")
	ErrorInvalidCRC    = errors.New("CRC is not valid")
)

// CheckType reports whether the image carries a well-formed header of
// the given type. It does not verify the payload CRC.
func CheckType(img []byte, imageType uint8) bool {
	if len(img) < HeaderSize {
		return false
	}
	if binary.BigEndian.Uint32(img[offMagic:]) != Magic {
		return false
	}
	return img[offType] == imageType
}

// Validate checks the header magic, header CRC, image type, declared
// payload size, and payload CRC of a received image.
func Validate(img []byte) error {
	if len(img) < HeaderSize {
		return ErrorInvalidLength
	}

	if binary.BigEndian.Uint32(img[offMagic:]) != Magic {
		return ErrorInvalidHeader
	}

	/* The header CRC is computed with its own field zeroed */
	var hdr [HeaderSize]byte
	copy(hdr[:], img)
	binary.BigEndian.PutUint32(hdr[offHeaderCRC:], 0)
	if crcBlock(hdr[:]) != binary.BigEndian.Uint32(img[offHeaderCRC:]) {
		return ErrorInvalidHeader
	}

	if img[offType] != TypeKernel {
		return ErrorInvalidType
	}

	size := binary.BigEndian.Uint32(img[offSize:])
	if uint64(HeaderSize)+uint64(size) > uint64(len(img)) {
		return ErrorInvalidLength
	}

	payload := img[HeaderSize : HeaderSize+int(size)]
	if crcBlock(payload) != binary.BigEndian.Uint32(img[offDataCRC:]) {
		return ErrorInvalidCRC
	}

	return nil
}

// Build wraps payload in a kernel-type header. Used by host-side
// tooling and tests to produce images the bootloader will accept.
func Build(payload []byte, name string, load uint32, entry uint32) []byte {
	img := make([]byte, HeaderSize+len(payload))
	copy(img[HeaderSize:], payload)

	binary.BigEndian.PutUint32(img[offMagic:], Magic)
	binary.BigEndian.PutUint32(img[offSize:], uint32(len(payload)))
	binary.BigEndian.PutUint32(img[offLoad:], load)
	binary.BigEndian.PutUint32(img[offEntry:], entry)
	img[offType] = TypeKernel
	copy(img[offName:offName+nameSize-1], name)

	binary.BigEndian.PutUint32(img[offDataCRC:], crcBlock(payload))
	binary.BigEndian.PutUint32(img[offHeaderCRC:], crcBlock(img[:HeaderSize]))

	return img
}

package mmio

// Bus provides 32-bit access to a peripheral register window. Offsets
// are in bytes from the start of the window.
type Bus interface {
	Read32(offset uint32) uint32
	Write32(offset uint32, value uint32)
}

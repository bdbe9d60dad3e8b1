package mtdbridge

import "encoding/binary"

// Write copies data to the remote store at offset, splitting the
// transfer into chunks bounded by the staging buffer size. It returns
// the number of bytes covered by completed chunk commands and the first
// non-zero status encountered; on success the count equals len(data).
func (b *Bridge) Write(offset uint32, data []byte) (int, Status) {
	index := 0

	for len(data) > 0 {
		next := len(data)
		if next > BufferSize {
			next = BufferSize
		}

		b.stageWords(data[:next])
		if status := b.IssueCommand(offset, uint32(next), OpcodeWrite); !status.Ok() {
			return index, status
		}

		index += next
		offset += uint32(next)
		data = data[next:]
	}

	return index, 0
}

// Read fills buf from the remote store at offset, in staging-buffer
// sized chunks. Bytes are copied out of the staging buffer only for
// chunks that reported no error.
func (b *Bridge) Read(offset uint32, buf []byte) (int, Status) {
	index := 0

	for len(buf) > 0 {
		next := len(buf)
		if next > BufferSize {
			next = BufferSize
		}

		if status := b.IssueCommand(offset, uint32(next), OpcodeRead); !status.Ok() {
			return index, status
		}
		b.unstageWords(buf[:next])

		index += next
		offset += uint32(next)
		buf = buf[next:]
	}

	return index, 0
}

// Erase erases length bytes at offset. The remote side performs segment
// erase atomically, so the full range is issued as a single command.
func (b *Bridge) Erase(offset uint32, length uint32) Status {
	return b.IssueCommand(offset, length, OpcodeSectorErase)
}

// stageWords copies data into the staging buffer as 32-bit words. A
// partial trailing word is padded with zero bytes rather than truncated.
func (b *Bridge) stageWords(data []byte) {
	bufOffset := uint32(mailboxRAM)
	for i := 0; i < len(data); i += 4 {
		var word [4]byte
		copy(word[:], data[i:])
		b.bus.Write32(bufOffset, binary.LittleEndian.Uint32(word[:]))
		bufOffset += 4
	}
}

// unstageWords copies words out of the staging buffer into buf,
// discarding padding bytes of the trailing word.
func (b *Bridge) unstageWords(buf []byte) {
	bufOffset := uint32(mailboxRAM)
	for i := 0; i < len(buf); i += 4 {
		var word [4]byte
		binary.LittleEndian.PutUint32(word[:], b.bus.Read32(bufOffset))
		copy(buf[i:], word[:])
		bufOffset += 4
	}
}

package mmio

import (
	"fmt"
	"unsafe"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

// DevMem maps a physical register window through /dev/mem.
type DevMem struct {
	fd  int
	mem []byte

	// offset of the window start inside the page-aligned mapping
	skip uint32
	size uint32
}

// OpenDevMem maps size bytes of physical address space starting at base.
func OpenDevMem(base uint32, size uint32) (*DevMem, error) {
	fd, err := unix.Open("/dev/mem", unix.O_RDWR|unix.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/mem: %w", err)
	}

	pageSize := uint32(unix.Getpagesize())
	skip := base % pageSize

	mem, err := unix.Mmap(fd, int64(base-skip), int(skip+size),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("mmap %08x+%x: %w", base, size, err)
	}

	return &DevMem{
		fd:   fd,
		mem:  mem,
		skip: skip,
		size: size,
	}, nil
}

func (d *DevMem) Read32(offset uint32) uint32 {
	if offset+4 > d.size {
		panic("mmio: read outside mapped window")
	}
	return *(*uint32)(unsafe.Pointer(&d.mem[d.skip+offset]))
}

func (d *DevMem) Write32(offset uint32, value uint32) {
	if offset+4 > d.size {
		panic("mmio: write outside mapped window")
	}
	*(*uint32)(unsafe.Pointer(&d.mem[d.skip+offset])) = value
}

func (d *DevMem) Close() error {
	err := unix.Munmap(d.mem)
	d.mem = nil

	fd := d.fd
	d.fd = -1

	return multierr.Append(err, unix.Close(fd))
}

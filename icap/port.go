package icap

import "github.com/labxtech/bridgeboot/mmio"

// Register offsets of the memory-mapped configuration port.
const (
	regData    = 0x0
	regControl = 0x4
)

// BusPort feeds the reconfiguration engine through a memory-mapped
// word FIFO.
type BusPort struct {
	bus mmio.Bus
}

func NewBusPort(bus mmio.Bus) *BusPort {
	return &BusPort{bus: bus}
}

func (p *BusPort) Put(word uint32) error {
	p.bus.Write32(regData, word)
	return nil
}

func (p *BusPort) PutControl(word uint32) error {
	p.bus.Write32(regControl, word)
	return nil
}

func (p *BusPort) Get() (uint32, error) {
	return p.bus.Read32(regData), nil
}

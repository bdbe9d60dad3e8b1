package main

import (
	"encoding/binary"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/labxtech/bridgeboot/fwupdate"
	"github.com/labxtech/bridgeboot/icap"
	"github.com/labxtech/bridgeboot/image"
	"github.com/labxtech/bridgeboot/mailbox"
	"github.com/labxtech/bridgeboot/mmio"
	"github.com/labxtech/bridgeboot/mtdbridge"
)

func main() {
	bridgeBase := pflag.Uint32("bridge-base", 0x80200000, "Physical base address of the MTD bridge")
	icapBase := pflag.Uint32("icap-base", 0x80100000, "Physical base address of the reconfiguration port")

	checkFallback := pflag.Bool("check-fallback", false, "Read the reconfiguration fallback indicator")
	reconfigure := pflag.Bool("reconfigure", false, "Trigger a reconfiguration")
	primary := pflag.Uint32("primary", 0x00340000, "Primary image offset for --reconfigure")
	fallback := pflag.Uint32("fallback", 0x00000000, "Fallback image offset for --reconfigure")

	readLen := pflag.Uint32("read", 0, "Read this many bytes from the bridge")
	offset := pflag.Uint32("offset", 0, "Bridge offset for --read/--write/--erase")
	writeFile := pflag.String("write", "", "Write this file to the bridge")
	eraseLen := pflag.Uint32("erase", 0, "Erase this many bytes on the bridge")
	out := pflag.String("out", "/dev/stdout", "Destination for --read data")

	selftest := pflag.Bool("selftest", false, "Run a loopback firmware update exchange")

	pflag.Parse()

	switch {
	case *selftest:
		if err := runSelftest(); err != nil {
			log.Fatalln(err)
		}

	case *checkFallback, *reconfigure:
		bus, err := mmio.OpenDevMem(*icapBase, 0x1000)
		if err != nil {
			log.Fatalln(err)
		}
		defer bus.Close()

		engine := icap.New(icap.NewBusPort(bus))
		if *checkFallback {
			value, err := engine.ReadFallbackIndicator()
			if err != nil {
				log.Fatalln(err)
			}
			log.Printf("fallback indicator: %04x (magic %04x)", value, icap.FallbackMagic)
			return
		}
		if err := engine.TriggerReconfiguration(*primary, *fallback); err != nil {
			log.Fatalln(err)
		}

	case *readLen > 0, *writeFile != "", *eraseLen > 0:
		bus, err := mmio.OpenDevMem(*bridgeBase, 0x1000)
		if err != nil {
			log.Fatalln(err)
		}
		defer bus.Close()

		if err := runBridgeOp(mtdbridge.New(bus, mtdbridge.WithLogFunc(log.Printf)),
			*offset, *readLen, *writeFile, *eraseLen, *out); err != nil {
			log.Fatalln(err)
		}

	default:
		pflag.Usage()
		os.Exit(1)
	}
}

func runBridgeOp(bridge *mtdbridge.Bridge, offset, readLen uint32, writeFile string, eraseLen uint32, out string) error {
	if eraseLen > 0 {
		if status := bridge.Erase(offset, eraseLen); !status.Ok() {
			log.Fatalf("erase: %v", status)
		}
	}

	if writeFile != "" {
		data, err := os.ReadFile(writeFile)
		if err != nil {
			return err
		}
		n, status := bridge.Write(offset, data)
		if !status.Ok() {
			log.Fatalf("write: %v after %d bytes", status, n)
		}
		log.Printf("wrote %d bytes at %08x", n, offset)
	}

	if readLen > 0 {
		buf := make([]byte, readLen)
		n, status := bridge.Read(offset, buf)
		if !status.Ok() {
			log.Fatalf("read: %v after %d bytes", status, n)
		}
		return os.WriteFile(out, buf, 0644)
	}

	return nil
}

// runSelftest drives a complete firmware update through an in-memory
// mailbox pair: the host side transfers a generated image in chunks and
// waits for the completion event.
func runSelftest() error {
	dev, host := mailbox.Pair()
	defer dev.Close()

	session := fwupdate.NewSession(make([]byte, 1<<20))
	loop := fwupdate.NewLoop(dev, session,
		fwupdate.WithLogFunc(log.Printf),
		fwupdate.WithRunner(func(cmd string) error {
			log.Printf("post-install command: %q", cmd)
			return nil
		}),
	)
	go loop.Run()

	img := image.Build(make([]byte, 16384), "selftest kernel", 0, 0)

	var req, resp mailbox.Message

	sendRecv := func() mailbox.Status {
		if err := host.Write(&req, req.Length()); err != nil {
			log.Fatalln(err)
		}
		if _, err := host.Read(&resp, true); err != nil {
			log.Fatalln(err)
		}
		return resp.Status()
	}

	req.SetHeader(mailbox.ClassFirmwareUpdate, mailbox.SvcSetAttribute, mailbox.AttrEventQueueEnabled)
	req.SetBody([]byte{1})
	log.Println("enable event queue:", sendRecv())

	req.SetHeader(mailbox.ClassFirmwareUpdate, mailbox.SvcStartUpdate, 0)
	p := req.Payload()
	binary.BigEndian.PutUint32(p, uint32(len(img)))
	n := copy(p[4:], "run flashinstall")
	req.Finish(mailbox.StatusSuccess, 4+n)
	log.Println("start update:", sendRecv())

	for chunk := img; len(chunk) > 0; {
		step := len(chunk)
		if step > 512 {
			step = 512
		}
		req.SetHeader(mailbox.ClassFirmwareUpdate, mailbox.SvcSendData, 0)
		req.SetBody(chunk[:step])
		if status := sendRecv(); status != mailbox.StatusSuccess {
			log.Fatalln("data packet:", status)
		}
		chunk = chunk[step:]
	}

	// Execution happens on the device side after the final response is
	// written, so give the event signal a moment to arrive.
	deadline := time.Now().Add(time.Second)
	for !host.WaitEvent() {
		if time.Now().After(deadline) {
			log.Fatalln("no completion event signaled")
		}
		time.Sleep(time.Millisecond)
	}

	req.SetHeader(mailbox.ClassFirmwareUpdate, mailbox.SvcGetAttribute, mailbox.AttrNextQueuedEvent)
	if status := sendRecv(); status != mailbox.StatusSuccess {
		log.Fatalln("event fetch:", status)
	}
	body := resp.Body()
	log.Printf("event %08x outcome %v", binary.BigEndian.Uint32(body), fwupdate.Outcome(body[4]))
	return nil
}

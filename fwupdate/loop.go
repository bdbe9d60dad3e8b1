package fwupdate

import (
	"encoding/binary"

	"github.com/labxtech/bridgeboot/mailbox"
)

// Event codes surfaced through the mailbox event queue.
const (
	EventNull           = 0x00000000
	EventFirmwareUpdate = 0x846C034D
)

// Loop services firmware-update requests arriving over the mailbox. It
// owns the static request/response buffers and the update session;
// requests are processed strictly in arrival order, one exchange at a
// time, and the response for a request is always written before the
// next request is read.
type Loop struct {
	mbox    mailbox.Mailbox
	session *Session
	cfg     config

	// host-controlled flags, observed by the boot decision
	remainRequested bool
	delayRequested  bool

	// event queue: at most one pending event
	queueEnabled bool
	eventValid   bool
	outcome      Outcome

	req  mailbox.Message
	resp mailbox.Message
}

func NewLoop(mbox mailbox.Mailbox, session *Session, opts ...Option) *Loop {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Loop{
		mbox:    mbox,
		session: session,
		cfg:     cfg,
	}
}

func (l *Loop) logf(format string, params ...any) {
	if l.cfg.logf != nil {
		l.cfg.logf(format, params...)
	}
}

// Run services requests until the mailbox fails. There is no natural
// exit in update mode: after a completed update the host observes the
// completion event and resets the device externally.
func (l *Loop) Run() {
	for {
		ok, err := l.mbox.Read(&l.req, true)
		if err != nil {
			l.logf("mailbox read: %v", err)
			return
		}
		if !ok {
			continue
		}

		l.serve()
	}
}

// serve handles one request/response exchange, plus any update
// execution the exchange triggered.
func (l *Loop) serve() {
	l.dispatch()

	if err := l.mbox.Write(&l.resp, l.resp.Length()); err != nil {
		l.logf("mailbox write: %v", err)
	}

	if l.session.TakeExecutePending() {
		l.outcome = l.session.Execute(l.cfg.validate, l.cfg.run)
		l.logf("firmware update executed: %v", l.outcome)

		// The outcome is only queued while the host has event delivery
		// enabled; otherwise it is dropped.
		if l.queueEnabled {
			l.eventValid = true
			if err := l.mbox.SignalEvent(); err != nil {
				l.logf("event signal: %v", err)
			}
		}
	}
}

func (l *Loop) dispatch() {
	l.resp.CopyHeader(&l.req)

	switch l.req.ClassCode() {
	case mailbox.ClassFirmwareUpdate, mailbox.ClassSystem:
		l.handle()
	default:
		// Malformed request; the response is header-only.
		l.resp.Finish(mailbox.StatusInvalidClassCode, 0)
	}
}

func (l *Loop) handle() {
	body := l.req.Body()

	switch l.req.ServiceCode() {
	case mailbox.SvcStartUpdate:
		if len(body) < 4 {
			l.resp.Finish(mailbox.StatusRangeError, 0)
			return
		}
		length := binary.BigEndian.Uint32(body)
		cmd := string(body[4:])
		l.logf("start update: %q, %d bytes", cmd, length)
		l.resp.Finish(l.session.Start(cmd, length), 0)

	case mailbox.SvcSendData:
		l.resp.Finish(l.session.AcceptData(body), 0)

	case mailbox.SvcSendCommand:
		status := mailbox.StatusSuccess
		if err := l.cfg.run(string(body)); err != nil {
			l.logf("command %q: %v", string(body), err)
			status = mailbox.StatusNotExecuted
		}
		l.resp.Finish(status, 0)

	case mailbox.SvcRemainInBootloader:
		l.remainRequested = true
		l.resp.Finish(mailbox.StatusSuccess, 0)

	case mailbox.SvcRequestBootDelay:
		l.delayRequested = true
		l.resp.Finish(mailbox.StatusSuccess, 0)

	case mailbox.SvcGetAttribute:
		l.getAttribute()

	case mailbox.SvcSetAttribute:
		l.setAttribute()

	default:
		l.resp.Finish(mailbox.StatusInvalidServiceCode, 0)
	}
}

func (l *Loop) getAttribute() {
	p := l.resp.Payload()

	switch l.req.AttributeCode() {
	case mailbox.AttrExecutingImageType:
		// Tells the client it is talking to the bootloader, not the
		// main image.
		p[0] = mailbox.CodeImageBoot
		l.resp.Finish(mailbox.StatusSuccess, 1)

	case mailbox.AttrEventQueueEnabled:
		p[0] = 0
		if l.queueEnabled {
			p[0] = 1
		}
		l.resp.Finish(mailbox.StatusSuccess, 1)

	case mailbox.AttrNextQueuedEvent:
		if l.eventValid {
			l.eventValid = false
			binary.BigEndian.PutUint32(p, EventFirmwareUpdate)
			p[4] = uint8(l.outcome)
			l.resp.Finish(mailbox.StatusSuccess, 5)
		} else {
			binary.BigEndian.PutUint32(p, EventNull)
			l.resp.Finish(mailbox.StatusSuccess, 4)
		}

	default:
		l.resp.Finish(mailbox.StatusInvalidServiceCode, 0)
	}
}

func (l *Loop) setAttribute() {
	body := l.req.Body()

	switch l.req.AttributeCode() {
	case mailbox.AttrEventQueueEnabled:
		l.queueEnabled = len(body) > 0 && body[0] != 0
		l.logf("event queue enabled: %v", l.queueEnabled)
		l.resp.Finish(mailbox.StatusSuccess, 0)

	default:
		l.resp.Finish(mailbox.StatusInvalidServiceCode, 0)
	}
}

package fwupdate

import "github.com/labxtech/bridgeboot/mailbox"

// Session accumulates one firmware image transferred as a sequence of
// data packets, together with the command to run once the image is
// complete.
type Session struct {
	buf []byte // fixed image region, reused across sessions

	inProgress bool
	length     uint32
	received   uint32
	cmd        string

	executePending bool
}

// NewSession wraps the caller-provided image region. The region is
// reused across sessions; data from a superseded session is abandoned
// in place, not freed.
func NewSession(buf []byte) *Session {
	return &Session{buf: buf}
}

// Start begins a new transfer of length bytes, with cmd to be executed
// once all data has arrived. If a session is already active it is
// superseded: the distinguished AlreadyInProgress status is reported,
// but the new session replaces the old one regardless. A declared
// length beyond the image region capacity is refused outright; the
// length field is host-supplied and not trusted.
func (s *Session) Start(cmd string, length uint32) mailbox.Status {
	status := mailbox.StatusSuccess
	if s.inProgress {
		status = mailbox.StatusAlreadyInProgress
	}

	s.inProgress = false
	s.executePending = false

	if uint64(length) > uint64(len(s.buf)) {
		return mailbox.StatusRangeError
	}

	s.inProgress = true
	s.length = length
	s.received = 0
	s.cmd = cmd

	return status
}

// AcceptData appends one data packet at the current write cursor. A
// packet extending past the declared image length is rejected before
// any copy. Receiving the final byte completes the session: it becomes
// inactive and execution is flagged as pending.
func (s *Session) AcceptData(data []byte) mailbox.Status {
	if !s.inProgress {
		return mailbox.StatusNotInProgress
	}

	if uint64(s.received)+uint64(len(data)) > uint64(s.length) {
		return mailbox.StatusRangeError
	}

	copy(s.buf[s.received:], data)
	s.received += uint32(len(data))

	if s.received == s.length {
		s.inProgress = false
		s.executePending = true
	}

	return mailbox.StatusSuccess
}

func (s *Session) InProgress() bool      { return s.inProgress }
func (s *Session) BytesReceived() uint32 { return s.received }
func (s *Session) Command() string       { return s.cmd }

// Image returns the bytes received so far.
func (s *Session) Image() []byte {
	return s.buf[:s.received]
}

// TakeExecutePending consumes the completion flag set when the final
// packet arrives.
func (s *Session) TakeExecutePending() bool {
	pending := s.executePending
	s.executePending = false
	return pending
}

// Outcome is the result of executing a completed update, retained until
// delivered to the host as an asynchronous event.
type Outcome uint8

const (
	OutcomeSuccess Outcome = iota
	OutcomeCorruptImage
	OutcomeNotExecuted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeCorruptImage:
		return "corrupt image"
	case OutcomeNotExecuted:
		return "command not executed"
	default:
		return "unknown"
	}
}

// Execute validates the accumulated image and, if it is intact, runs
// the post-install command. A corrupt image is reported without running
// the command.
func (s *Session) Execute(validate ValidateFunc, run RunFunc) Outcome {
	if !validate(s.Image()) {
		return OutcomeCorruptImage
	}

	if err := run(s.cmd); err != nil {
		return OutcomeNotExecuted
	}

	return OutcomeSuccess
}

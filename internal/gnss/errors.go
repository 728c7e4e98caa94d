package gnss

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a recoverable stream anomaly.
type ErrorKind uint8

const (
	// KindSyncLost means framing broke before a frame completed.
	KindSyncLost ErrorKind = iota + 1
	// KindChecksumMismatch means the CRC, checksum or word parity did not match.
	KindChecksumMismatch
	// KindUnknownMessageType means a valid frame carried an unregistered key.
	KindUnknownMessageType
	// KindDecodeFailure means a valid frame could not be decoded.
	KindDecodeFailure
	// KindBufferOverflow means the declared length exceeds the frame buffer.
	KindBufferOverflow
)

// String returns the snake_case name used in metrics and logs.
func (k ErrorKind) String() string {
	switch k {
	case KindSyncLost:
		return "sync_lost"
	case KindChecksumMismatch:
		return "checksum_mismatch"
	case KindUnknownMessageType:
		return "unknown_message_type"
	case KindDecodeFailure:
		return "decode_failure"
	case KindBufferOverflow:
		return "buffer_overflow"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Sentinels matched by errors.Is against a *ParseError of the same kind.
var (
	ErrSyncLost           = errors.New("sync lost")
	ErrChecksumMismatch   = errors.New("checksum mismatch")
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrDecodeFailure      = errors.New("decode failure")
	ErrBufferOverflow     = errors.New("buffer overflow")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindSyncLost:
		return ErrSyncLost
	case KindChecksumMismatch:
		return ErrChecksumMismatch
	case KindUnknownMessageType:
		return ErrUnknownMessageType
	case KindDecodeFailure:
		return ErrDecodeFailure
	case KindBufferOverflow:
		return ErrBufferOverflow
	}
	return nil
}

// ParseError is a recoverable stream anomaly. Key is the message key when
// one was known (message number, class/id, sentence type).
type ParseError struct {
	Protocol Protocol
	Kind     ErrorKind
	Key      string
	Err      error
}

func (e *ParseError) Error() string {
	msg := e.Protocol.String() + ": " + e.Kind.String()
	if e.Key != "" {
		msg += " key=" + e.Key
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *ParseError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// NewError builds a ParseError.
func NewError(p Protocol, kind ErrorKind, key string, err error) *ParseError {
	return &ParseError{Protocol: p, Kind: kind, Key: key, Err: err}
}

// Errorf builds a ParseError with a formatted cause.
func Errorf(p Protocol, kind ErrorKind, key string, format string, args ...any) *ParseError {
	return &ParseError{Protocol: p, Kind: kind, Key: key, Err: fmt.Errorf(format, args...)}
}

// Setup errors.
var (
	ErrDuplicateKey = errors.New("gnss: duplicate registry key")
	ErrNilFactory   = errors.New("gnss: nil decoder factory")
	ErrSealed       = errors.New("gnss: registry sealed")
)

package proto

import "fmt"

// FrameType: 1-byte type code on the wire (RFC 7540 section 6).
type FrameType uint8

const (
	TypeData         FrameType = 0x0
	TypeHeaders      FrameType = 0x1
	TypePriority     FrameType = 0x2
	TypeRSTStream    FrameType = 0x3
	TypeSettings     FrameType = 0x4
	TypePushPromise  FrameType = 0x5
	TypePing         FrameType = 0x6
	TypeGoAway       FrameType = 0x7
	TypeWindowUpdate FrameType = 0x8
	TypeContinuation FrameType = 0x9
)

// Known reports whether t is one of the ten defined kinds. Frames with
// unknown type codes must be tolerated and skipped, never rejected.
func (t FrameType) Known() bool { return t <= TypeContinuation }

var frameTypeNames = [...]string{
	"DATA", "HEADERS", "PRIORITY", "RST_STREAM", "SETTINGS",
	"PUSH_PROMISE", "PING", "GOAWAY", "WINDOW_UPDATE", "CONTINUATION",
}

func (t FrameType) String() string {
	if t.Known() {
		return frameTypeNames[t]
	}
	return fmt.Sprintf("UNKNOWN(0x%02x)", uint8(t))
}

// Flags: 8-bit frame flags. Which bit means what depends on the frame
// type (0x01 is END_STREAM on DATA/HEADERS but ACK on SETTINGS/PING);
// the codec only carries the byte, the caller resolves the meaning.
type Flags uint8

const (
	FlagEndStream  Flags = 0x01 // DATA, HEADERS
	FlagAck        Flags = 0x01 // SETTINGS, PING
	FlagEndHeaders Flags = 0x04 // HEADERS, PUSH_PROMISE, CONTINUATION
	FlagPadded     Flags = 0x08 // DATA, HEADERS, PUSH_PROMISE
	FlagPriority   Flags = 0x20 // HEADERS
)

// Has reports whether all bits of flag are set.
func (f Flags) Has(flag Flags) bool { return f&flag == flag }

// FrameHeaderSize: 3 (length) + 1 (type) + 1 (flags) + 4 (stream id).
const FrameHeaderSize = 9

// MaxPayloadSize: the wire length field is 24 bits.
const MaxPayloadSize = 1<<24 - 1

// streamIDMask clears the reserved top bit of the stream id field.
const streamIDMask = 0x7fffffff

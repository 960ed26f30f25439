package proto

import "fmt"

// Frame: one protocol unit (9-byte header + payload). StreamID is a
// 31-bit value; the top bit of its wire field is reserved and always 0.
type Frame struct {
	Type     FrameType
	Flags    Flags
	StreamID uint32
	Payload  []byte
}

// NewFrame builds a frame, clearing the stream id's reserved bit.
func NewFrame(t FrameType, flags Flags, streamID uint32, payload []byte) *Frame {
	return &Frame{Type: t, Flags: flags, StreamID: streamID & streamIDMask, Payload: payload}
}

// Length: payload size as carried by the wire length field.
func (f *Frame) Length() int { return len(f.Payload) }

// HasFlag reports whether all bits of flag are set on this frame.
// Interpretation is per-type; see the Flag constants.
func (f *Frame) HasFlag(flag Flags) bool { return f.Flags.Has(flag) }

func (f *Frame) String() string {
	return fmt.Sprintf("Frame{type=%s, flags=0x%02x, stream=%d, length=%d}",
		f.Type, uint8(f.Flags), f.StreamID, f.Length())
}

package proto

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrTruncated: the buffer does not yet hold a complete frame. Not a
// parse failure; the caller buffers more input and retries.
var ErrTruncated = errors.New("truncated frame")

var ErrPayloadTooLarge = errors.New("payload exceeds 24-bit length field")

// EncodeFrame writes the 9-byte header + payload to w. The stream id's
// reserved bit is cleared here again regardless of what f holds.
func EncodeFrame(w io.Writer, f *Frame) error {
	if len(f.Payload) > MaxPayloadSize {
		return ErrPayloadTooLarge
	}
	length := len(f.Payload)
	var header [FrameHeaderSize]byte
	header[0] = byte(length >> 16)
	header[1] = byte(length >> 8)
	header[2] = byte(length)
	header[3] = byte(f.Type)
	header[4] = byte(f.Flags)
	binary.BigEndian.PutUint32(header[5:9], f.StreamID&streamIDMask)
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if length > 0 {
		if _, err := w.Write(f.Payload); err != nil {
			return err
		}
	}
	return nil
}

// DecodeFrame parses one frame from the front of buf and returns it with
// the number of bytes consumed. ErrTruncated means buf is incomplete.
// Unknown type codes decode successfully; callers test Type.Known() and
// skip what they do not understand.
func DecodeFrame(buf []byte) (*Frame, int, error) {
	if len(buf) < FrameHeaderSize {
		return nil, 0, ErrTruncated
	}
	length := int(buf[0])<<16 | int(buf[1])<<8 | int(buf[2])
	if len(buf)-FrameHeaderSize < length {
		return nil, 0, ErrTruncated
	}
	f := &Frame{
		Type:     FrameType(buf[3]),
		Flags:    Flags(buf[4]),
		StreamID: binary.BigEndian.Uint32(buf[5:9]) & streamIDMask,
	}
	if length > 0 {
		f.Payload = append([]byte(nil), buf[FrameHeaderSize:FrameHeaderSize+length]...)
	}
	return f, FrameHeaderSize + length, nil
}

// ReadFrame reads one complete frame from r; payloadBuf opt (nil = alloc).
// io.EOF on a clean boundary, io.ErrUnexpectedEOF mid-frame.
func ReadFrame(r io.Reader, payloadBuf []byte) (*Frame, error) {
	var header [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, err
	}
	length := int(header[0])<<16 | int(header[1])<<8 | int(header[2])
	f := &Frame{
		Type:     FrameType(header[3]),
		Flags:    Flags(header[4]),
		StreamID: binary.BigEndian.Uint32(header[5:9]) & streamIDMask,
	}
	if length > 0 {
		if payloadBuf != nil && cap(payloadBuf) >= length {
			f.Payload = payloadBuf[:length]
		} else {
			f.Payload = make([]byte, length)
		}
		if _, err := io.ReadFull(r, f.Payload); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
	return f, nil
}

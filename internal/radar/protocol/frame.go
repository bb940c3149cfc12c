// Package protocol implements the fixed-layout binary wire protocol spoken
// between the display/control station and the radar processing nodes: the
// frame envelope with its magics and checksum, and the per-message payload
// layouts keyed by a 16-bit message identifier.
//
// Frame layout as transmitted (all fields little-endian):
//
//	Header  (14 B): head:u32=0xFA55FA55, srcID:u16, destID:u16, commCount:u32, dataLen:u16
//	Payload       : msgID:u16 followed by the per-message body
//	Trailer  (5 B): checksum:u8, end:u32=0x55FA55FA
//
// dataLen counts header plus payload; the XOR checksum covers the same
// bytes. Decoding is bounds-checked against the actual buffer length at
// every step — the embedded dataLen is cross-checked, never trusted as an
// index on its own.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// HeadMagic opens every radar frame; EndMagic closes it.
	HeadMagic = 0xFA55FA55
	EndMagic  = 0x55FA55FA

	// HeaderSize is the fixed frame header length in bytes.
	HeaderSize = 14
	// TrailerSize is checksum byte plus end magic.
	TrailerSize = 5
	// MsgIDSize is the message identifier prefixing every payload.
	MsgIDSize = 2

	// MinFrameSize is the shortest well-formed frame: header, message ID
	// and trailer with an empty message body.
	MinFrameSize = HeaderSize + MsgIDSize + TrailerSize

	// MaxPayload bounds the payload length so dataLen can never overflow
	// its u16 field. Radar datagrams are far below this in practice.
	MaxPayload = 0xFFFF - HeaderSize
)

// Frame decode errors. Each malformed datagram maps onto exactly one of
// these; none of the decode paths panic on any input.
var (
	ErrTooShort     = errors.New("protocol: frame too short")
	ErrBadHeadMagic = errors.New("protocol: bad head magic")
	ErrBadEndMagic  = errors.New("protocol: bad end magic")
	ErrBadLength    = errors.New("protocol: frame length field mismatch")
	ErrBadChecksum  = errors.New("protocol: checksum mismatch")
	ErrTooLong      = errors.New("protocol: payload exceeds frame capacity")
)

// Frame is the decoded envelope of a single datagram. Payload aliases the
// input buffer and is only valid while that buffer is.
type Frame struct {
	SrcID     uint16
	DestID    uint16
	CommCount uint32
	MsgID     uint16
	Payload   []byte // message body after the 2-byte msgID
}

// Encode builds a complete wire frame around payload, which must begin with
// the 2-byte message ID. Pure: the result is a fresh allocation and no
// shared state is touched.
func Encode(payload []byte, srcID, destID uint16, commCount uint32) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLong, len(payload))
	}
	dataLen := uint16(HeaderSize + len(payload))

	buf := make([]byte, 0, int(dataLen)+TrailerSize)
	buf = binary.LittleEndian.AppendUint32(buf, HeadMagic)
	buf = binary.LittleEndian.AppendUint16(buf, srcID)
	buf = binary.LittleEndian.AppendUint16(buf, destID)
	buf = binary.LittleEndian.AppendUint32(buf, commCount)
	buf = binary.LittleEndian.AppendUint16(buf, dataLen)
	buf = append(buf, payload...)

	buf = append(buf, ChecksumXOR(buf))
	buf = binary.LittleEndian.AppendUint32(buf, EndMagic)
	return buf, nil
}

// Decode validates the frame envelope of buf and returns the decoded
// header fields plus a view of the message body. All length checks are
// against len(buf); the embedded dataLen must agree with the actual size
// or the frame is rejected.
func Decode(buf []byte) (Frame, error) {
	if len(buf) < MinFrameSize {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrTooShort, len(buf))
	}
	if binary.LittleEndian.Uint32(buf[0:4]) != HeadMagic {
		return Frame{}, ErrBadHeadMagic
	}
	if binary.LittleEndian.Uint32(buf[len(buf)-4:]) != EndMagic {
		return Frame{}, ErrBadEndMagic
	}

	dataLen := int(binary.LittleEndian.Uint16(buf[12:14]))
	if dataLen != len(buf)-TrailerSize || dataLen < HeaderSize+MsgIDSize {
		return Frame{}, fmt.Errorf("%w: dataLen=%d, frame=%d bytes", ErrBadLength, dataLen, len(buf))
	}
	if ChecksumXOR(buf[:dataLen]) != buf[dataLen] {
		return Frame{}, ErrBadChecksum
	}

	return Frame{
		SrcID:     binary.LittleEndian.Uint16(buf[4:6]),
		DestID:    binary.LittleEndian.Uint16(buf[6:8]),
		CommCount: binary.LittleEndian.Uint32(buf[8:12]),
		MsgID:     binary.LittleEndian.Uint16(buf[HeaderSize : HeaderSize+MsgIDSize]),
		Payload:   buf[HeaderSize+MsgIDSize : dataLen],
	}, nil
}

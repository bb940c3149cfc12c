package protocol

import (
	"encoding/binary"
	"fmt"
)

// The signal processor prefixes its detection batches with a 224-byte status
// block describing the transmission that produced them. Its header packs the
// acquisition timestamp into bit fields:
//
//	u16 word: year:12 | month:4
//	day:u8, hour:u8
//	u32 word: minute:6 | second:6 | millisecond:10 | microsecond:10
//
// The words are unpacked with explicit shifts and masks. Reading them back
// through a native bit-field struct would depend on compiler layout and is
// exactly the trap the original wire peers fell into.
const (
	// SysHeadSize is the packed system header inside the status block.
	SysHeadSize = 24
	// SigStatusSize is the full status block length.
	SigStatusSize = 224
)

// SysTime is the unpacked acquisition timestamp.
type SysTime struct {
	Year        int
	Month       int
	Day         int
	Hour        int
	Minute      int
	Second      int
	Millisecond int
	Microsecond int
}

// decodeSysTime unpacks the three packed timestamp words starting at
// buf[0]: the year/month u16, the day and hour bytes, and the
// minute/second/milli/micro u32. buf must hold at least 8 bytes.
func decodeSysTime(buf []byte) SysTime {
	ym := binary.LittleEndian.Uint16(buf[0:2])
	sub := binary.LittleEndian.Uint32(buf[4:8])
	return SysTime{
		Year:        int(ym & 0x0FFF),
		Month:       int(ym >> 12),
		Day:         int(buf[2]),
		Hour:        int(buf[3]),
		Minute:      int(sub & 0x3F),
		Second:      int((sub >> 6) & 0x3F),
		Millisecond: int((sub >> 12) & 0x3FF),
		Microsecond: int((sub >> 22) & 0x3FF),
	}
}

// SigStatus carries the fields of the status block that the display layer
// consumes. The block's many reserved spans are skipped, not modelled.
type SigStatus struct {
	SrcID      uint16
	DestID     uint16
	Time       SysTime
	CPIType    uint8
	CPIGroupID uint8
	CPICount   uint8
	CPIID      uint8
	PulseID    uint16
	FreqMHz    uint32
	WorkMode   uint8
	WorkMethod uint8

	// Antenna boresight at acquisition, degrees (wire quantisation 0.01°).
	Elevation float32
	Azimuth   float32

	TrackTargetNum uint16
	TrackID        uint32
	TrackVelocity  float32 // m/s (wire quantisation 0.1 m/s)
}

// Fixed offsets into the packed status block, counted from its first byte.
// The block begins with the 24-byte system header whose last 8 bytes are
// the packed timestamp words.
const (
	sigOffTime      = 16 // timestamp words inside the header
	sigOffCPIType   = 36 // after header + 8 reserved bytes + u32 sample count
	sigOffPulseID   = 42
	sigOffFreq      = 44
	sigOffWorkMode  = 74 // workMode:4 | workMethod:4
	sigOffElevation = 84
	sigOffAzimuth   = 92
	sigOffTrackNum  = 110
	sigOffTrackID   = 114
	sigOffTrackVel  = 118
)

// decodeSigStatus unpacks the status block. buf must be at least
// SigStatusSize bytes.
func decodeSigStatus(buf []byte) (SigStatus, error) {
	if len(buf) < SigStatusSize {
		return SigStatus{}, fmt.Errorf("%w: status block %d bytes, need %d", ErrPayloadTooShort, len(buf), SigStatusSize)
	}
	modeByte := buf[sigOffWorkMode]
	return SigStatus{
		SrcID:          binary.LittleEndian.Uint16(buf[4:6]),
		DestID:         binary.LittleEndian.Uint16(buf[6:8]),
		Time:           decodeSysTime(buf[sigOffTime : sigOffTime+8]),
		CPIType:        buf[sigOffCPIType],
		CPIGroupID:     buf[sigOffCPIType+1],
		CPICount:       buf[sigOffCPIType+2],
		CPIID:          buf[sigOffCPIType+3],
		PulseID:        binary.LittleEndian.Uint16(buf[sigOffPulseID : sigOffPulseID+2]),
		FreqMHz:        binary.LittleEndian.Uint32(buf[sigOffFreq : sigOffFreq+4]),
		WorkMode:       modeByte & 0x0F,
		WorkMethod:     modeByte >> 4,
		Elevation:      float32(int16(binary.LittleEndian.Uint16(buf[sigOffElevation:sigOffElevation+2]))) * 0.01,
		Azimuth:        float32(int16(binary.LittleEndian.Uint16(buf[sigOffAzimuth:sigOffAzimuth+2]))) * 0.01,
		TrackTargetNum: binary.LittleEndian.Uint16(buf[sigOffTrackNum : sigOffTrackNum+2]),
		TrackID:        binary.LittleEndian.Uint32(buf[sigOffTrackID : sigOffTrackID+4]),
		TrackVelocity:  float32(int16(binary.LittleEndian.Uint16(buf[sigOffTrackVel:sigOffTrackVel+2]))) * 0.1,
	}, nil
}

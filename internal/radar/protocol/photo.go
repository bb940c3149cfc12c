package protocol

import "encoding/binary"

// Photoelectric uplink frames. The electro-optical turret speaks a separate
// framing from the radar links: a 0x7D6D5D4C-headed envelope whose trailing
// byte is the additive checksum over everything before it. The dataLen field
// counts the frame minus version, head, dataLen and checksum — the function
// number, device identifiers and body.
const (
	PhotoHeadMagic = 0x7D6D5D4C
	PhotoVersion   = 0x01

	PhotoFuncHeartbeat   = 0x0100
	PhotoFuncGuideGeo    = 0x3400
	PhotoFuncGuideAngles = 0x3401
)

// photoPrefixSize is version + head + dataLen; these plus the checksum are
// excluded from the dataLen count.
const photoPrefixSize = 1 + 4 + 2

// encodePhotoFrame assembles a photoelectric frame: fixed prefix, function
// number, device identifiers, body, additive checksum.
func encodePhotoFrame(function uint16, deviceNum, endDeviceNum uint32, body []byte) []byte {
	dataLen := uint16(2 + 4 + 4 + len(body)) // function + device ids + body

	buf := make([]byte, 0, photoPrefixSize+int(dataLen)+1)
	buf = append(buf, PhotoVersion)
	buf = binary.LittleEndian.AppendUint32(buf, PhotoHeadMagic)
	buf = binary.LittleEndian.AppendUint16(buf, dataLen)
	buf = binary.LittleEndian.AppendUint16(buf, function)
	buf = binary.LittleEndian.AppendUint32(buf, deviceNum)
	buf = binary.LittleEndian.AppendUint32(buf, endDeviceNum)
	buf = append(buf, body...)
	return append(buf, ChecksumAdd(buf))
}

// PhotoHeartbeat is the periodic keep-alive toward the turret.
type PhotoHeartbeat struct {
	DeviceNum    uint32
	EndDeviceNum uint32
}

// Encode serialises the heartbeat frame.
func (m PhotoHeartbeat) Encode() []byte {
	return encodePhotoFrame(PhotoFuncHeartbeat, m.DeviceNum, m.EndDeviceNum, nil)
}

// PhotoGuideGeo cues the turret onto a target by geodetic position.
type PhotoGuideGeo struct {
	DeviceNum    uint32
	EndDeviceNum uint32
	Timestamp    uint64 // ms since epoch
	TargetNum    uint64
	Lon          uint32
	Lat          uint32
	Alt          uint16
	Speed        int16
	TargetType   uint8
}

func (m PhotoGuideGeo) Encode() []byte {
	body := binary.LittleEndian.AppendUint64(nil, m.Timestamp)
	body = binary.LittleEndian.AppendUint64(body, m.TargetNum)
	body = binary.LittleEndian.AppendUint32(body, m.Lon)
	body = binary.LittleEndian.AppendUint32(body, m.Lat)
	body = binary.LittleEndian.AppendUint16(body, m.Alt)
	body = binary.LittleEndian.AppendUint16(body, uint16(m.Speed))
	body = append(body, m.TargetType)
	return encodePhotoFrame(PhotoFuncGuideGeo, m.DeviceNum, m.EndDeviceNum, body)
}

// PhotoGuideAngles cues the turret by azimuth/elevation/range.
type PhotoGuideAngles struct {
	DeviceNum    uint32
	EndDeviceNum uint32
	Timestamp    uint64
	TargetNum    uint64
	Azimuth      float32 // 0..360°
	Elevation    float32 // -90..+90°
	Range        uint16  // m
	Speed        int16
	TargetType   uint8
}

func (m PhotoGuideAngles) Encode() []byte {
	body := binary.LittleEndian.AppendUint64(nil, m.Timestamp)
	body = binary.LittleEndian.AppendUint64(body, m.TargetNum)
	body = appendF32(body, m.Azimuth)
	body = appendF32(body, m.Elevation)
	body = binary.LittleEndian.AppendUint16(body, m.Range)
	body = binary.LittleEndian.AppendUint16(body, uint16(m.Speed))
	body = append(body, m.TargetType)
	return encodePhotoFrame(PhotoFuncGuideAngles, m.DeviceNum, m.EndDeviceNum, body)
}

package protocol

import (
	"encoding/binary"
	"testing"
)

func checkPhotoEnvelope(t *testing.T, frame []byte, wantFunc uint16, wantBodyLen int) []byte {
	t.Helper()
	if frame[0] != PhotoVersion {
		t.Errorf("version = %#x, want %#x", frame[0], PhotoVersion)
	}
	if got := binary.LittleEndian.Uint32(frame[1:5]); got != PhotoHeadMagic {
		t.Errorf("head magic = %#x", got)
	}
	// dataLen counts function, device numbers and body; not the prefix or
	// the checksum.
	wantLen := 2 + 4 + 4 + wantBodyLen
	if got := int(binary.LittleEndian.Uint16(frame[5:7])); got != wantLen {
		t.Errorf("dataLen = %d, want %d", got, wantLen)
	}
	if got := binary.LittleEndian.Uint16(frame[7:9]); got != wantFunc {
		t.Errorf("function = %#x, want %#x", got, wantFunc)
	}
	if got := ChecksumAdd(frame[:len(frame)-1]); got != frame[len(frame)-1] {
		t.Errorf("checksum = %#x, want %#x", frame[len(frame)-1], got)
	}
	return frame[17 : len(frame)-1]
}

func TestPhotoHeartbeatEncode(t *testing.T) {
	frame := PhotoHeartbeat{DeviceNum: 3, EndDeviceNum: 7}.Encode()
	body := checkPhotoEnvelope(t, frame, PhotoFuncHeartbeat, 0)
	if len(body) != 0 {
		t.Errorf("heartbeat carries %d body bytes", len(body))
	}
	if got := binary.LittleEndian.Uint32(frame[9:13]); got != 3 {
		t.Errorf("deviceNum = %d, want 3", got)
	}
	if got := binary.LittleEndian.Uint32(frame[13:17]); got != 7 {
		t.Errorf("endDeviceNum = %d, want 7", got)
	}
}

func TestPhotoGuideGeoEncode(t *testing.T) {
	m := PhotoGuideGeo{
		DeviceNum: 1, EndDeviceNum: 2,
		Timestamp: 1756500000000, TargetNum: 12,
		Lon: 116_300_000, Lat: 39_900_000, Alt: 150,
		Speed: -42, TargetType: 1,
	}
	body := checkPhotoEnvelope(t, m.Encode(), PhotoFuncGuideGeo, 8+8+4+4+2+2+1)
	if got := binary.LittleEndian.Uint64(body[0:8]); got != 1756500000000 {
		t.Errorf("timestamp = %d", got)
	}
	if got := binary.LittleEndian.Uint32(body[16:20]); got != 116_300_000 {
		t.Errorf("lon = %d", got)
	}
	if got := int16(binary.LittleEndian.Uint16(body[26:28])); got != -42 {
		t.Errorf("speed = %d, want -42", got)
	}
	if body[28] != 1 {
		t.Errorf("targetType = %d, want 1", body[28])
	}
}

func TestPhotoGuideAnglesEncode(t *testing.T) {
	m := PhotoGuideAngles{
		DeviceNum: 1, EndDeviceNum: 2,
		Timestamp: 99, TargetNum: 12,
		Azimuth: 123.5, Elevation: -4.25, Range: 2100,
		Speed: 18, TargetType: 2,
	}
	body := checkPhotoEnvelope(t, m.Encode(), PhotoFuncGuideAngles, 8+8+4+4+2+2+1)
	if got := f32(body[16:20]); got != 123.5 {
		t.Errorf("azimuth = %v, want 123.5", got)
	}
	if got := f32(body[20:24]); got != -4.25 {
		t.Errorf("elevation = %v, want -4.25", got)
	}
	if got := binary.LittleEndian.Uint16(body[24:26]); got != 2100 {
		t.Errorf("range = %d, want 2100", got)
	}
}

package protocol

import (
	"encoding/binary"
	"errors"
	"math/rand"
	"testing"
)

func msgPayload(msgID uint16, body []byte) []byte {
	return append(binary.LittleEndian.AppendUint16(nil, msgID), body...)
}

func TestFrameRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for bodyLen := 0; bodyLen <= 4096; bodyLen++ {
		body := make([]byte, bodyLen)
		rng.Read(body)
		payload := msgPayload(0xDD01, body)

		frame, err := Encode(payload, 0xBB02, 0xBB04, 42)
		if err != nil {
			t.Fatalf("bodyLen=%d: Encode: %v", bodyLen, err)
		}
		if len(frame) != HeaderSize+len(payload)+TrailerSize {
			t.Fatalf("bodyLen=%d: frame is %d bytes", bodyLen, len(frame))
		}

		got, err := Decode(frame)
		if err != nil {
			t.Fatalf("bodyLen=%d: Decode: %v", bodyLen, err)
		}
		if got.SrcID != 0xBB02 || got.DestID != 0xBB04 || got.CommCount != 42 {
			t.Errorf("bodyLen=%d: header = %+v", bodyLen, got)
		}
		if got.MsgID != 0xDD01 {
			t.Errorf("bodyLen=%d: MsgID = %#x", bodyLen, got.MsgID)
		}
		if len(got.Payload) != bodyLen {
			t.Errorf("bodyLen=%d: payload is %d bytes", bodyLen, len(got.Payload))
		}
		for i := range body {
			if got.Payload[i] != body[i] {
				t.Fatalf("bodyLen=%d: payload differs at byte %d", bodyLen, i)
			}
		}
	}
}

func TestEncodeRejectsOversizedPayload(t *testing.T) {
	payload := make([]byte, MaxPayload+1)
	if _, err := Encode(payload, 1, 2, 3); !errors.Is(err, ErrTooLong) {
		t.Fatalf("err = %v, want ErrTooLong", err)
	}
	// Exactly at the bound still encodes.
	if _, err := Encode(make([]byte, MaxPayload), 1, 2, 3); err != nil {
		t.Fatalf("payload at MaxPayload: %v", err)
	}
}

func TestDecodeRejectsMalformedFrames(t *testing.T) {
	good, err := Encode(msgPayload(0xDD02, []byte{1, 0, 0}), 0xBB03, 0xBB04, 1)
	if err != nil {
		t.Fatal(err)
	}

	corrupt := func(mutate func(f []byte)) []byte {
		f := append([]byte(nil), good...)
		mutate(f)
		return f
	}

	cases := []struct {
		name  string
		frame []byte
		want  error
	}{
		{"empty", nil, ErrTooShort},
		{"below minimum", good[:MinFrameSize-1], ErrTooShort},
		{"head magic", corrupt(func(f []byte) { f[0] ^= 0xFF }), ErrBadHeadMagic},
		{"end magic", corrupt(func(f []byte) { f[len(f)-1] ^= 0xFF }), ErrBadEndMagic},
		{"length field low", corrupt(func(f []byte) { binary.LittleEndian.PutUint16(f[12:14], 3) }), ErrBadLength},
		{"length field high", corrupt(func(f []byte) { binary.LittleEndian.PutUint16(f[12:14], 0xFFF0) }), ErrBadLength},
		{"payload bit flip", corrupt(func(f []byte) { f[HeaderSize+2] ^= 0x01 }), ErrBadChecksum},
		{"checksum byte", corrupt(func(f []byte) { f[len(f)-TrailerSize] ^= 0x01 }), ErrBadChecksum},
		{"header bit flip", corrupt(func(f []byte) { f[5] ^= 0x10 }), ErrBadChecksum},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode(tc.frame); !errors.Is(err, tc.want) {
				t.Errorf("Decode = %v, want %v", err, tc.want)
			}
		})
	}
}

// A truncated frame whose embedded dataLen still points past the buffer
// must be rejected by the length cross-check, never read out of bounds.
func TestDecodeTruncatedTail(t *testing.T) {
	good, err := Encode(msgPayload(0xEE01, make([]byte, 64)), 1, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	for n := MinFrameSize; n < len(good); n++ {
		if _, err := Decode(good[:n]); err == nil {
			t.Fatalf("truncation to %d bytes decoded successfully", n)
		}
	}
}

func TestDecodeGarbageNeverPanics(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	buf := make([]byte, 512)
	for i := 0; i < 2000; i++ {
		n := rng.Intn(len(buf))
		rng.Read(buf[:n])
		Decode(buf[:n])
	}
}

func TestChecksums(t *testing.T) {
	data := []byte{0x10, 0x20, 0x30, 0xFF}
	if got := ChecksumXOR(data); got != 0x10^0x20^0x30^0xFF {
		t.Errorf("ChecksumXOR = %#x", got)
	}
	sum := 0x10 + 0x20 + 0x30 + 0xFF
	if got := ChecksumAdd(data); got != byte(sum) {
		t.Errorf("ChecksumAdd = %#x", got)
	}
	if ChecksumXOR(nil) != 0 || ChecksumAdd(nil) != 0 {
		t.Error("empty input checksums must be zero")
	}
}

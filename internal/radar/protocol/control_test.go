package protocol

import (
	"encoding/binary"
	"testing"
)

func TestEncodeMessageLayouts(t *testing.T) {
	cases := []struct {
		name     string
		msg      Encoder
		wantID   uint16
		wantBody int
	}{
		{"battery", DefaultBatteryControl(), MsgBatteryControl, 4},
		{"transceiver", DefaultTransceiverControl(), MsgTransceiverCtl, 2},
		{"pattern scan", DefaultPatternScan(), MsgPatternScan, 14},
		{"scan range", DefaultScanRange(), MsgScanRange, 7},
		{"beam control", DefaultBeamControl(), MsgBeamControl, 9 + 3*16},
		{"signal proc", DefaultSignalProcParams(), MsgSignalProcParams, 8 + 12 + 10},
		{"data proc", DefaultDataProcParams(), MsgDataProcParams, 4 + 14 + 4 + 12},
		{"data save", DataSave{SaveSwitch: 1, DataID: 2}, MsgDataSave, 2},
		{"data delete", DataDelete{DataID: 2}, MsgDataDelete, 1},
		{"offline toggle", OfflineToggle{On: 1, DataID: 2}, MsgOfflineToggle, 2},
		{"manual track", ManualTrack{BatchID: 12}, MsgManualTrack, 2},
		{"system start", DefaultSystemStart(), MsgSystemStart, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := EncodeMessage(tc.msg)
			if got := binary.LittleEndian.Uint16(payload[0:2]); got != tc.wantID {
				t.Errorf("msgID = %#x, want %#x", got, tc.wantID)
			}
			if got := len(payload) - MsgIDSize; got != tc.wantBody {
				t.Errorf("body is %d bytes, want %d", got, tc.wantBody)
			}
		})
	}
}

func TestBeamControlWireOrder(t *testing.T) {
	payload := EncodeMessage(DefaultBeamControl())
	body := payload[MsgIDSize:]

	if body[0] != 2 || body[1] != 2 {
		t.Errorf("freqID/chirpDir = %d/%d, want 2/2", body[0], body[1])
	}
	if got := int16(binary.LittleEndian.Uint16(body[2:4])); got != 4500 {
		t.Errorf("aziStart = %d, want 4500", got)
	}
	if got := int16(binary.LittleEndian.Uint16(body[4:6])); got != 13500 {
		t.Errorf("aziEnd = %d, want 13500", got)
	}
	if body[8] != 2 {
		t.Errorf("flagNum = %d, want 2", body[8])
	}

	// Beam blocks follow back to back, 16 bytes each.
	beam1 := body[9:25]
	if beam1[0] != 1 || beam1[1] != 6 {
		t.Errorf("beam1 flag/code = %d/%d, want 1/6", beam1[0], beam1[1])
	}
	if got := binary.LittleEndian.Uint16(beam1[2:4]); got != 256 {
		t.Errorf("beam1 pulse count = %d, want 256", got)
	}
	beam3 := body[41:57]
	if beam3[0] != 0 || beam3[1] != 10 {
		t.Errorf("beam3 flag/code = %d/%d, want 0/10", beam3[0], beam3[1])
	}
	if got := int16(binary.LittleEndian.Uint16(beam3[10:12])); got != -1400 {
		t.Errorf("beam3 eleStart = %d, want -1400", got)
	}
}

func TestDataSaveRoundTripThroughFrame(t *testing.T) {
	payload := EncodeMessage(DataSave{SaveSwitch: 1, DataID: 3})
	frame, err := Encode(payload, 0xBB04, 0xBB03, 9)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(frame)
	if err != nil {
		t.Fatal(err)
	}
	if got.MsgID != MsgDataSave {
		t.Errorf("MsgID = %#x", got.MsgID)
	}
	if got.Payload[0] != 1 || got.Payload[1] != 3 {
		t.Errorf("body = %v, want [1 3]", got.Payload)
	}
}

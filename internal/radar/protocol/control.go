package protocol

import "encoding/binary"

// Outbound control messages. Each struct mirrors one packed wire layout and
// carries the operational defaults the display station ships with; callers
// take the Default* value and override what the operator changed. AppendBody
// writes the body fields in wire order after the message ID.

// Encoder is implemented by every outbound control message.
type Encoder interface {
	MessageID() uint16
	AppendBody(buf []byte) []byte
}

// EncodeMessage serialises msgID plus body, producing the payload that
// Encode wraps into a frame.
func EncodeMessage(m Encoder) []byte {
	buf := binary.LittleEndian.AppendUint16(nil, m.MessageID())
	return m.AppendBody(buf)
}

func appendU16(buf []byte, v uint16) []byte { return binary.LittleEndian.AppendUint16(buf, v) }
func appendI16(buf []byte, v int16) []byte  { return binary.LittleEndian.AppendUint16(buf, uint16(v)) }

// BatteryControl (0xAA01) switches the four antenna quadrants on or off.
type BatteryControl struct {
	Quadrant1 uint8 // 0 off, 1 on
	Quadrant2 uint8
	Quadrant3 uint8
	Quadrant4 uint8
}

// DefaultBatteryControl powers all four quadrants.
func DefaultBatteryControl() BatteryControl {
	return BatteryControl{Quadrant1: 1, Quadrant2: 1, Quadrant3: 1, Quadrant4: 1}
}

func (BatteryControl) MessageID() uint16 { return MsgBatteryControl }

func (m BatteryControl) AppendBody(buf []byte) []byte {
	return append(buf, m.Quadrant1, m.Quadrant2, m.Quadrant3, m.Quadrant4)
}

// TransceiverControl (0xAA02) gates the receive and transmit chains.
type TransceiverControl struct {
	Receive  uint8 // 0 off, 1 on
	Transmit uint8
}

func DefaultTransceiverControl() TransceiverControl {
	return TransceiverControl{Receive: 1, Transmit: 0}
}

func (TransceiverControl) MessageID() uint16 { return MsgTransceiverCtl }

func (m TransceiverControl) AppendBody(buf []byte) []byte {
	return append(buf, m.Receive, m.Transmit)
}

// PatternScan (0xAA03) commands an antenna pattern measurement sweep.
// Angles are quantised to 0.01°, times to 0.1 µs.
type PatternScan struct {
	Axis        uint8 // 0 azimuth pattern, 1 elevation pattern
	WaveID      uint8
	ScanStart   int16
	ScanEnd     int16
	ScanStep    int16
	TransmitAt  uint16
	SampleStart uint16
	SampleLen   uint16
}

func DefaultPatternScan() PatternScan {
	return PatternScan{
		WaveID:     8, // 2us-15MHz-40us waveform
		ScanStart:  -4500,
		ScanEnd:    4500,
		ScanStep:   1,
		TransmitAt: 10,
	}
}

func (PatternScan) MessageID() uint16 { return MsgPatternScan }

func (m PatternScan) AppendBody(buf []byte) []byte {
	buf = append(buf, m.Axis, m.WaveID)
	buf = appendI16(buf, m.ScanStart)
	buf = appendI16(buf, m.ScanEnd)
	buf = appendI16(buf, m.ScanStep)
	buf = appendU16(buf, m.TransmitAt)
	buf = appendU16(buf, m.SampleStart)
	return appendU16(buf, m.SampleLen)
}

// ScanRange (0xAA04) sets the array mounting attitude and scan regime.
type ScanRange struct {
	Placement uint8 // 0 horizontal, 1 vertical
	Method    uint8 // 0 column-major, 1 row-major
	WorkMode  uint8 // 0 TWS, 1 TAS
	Azimuth   int16 // physical boresight, 0.01°
	Elevation int16
}

func DefaultScanRange() ScanRange {
	return ScanRange{Azimuth: 2000, Elevation: 1500}
}

func (ScanRange) MessageID() uint16 { return MsgScanRange }

func (m ScanRange) AppendBody(buf []byte) []byte {
	buf = append(buf, m.Placement, m.Method, m.WorkMode)
	buf = appendI16(buf, m.Azimuth)
	return appendI16(buf, m.Elevation)
}

// Beam is one of the three schedulable beams inside BeamControl.
type Beam struct {
	Flag        uint8 // 0 disabled, 1 active
	Code        uint8 // waveform code 0-11
	PulseCount  uint16
	TransmitAt  uint16 // 0.1 µs
	SampleStart uint16
	SampleLen   uint16
	EleStart    int16 // 0.01°
	EleEnd      int16
	EleStep     int16
}

func (b Beam) appendBody(buf []byte) []byte {
	buf = append(buf, b.Flag, b.Code)
	buf = appendU16(buf, b.PulseCount)
	buf = appendU16(buf, b.TransmitAt)
	buf = appendU16(buf, b.SampleStart)
	buf = appendU16(buf, b.SampleLen)
	buf = appendI16(buf, b.EleStart)
	buf = appendI16(buf, b.EleEnd)
	return appendI16(buf, b.EleStep)
}

// BeamControl (0xAA05) programs the transmit schedule: carrier selection,
// azimuth raster and up to three elevation beams.
type BeamControl struct {
	FreqID   uint8 // 0-9, 15.6 GHz .. 16.5 GHz
	ChirpDir uint8 // 1 down-chirp, 2 up-chirp
	AziStart int16
	AziEnd   int16
	AziStep  int16
	FlagNum  uint8
	Beam1    Beam
	Beam2    Beam
	Beam3    Beam
}

func DefaultBeamControl() BeamControl {
	return BeamControl{
		FreqID:   2,
		ChirpDir: 2,
		AziStart: 4500,
		AziEnd:   13500,
		AziStep:  300,
		FlagNum:  2,
		Beam1: Beam{
			Flag: 1, Code: 6, PulseCount: 256,
			TransmitAt: 10, SampleStart: 30, SampleLen: 100,
			EleStart: 0, EleEnd: 6000, EleStep: 600,
		},
		Beam2: Beam{
			Flag: 1, Code: 9, PulseCount: 256,
			TransmitAt: 10, SampleStart: 120, SampleLen: 370,
			EleStart: 0, EleEnd: 2000, EleStep: 600,
		},
		Beam3: Beam{
			Flag: 0, Code: 10, PulseCount: 256,
			TransmitAt: 10, SampleStart: 270, SampleLen: 350,
			EleStart: -1400, EleEnd: -800, EleStep: 600,
		},
	}
}

func (BeamControl) MessageID() uint16 { return MsgBeamControl }

func (m BeamControl) AppendBody(buf []byte) []byte {
	buf = append(buf, m.FreqID, m.ChirpDir)
	buf = appendI16(buf, m.AziStart)
	buf = appendI16(buf, m.AziEnd)
	buf = appendI16(buf, m.AziStep)
	buf = append(buf, m.FlagNum)
	buf = m.Beam1.appendBody(buf)
	buf = m.Beam2.appendBody(buf)
	return m.Beam3.appendBody(buf)
}

// SignalProcParams (0xAA06) tunes the signal processor's detection chain.
type SignalProcParams struct {
	Noise            uint16 // 0.1 dB
	Thresh1          uint16
	Thresh2          uint16
	ClutterThresh    uint16
	ClutterFalseRate uint8
	CFARType         uint8 // 0 CA, 1 GO, 2 SO, 3 OS
	DisProtectWin    uint8
	DisRefWin        uint8
	DopProtectWin    uint8
	DopRefWin        uint8
	MTDWinType       uint8 // 0 FFT, 1 FIR
	ClutterMode      uint8
	ClutterChanWidth uint8
	ClutterUnitWin   uint8
	ClutterIter      uint8
	AlgorithmSwitch  uint8 // bit0 clutter sense, bit1 sidelobe blank, bit2 near-blind fill
}

func DefaultSignalProcParams() SignalProcParams {
	return SignalProcParams{
		Noise:            350,
		Thresh1:          90,
		Thresh2:          150,
		ClutterThresh:    170,
		ClutterFalseRate: 4,
		DisProtectWin:    2,
		DisRefWin:        16,
		DopProtectWin:    2,
		DopRefWin:        16,
		MTDWinType:       1,
		ClutterMode:      1,
		ClutterChanWidth: 5,
		ClutterUnitWin:   1,
		ClutterIter:      19,
		AlgorithmSwitch:  7,
	}
}

func (SignalProcParams) MessageID() uint16 { return MsgSignalProcParams }

func (m SignalProcParams) AppendBody(buf []byte) []byte {
	buf = appendU16(buf, m.Noise)
	buf = appendU16(buf, m.Thresh1)
	buf = appendU16(buf, m.Thresh2)
	buf = appendU16(buf, m.ClutterThresh)
	buf = append(buf, m.ClutterFalseRate, m.CFARType,
		m.DisProtectWin, m.DisRefWin, m.DopProtectWin, m.DopRefWin,
		m.MTDWinType, m.ClutterMode, m.ClutterChanWidth, m.ClutterUnitWin,
		m.ClutterIter, m.AlgorithmSwitch)
	return append(buf, make([]byte, 10)...) // reserved
}

// DataProcParams (0xAA07) tunes the tracker's gating and confirmation
// windows.
type DataProcParams struct {
	StartWinLen     uint8
	StartPoint      uint8
	EndWinLen       uint8
	EndPoint        uint8
	NoiseVar        uint16 // 0.01 units
	TrackDisLower   uint16
	TrackDisUpper   uint16
	TrackAziThresh  uint16
	TrackEleThresh  uint16
	TrackVelThresh  uint16
	TrackStatThresh uint16
	AccumDisGate    uint8
	AccumAziGate    uint8
	AccumEleGate    uint8
	AccumVelGate    uint8
}

func DefaultDataProcParams() DataProcParams {
	return DataProcParams{
		StartWinLen:     4,
		StartPoint:      3,
		EndWinLen:       3,
		EndPoint:        3,
		NoiseVar:        1,
		TrackDisLower:   10,
		TrackDisUpper:   300,
		TrackAziThresh:  15,
		TrackEleThresh:  20,
		TrackVelThresh:  100,
		TrackStatThresh: 160,
		AccumDisGate:    15,
		AccumAziGate:    4,
		AccumEleGate:    7,
		AccumVelGate:    60,
	}
}

func (DataProcParams) MessageID() uint16 { return MsgDataProcParams }

func (m DataProcParams) AppendBody(buf []byte) []byte {
	buf = append(buf, m.StartWinLen, m.StartPoint, m.EndWinLen, m.EndPoint)
	buf = appendU16(buf, m.NoiseVar)
	buf = appendU16(buf, m.TrackDisLower)
	buf = appendU16(buf, m.TrackDisUpper)
	buf = appendU16(buf, m.TrackAziThresh)
	buf = appendU16(buf, m.TrackEleThresh)
	buf = appendU16(buf, m.TrackVelThresh)
	buf = appendU16(buf, m.TrackStatThresh)
	buf = append(buf, m.AccumDisGate, m.AccumAziGate, m.AccumEleGate, m.AccumVelGate)
	return append(buf, make([]byte, 12)...) // reserved
}

// DataSave (0xCC01) starts or stops recording of a data set.
type DataSave struct {
	SaveSwitch uint8 // 0 stop, 1 start
	DataID     uint8
}

func (DataSave) MessageID() uint16 { return MsgDataSave }

func (m DataSave) AppendBody(buf []byte) []byte {
	return append(buf, m.SaveSwitch, m.DataID)
}

// DataDelete (0xCC02) deletes a stored data set.
type DataDelete struct {
	DataID uint8
}

func (DataDelete) MessageID() uint16 { return MsgDataDelete }

func (m DataDelete) AppendBody(buf []byte) []byte {
	return append(buf, m.DataID)
}

// OfflineToggle (0xCC03) switches a data set into offline replay.
type OfflineToggle struct {
	On     uint8
	DataID uint8
}

func (OfflineToggle) MessageID() uint16 { return MsgOfflineToggle }

func (m OfflineToggle) AppendBody(buf []byte) []byte {
	return append(buf, m.On, m.DataID)
}

// ManualTrack (0xDF01) forces manual track initiation on a batch.
type ManualTrack struct {
	BatchID uint16
}

func (ManualTrack) MessageID() uint16 { return MsgManualTrack }

func (m ManualTrack) AppendBody(buf []byte) []byte {
	return appendU16(buf, m.BatchID)
}

// SystemStart (0xDA01) starts or shuts down the processing chain.
type SystemStart struct {
	State uint8 // 0 shut down, 1 start
}

func DefaultSystemStart() SystemStart { return SystemStart{State: 1} }

func (SystemStart) MessageID() uint16 { return MsgSystemStart }

func (m SystemStart) AppendBody(buf []byte) []byte {
	return append(buf, m.State)
}

package link

import "github.com/skyfence/radarlink/internal/config"

// Factory network defaults. Deployments override these through the config
// file; the values here match the as-shipped station addressing plan.
const (
	DefaultStationIP = "192.168.64.4"
	DefaultSigProIP  = "192.168.64.3"
	DefaultDataProIP = "192.168.64.3"
	DefaultMonitorIP = "192.168.64.3"
	DefaultPhotoIP   = "192.168.101.10"

	// Protocol node identities stamped into every frame header.
	DefaultResDisID   = 0xBB01
	DefaultSigProID   = 0xBB02
	DefaultDataProID  = 0xBB03
	DefaultDispCtrlID = 0xBB04
	DefaultTarClaID   = 0xBB05
	DefaultMonitorID  = 0xBB06

	// Local listen ports, one per inbound stream.
	DefaultSigRecvPort1    = 8003
	DefaultSigRecvPort2    = 8004
	DefaultDataRecvPort    = 8006
	DefaultTargetRecvPort  = 8017
	DefaultMonitorRecvPort = 8019
	DefaultPhotoRecvPort   = 21001

	// Remote command ports on the peer subsystems.
	DefaultSigSendPort     = 6002
	DefaultDataSendPort    = 6008
	DefaultMonitorSendPort = 6018
	DefaultPhotoSendPort   = 10100
)

// Endpoints is the fully resolved network plan for one station: every peer
// address, port and node identity the link layer needs.
type Endpoints struct {
	SigProIP  string
	DataProIP string
	MonitorIP string
	PhotoIP   string

	StationID uint16
	SigProID  uint16
	DataProID uint16
	TarClaID  uint16
	MonitorID uint16

	SigRecvPort1    int
	SigRecvPort2    int
	DataRecvPort    int
	TargetRecvPort  int
	MonitorRecvPort int
	PhotoRecvPort   int

	SigSendPort     int
	DataSendPort    int
	MonitorSendPort int
	PhotoSendPort   int
}

// DefaultEndpoints returns the factory addressing plan.
func DefaultEndpoints() Endpoints {
	return EndpointsFrom(config.Defaults())
}

// EndpointsFrom resolves the plan against a loaded configuration, falling
// back to the factory defaults for anything the file leaves unset.
func EndpointsFrom(p *config.Provider) Endpoints {
	return Endpoints{
		SigProIP:  p.IP("sig_pro", DefaultSigProIP),
		DataProIP: p.IP("data_pro", DefaultDataProIP),
		MonitorIP: p.IP("monitor", DefaultMonitorIP),
		PhotoIP:   p.IP("photo", DefaultPhotoIP),

		StationID: p.ID("disp_ctrl", DefaultDispCtrlID),
		SigProID:  p.ID("sig_pro", DefaultSigProID),
		DataProID: p.ID("data_pro", DefaultDataProID),
		TarClaID:  p.ID("tar_cla", DefaultTarClaID),
		MonitorID: p.ID("monitor", DefaultMonitorID),

		SigRecvPort1:    p.Port("sig_recv_1", DefaultSigRecvPort1),
		SigRecvPort2:    p.Port("sig_recv_2", DefaultSigRecvPort2),
		DataRecvPort:    p.Port("data_recv", DefaultDataRecvPort),
		TargetRecvPort:  p.Port("target_recv", DefaultTargetRecvPort),
		MonitorRecvPort: p.Port("monitor_recv", DefaultMonitorRecvPort),
		PhotoRecvPort:   p.Port("photo_recv", DefaultPhotoRecvPort),

		SigSendPort:     p.Port("sig_send", DefaultSigSendPort),
		DataSendPort:    p.Port("data_send", DefaultDataSendPort),
		MonitorSendPort: p.Port("monitor_send", DefaultMonitorSendPort),
		PhotoSendPort:   p.Port("photo_send", DefaultPhotoSendPort),
	}
}

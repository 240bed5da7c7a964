package vpn

import (
	"context"
	"strings"
	"time"
)

type Status int

const (
	StatusUnknown Status = iota
	StatusConnected
	StatusDisconnected
	StatusConnecting
	StatusDisconnecting
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusConnected:
		return "Connected"
	case StatusDisconnected:
		return "Disconnected"
	case StatusConnecting:
		return "Connecting"
	case StatusDisconnecting:
		return "Disconnecting"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// AllStatuses lists every status in declaration order.
var AllStatuses = []Status{
	StatusUnknown,
	StatusConnected,
	StatusDisconnected,
	StatusConnecting,
	StatusDisconnecting,
	StatusError,
}

// Mode is the WARP operation mode as accepted by `warp-cli mode`.
type Mode string

const (
	ModeUnknown Mode = ""
	ModeWarp    Mode = "warp"
	ModeDoH     Mode = "doh"
	ModeWarpDoH Mode = "warp+doh"
	ModeDoT     Mode = "dot"
	ModeWarpDoT Mode = "warp+dot"
)

var Modes = []Mode{ModeWarp, ModeDoH, ModeWarpDoH, ModeDoT, ModeWarpDoT}

func (m Mode) String() string {
	switch m {
	case ModeWarp:
		return "Warp"
	case ModeDoH:
		return "DoH"
	case ModeWarpDoH:
		return "Warp+DoH"
	case ModeDoT:
		return "DoT"
	case ModeWarpDoT:
		return "Warp+DoT"
	default:
		return "Unknown"
	}
}

// ParseMode accepts both the CLI argument form ("warp+doh") and the
// display form printed by the tool ("Warp+DoH").
func ParseMode(s string) Mode {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "")
	for _, m := range Modes {
		if s == string(m) {
			return m
		}
	}
	if m, ok := modeAliases[s]; ok {
		return m
	}
	return ModeUnknown
}

// Spellings used by the daemon's JSON settings.
var modeAliases = map[string]Mode{
	"dnsoverhttps":         ModeDoH,
	"dnsovertls":           ModeDoT,
	"warpwithdnsoverhttps": ModeWarpDoH,
	"warpwithdnsovertls":   ModeWarpDoT,
}

type ConnectionState struct {
	Status         Status
	Detail         string
	UpdatedAt      time.Time
	Mode           Mode
	AccountType    string
	WarpEnabled    bool
	GatewayEnabled bool
}

// ErrorState builds the Error variant for err, keeping the time of the last
// successful poll.
func ErrorState(err error, lastSuccess time.Time) ConnectionState {
	return ConnectionState{
		Status:    StatusError,
		Detail:    ErrorDetail(err),
		UpdatedAt: lastSuccess,
	}
}

type Service interface {
	GetStatus(ctx context.Context) (ConnectionState, error)
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	SetMode(ctx context.Context, mode Mode) error
}

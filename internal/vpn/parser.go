package vpn

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Parser turns the output of the status command into a ConnectionState.
// It never fails to produce a state: when err is non-nil the returned
// state is the Error variant.
type Parser interface {
	ParseStatus(output string) (ConnectionState, error)
}

const (
	ParserText = "text"
	ParserJSON = "json"
)

func NewParser(kind string) (Parser, error) {
	switch strings.ToLower(kind) {
	case "", ParserText:
		return TextParser{}, nil
	case ParserJSON:
		return JSONParser{}, nil
	default:
		return nil, fmt.Errorf("unknown status parser %q", kind)
	}
}

// TextParser reads the human readable `warp-cli status` output, e.g.
//
//	Status update: Disconnected
//	Reason: Settings Changed
//
// Older clients print "Status: Connected" instead.
type TextParser struct{}

func (TextParser) ParseStatus(output string) (ConnectionState, error) {
	state := ConnectionState{Status: StatusUnknown}
	var (
		found        bool
		unrecognized bool
		rawValue     string
	)

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		key, value, ok := splitField(scanner.Text())
		if !ok {
			continue
		}
		switch key {
		case "status update", "status":
			// first status line wins
			if found {
				continue
			}
			found = true
			if s, ok := statusFromText(value); ok {
				state.Status = s
			} else {
				unrecognized = true
				rawValue = value
			}
		case "reason":
			state.Detail = value
		case "mode":
			state.Mode = ParseMode(value)
		case "account type":
			state.AccountType = value
		case "warp enabled":
			state.WarpEnabled = strings.EqualFold(value, "true")
		case "gateway enabled":
			state.GatewayEnabled = strings.EqualFold(value, "true")
		}
	}

	switch {
	case !found:
		return parseFailure(&ParseError{Output: output})
	case unrecognized:
		reason := fmt.Sprintf("unrecognized status %q", rawValue)
		if state.Detail != "" {
			reason = fmt.Sprintf("%s: %s", rawValue, state.Detail)
		}
		return parseFailure(&ParseError{Output: output, Reason: reason})
	}
	return state, nil
}

// JSONParser reads `warp-cli --json status`.
type JSONParser struct{}

func (JSONParser) ParseStatus(output string) (ConnectionState, error) {
	if strings.TrimSpace(output) == "" || !gjson.Valid(output) {
		return parseFailure(&ParseError{Output: output})
	}

	res := gjson.GetMany(output, "status", "reason", "mode", "account_type", "warp_enabled", "gateway_enabled")
	statusField := res[0]
	if !statusField.Exists() {
		statusField = gjson.Get(output, "status_update")
	}
	if !statusField.Exists() {
		return parseFailure(&ParseError{Output: output})
	}

	s, ok := statusFromText(statusField.String())
	if !ok {
		return parseFailure(&ParseError{
			Output: output,
			Reason: fmt.Sprintf("unrecognized status %q", statusField.String()),
		})
	}
	return ConnectionState{
		Status:         s,
		Detail:         res[1].String(),
		Mode:           ParseMode(res[2].String()),
		AccountType:    res[3].String(),
		WarpEnabled:    res[4].Bool(),
		GatewayEnabled: res[5].Bool(),
	}, nil
}

// ParseOperationMode extracts the operation mode from `warp-cli --json settings`.
func ParseOperationMode(output string) (Mode, error) {
	if !gjson.Valid(output) {
		return ModeUnknown, &ParseError{Output: output, Reason: "settings output is not JSON"}
	}
	v := gjson.Get(output, "settings.operation_mode")
	if !v.Exists() {
		v = gjson.Get(output, "operation_mode")
	}
	if !v.Exists() {
		return ModeUnknown, &ParseError{Output: output, Reason: "operation_mode missing"}
	}
	return ParseMode(v.String()), nil
}

func parseFailure(err *ParseError) (ConnectionState, error) {
	return ConnectionState{Status: StatusError, Detail: err.detail()}, err
}

func splitField(line string) (key, value string, ok bool) {
	k, v, ok := strings.Cut(strings.TrimSpace(line), ":")
	if !ok {
		return "", "", false
	}
	return strings.ToLower(strings.TrimSpace(k)), strings.TrimSpace(v), true
}

// statusFromText matches the first word of a status value exactly, so
// "Disconnecting" is never read as "Connecting".
func statusFromText(value string) (Status, bool) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return StatusUnknown, false
	}
	switch strings.ToLower(strings.TrimRight(fields[0], ".,;")) {
	case "connected":
		return StatusConnected, true
	case "disconnected":
		return StatusDisconnected, true
	case "connecting":
		return StatusConnecting, true
	case "disconnecting":
		return StatusDisconnecting, true
	default:
		return StatusUnknown, false
	}
}

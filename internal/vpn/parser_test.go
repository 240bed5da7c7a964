package vpn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextParserStatuses(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   ConnectionState
	}{
		{
			name:   "connected with mode and account",
			output: "Status update: Connected\nMode: Warp+DoH\nAccount type: Free\n",
			want:   ConnectionState{Status: StatusConnected, Mode: ModeWarpDoH, AccountType: "Free"},
		},
		{
			name:   "disconnected with reason",
			output: "Status update: Disconnected\nReason: Settings Changed\n",
			want:   ConnectionState{Status: StatusDisconnected, Detail: "Settings Changed"},
		},
		{
			name:   "connecting with reason containing colon",
			output: "Status update: Connecting\nReason: Checking for a route to the DNS endpoint: 162.159.36.1\n",
			want:   ConnectionState{Status: StatusConnecting, Detail: "Checking for a route to the DNS endpoint: 162.159.36.1"},
		},
		{
			name:   "disconnecting is not connecting",
			output: "Status update: Disconnecting",
			want:   ConnectionState{Status: StatusDisconnecting},
		},
		{
			name:   "legacy status line",
			output: "Success\nStatus: Connected\nWarp enabled: true\nGateway enabled: TRUE\n",
			want:   ConnectionState{Status: StatusConnected, WarpEnabled: true, GatewayEnabled: true},
		},
		{
			name:   "legacy status with trailing punctuation",
			output: "Status: Disconnected. Reason: Manual Disconnection",
			want:   ConnectionState{Status: StatusDisconnected},
		},
		{
			name:   "case insensitive",
			output: "STATUS UPDATE: connected",
			want:   ConnectionState{Status: StatusConnected},
		},
		{
			name:   "first status line wins",
			output: "Status update: Connected\nStatus update: Disconnected",
			want:   ConnectionState{Status: StatusConnected},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TextParser{}.ParseStatus(tt.output)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTextParserMalformedYieldsError(t *testing.T) {
	tests := []struct {
		name       string
		output     string
		wantDetail string
	}{
		{"empty", "", "empty status output"},
		{"whitespace", " \n\t", "empty status output"},
		{"no status line", "Registration missing", "Registration missing"},
		{"unknown status", "Status update: Sleeping", `unrecognized status "Sleeping"`},
		{"unknown status with reason", "Status update: Unable\nReason: No Network", "Unable: No Network"},
		{"empty status value", "Status update:", `unrecognized status ""`},
		{"binary noise", "\x00\xff\xfe:::", "\x00\xff\xfe:::"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TextParser{}.ParseStatus(tt.output)
			require.ErrorIs(t, err, ErrParse)
			assert.Equal(t, StatusError, got.Status)
			assert.Equal(t, tt.wantDetail, got.Detail)
			assert.Equal(t, tt.wantDetail, ErrorDetail(err))
		})
	}
}

func TestTextParserIsTotal(t *testing.T) {
	inputs := []string{
		"", ":", "::::", "Status", "status:", "Status update: ",
		"Status update: Connected\x00", "Reason: only", "Mode: doh",
		"Status: connectedish", "\n\n\nStatus update: Connecting\n\n",
	}
	for _, in := range inputs {
		got, err := TextParser{}.ParseStatus(in)
		assert.Contains(t, AllStatuses, got.Status, "input %q", in)
		if err != nil {
			assert.Equal(t, StatusError, got.Status, "input %q", in)
		} else {
			assert.NotEqual(t, StatusError, got.Status, "input %q", in)
			assert.NotEqual(t, StatusUnknown, got.Status, "input %q", in)
		}
	}
}

func TestJSONParser(t *testing.T) {
	got, err := JSONParser{}.ParseStatus(`{"status":"Connected","mode":"warp+doh","account_type":"Team"}`)
	require.NoError(t, err)
	assert.Equal(t, ConnectionState{Status: StatusConnected, Mode: ModeWarpDoH, AccountType: "Team"}, got)

	got, err = JSONParser{}.ParseStatus(`{"status_update":"Disconnected","reason":"Manual"}`)
	require.NoError(t, err)
	assert.Equal(t, StatusDisconnected, got.Status)
	assert.Equal(t, "Manual", got.Detail)

	got, err = JSONParser{}.ParseStatus(`{"status":"Connected","warp_enabled":true,"gateway_enabled":false}`)
	require.NoError(t, err)
	assert.True(t, got.WarpEnabled)
	assert.False(t, got.GatewayEnabled)

	for _, bad := range []string{"", "not json", `{"other":1}`, `{"status":"weird"}`} {
		got, err := JSONParser{}.ParseStatus(bad)
		assert.ErrorIs(t, err, ErrParse, "input %q", bad)
		assert.Equal(t, StatusError, got.Status)
	}
}

func TestParseOperationMode(t *testing.T) {
	tests := []struct {
		output  string
		want    Mode
		wantErr bool
	}{
		{`{"settings":{"operation_mode":"warp+doh"}}`, ModeWarpDoH, false},
		{`{"settings":{"operation_mode":"DnsOverHttps"}}`, ModeDoH, false},
		{`{"operation_mode":"WarpWithDnsOverTls"}`, ModeWarpDoT, false},
		{`{"settings":{"operation_mode":"tunnel_only"}}`, ModeUnknown, false},
		{`{"settings":{}}`, ModeUnknown, true},
		{`Error: daemon`, ModeUnknown, true},
	}
	for _, tt := range tests {
		got, err := ParseOperationMode(tt.output)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrParse, tt.output)
		} else {
			assert.NoError(t, err, tt.output)
		}
		assert.Equal(t, tt.want, got, tt.output)
	}
}

func TestNewParser(t *testing.T) {
	p, err := NewParser("")
	require.NoError(t, err)
	assert.IsType(t, TextParser{}, p)

	p, err = NewParser("JSON")
	require.NoError(t, err)
	assert.IsType(t, JSONParser{}, p)

	_, err = NewParser("xml")
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeWarpDoT, ParseMode("Warp+DoT"))
	assert.Equal(t, ModeWarp, ParseMode(" warp "))
	assert.Equal(t, ModeUnknown, ParseMode("proxy"))
	assert.Equal(t, "Unknown", ModeUnknown.String())
}

package launcher

import (
	"bufio"
	"strings"
	"testing"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		wantPrefix string
		wantAddr   string
		wantErr    bool
	}{
		{name: "ipv4", line: "fsix:127.0.0.1:50123", wantPrefix: "fsix", wantAddr: "127.0.0.1:50123"},
		{name: "hostname with whitespace", line: "  fsix:localhost:8080\r\n", wantPrefix: "fsix", wantAddr: "localhost:8080"},
		{name: "ipv6 keeps inner colons", line: "fsix:::1:9000", wantPrefix: "fsix", wantAddr: "[::1]:9000"},
		{name: "bracketed ipv6", line: "fsix:[::1]:9000", wantPrefix: "fsix", wantAddr: "[::1]:9000"},
		{name: "only one colon", line: "fsix:9000", wantErr: true},
		{name: "no prefix", line: ":127.0.0.1:9000", wantErr: true},
		{name: "missing host", line: "fsix::9000", wantErr: true},
		{name: "port not a number", line: "fsix:127.0.0.1:http", wantErr: true},
		{name: "port out of range", line: "fsix:127.0.0.1:70000", wantErr: true},
		{name: "log line instead of address", line: "Loading project...", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefix, addr, err := parseEndpoint(tt.line)
			if tt.wantErr {
				var pv *errors.ProtocolViolationError
				assert.ErrorAs(t, err, &pv)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrefix, prefix)
			assert.Equal(t, tt.wantAddr, addr)
		})
	}
}

func TestReadHandshakeLine(t *testing.T) {
	t.Run("reads one line", func(t *testing.T) {
		r := bufio.NewReaderSize(strings.NewReader("fsix:127.0.0.1:1234\r\nrest of output\n"), 64)
		line, err := readHandshakeLine(r, 64)
		require.NoError(t, err)
		assert.Equal(t, "fsix:127.0.0.1:1234", line)

		rest, err := r.ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, "rest of output\n", rest)
	})

	t.Run("line longer than the cap", func(t *testing.T) {
		r := bufio.NewReaderSize(strings.NewReader(strings.Repeat("x", 100)+"\n"), 32)
		_, err := readHandshakeLine(r, 32)
		var pv *errors.ProtocolViolationError
		require.ErrorAs(t, err, &pv)
		assert.Contains(t, pv.Reason, "exceeds 32 bytes")
	})

	t.Run("eof before newline", func(t *testing.T) {
		r := bufio.NewReaderSize(strings.NewReader("fsix:127"), 64)
		_, err := readHandshakeLine(r, 64)
		assert.Error(t, err)
	})
}

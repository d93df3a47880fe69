package statsd

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		" job/metric ":  "job_metric",
		"foo..bar":      "foo.bar",
		"multi  space":  "multi__space",
		"slash/name/id": "slash_name_id",
		"...":           "",
		".report.":      "report",
	}

	for input, want := range tests {
		assert.Equal(t, want, cleanName(input), "cleanName(%q)", input)
	}
}

func TestFullName(t *testing.T) {
	t.Parallel()

	c := &Client{prefix: "tallyworks"}
	assert.Equal(t, "tallyworks.report.transition", c.fullName("report.transition"))
	assert.Equal(t, "tallyworks", c.fullName("..."))
	assert.Empty(t, c.fullName("   "), "blank names must be dropped, not emitted as the bare prefix")

	bare := &Client{}
	assert.Equal(t, "report.transition", bare.fullName("report.transition"))
}

func TestWriteTagSuffix(t *testing.T) {
	t.Parallel()

	t.Run("merges with per-call override and sorted keys", func(t *testing.T) {
		base := map[string]string{
			"env":       "prod",
			" service ": " reports ",
		}
		extra := map[string]string{
			"result": " success ",
			"":       "ignored",
			"env":    "stage",
		}

		var b strings.Builder
		writeTagSuffix(&b, base, extra)
		assert.Equal(t, "|#env:stage,result:success,service:reports", b.String())
	})

	t.Run("no tags writes nothing", func(t *testing.T) {
		var b strings.Builder
		writeTagSuffix(&b, nil, nil)
		assert.Empty(t, b.String())
	})

	t.Run("all-blank keys write nothing", func(t *testing.T) {
		var b strings.Builder
		writeTagSuffix(&b, map[string]string{" ": "x"}, nil)
		assert.Empty(t, b.String())
	})
}

func TestNormalizeTagsIsDetached(t *testing.T) {
	t.Parallel()

	original := map[string]string{"env": "prod", "": "ignored"}
	cp := normalizeTags(original)
	require.NotNil(t, cp)

	cp["env"] = "stage"
	assert.Equal(t, "prod", original["env"])
	assert.NotContains(t, cp, "")
}

func TestClientLifecycle(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()

	c := &Client{enabled: true, conn: clientConn}
	assert.True(t, c.Enabled())

	require.NoError(t, c.Close())
	assert.False(t, c.Enabled())
	require.NoError(t, c.Close(), "second Close must be a no-op")

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
	assert.NoError(t, nilClient.Close())
	nilClient.Count("report.transition", 1, nil) // must not panic
}

func TestNewClientStaysDisabledWithoutAddress(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Config{Enabled: true, Address: "   "})
	require.NoError(t, err)
	assert.False(t, c.Enabled())
}

func TestNewClientDialError(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{Enabled: true, Address: "bad address"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statsd dial")
}

func TestClientEmitsDatagrams(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	c, err := NewClient(Config{
		Enabled:    true,
		Address:    pc.LocalAddr().String(),
		Prefix:     "tallyworks",
		GlobalTags: map[string]string{"env": "test"},
	})
	require.NoError(t, err)
	defer c.Close()

	c.Count("report.transition", 1, map[string]string{"result": "success"})
	assert.Equal(t, "tallyworks.report.transition:1|c|#env:test,result:success", readDatagram(t, pc))

	c.Gauge("report.tracked_jobs", 3, nil)
	assert.Equal(t, "tallyworks.report.tracked_jobs:3|g|#env:test", readDatagram(t, pc))

	c.Timing("report.duration", 1500*time.Millisecond, nil)
	assert.Equal(t, "tallyworks.report.duration:1500|ms|#env:test", readDatagram(t, pc))
}

func readDatagram(t *testing.T, pc net.PacketConn) string {
	t.Helper()

	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 512)
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

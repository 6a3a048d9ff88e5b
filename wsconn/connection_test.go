package wsconn

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecompress_Gzip(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte(`{"hello":"world"}`))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	out, err := decompress(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, `{"hello":"world"}`, string(out))
}

func TestDecompress_Flate(t *testing.T) {
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = fw.Write([]byte(`{"hello":"world"}`))
	require.NoError(t, err)
	require.NoError(t, fw.Close())

	out, err := decompress(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, `{"hello":"world"}`, string(out))
}

func TestDecompress_TooShortErrors(t *testing.T) {
	_, err := decompress([]byte{0x01})
	assert.Error(t, err)
}

func TestIsTimeout_MatchesSentinel(t *testing.T) {
	assert.True(t, IsTimeout(errTimeout))
	assert.False(t, IsTimeout(nil))
}

func TestConnection_IsConnected_FalseBeforeDial(t *testing.T) {
	c := New("testvenue", "wss://example.invalid")
	assert.False(t, c.IsConnected())
}

func TestConnection_SendJSONMessage_ErrorsWhenDisconnected(t *testing.T) {
	c := New("testvenue", "wss://example.invalid")
	err := c.SendJSONMessage(map[string]string{"a": "b"})
	assert.Error(t, err)
}

func TestConnection_Close_NoopWithoutDial(t *testing.T) {
	c := New("testvenue", "wss://example.invalid")
	assert.NoError(t, c.Close())
	assert.False(t, c.IsConnected())
}

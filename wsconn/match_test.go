package wsconn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch_SetAndFulfil(t *testing.T) {
	m := NewMatch()
	pm, err := m.Set("req-1")
	require.NoError(t, err)

	ok := m.Fulfil("req-1", []byte("payload"))
	assert.True(t, ok)

	select {
	case got := <-pm.C:
		assert.Equal(t, []byte("payload"), got)
	default:
		t.Fatal("expected payload to be delivered")
	}
}

func TestMatch_Set_DuplicateSignatureErrors(t *testing.T) {
	m := NewMatch()
	_, err := m.Set("req-1")
	require.NoError(t, err)

	_, err = m.Set("req-1")
	assert.Error(t, err)
}

func TestMatch_Fulfil_UnknownSignatureReturnsFalse(t *testing.T) {
	m := NewMatch()
	assert.False(t, m.Fulfil("nonexistent", []byte("x")))
}

func TestMatch_Cleanup_RemovesWaiter(t *testing.T) {
	m := NewMatch()
	pm, err := m.Set("req-1")
	require.NoError(t, err)

	pm.Cleanup()

	// A second Set for the same signature should now succeed.
	_, err = m.Set("req-1")
	assert.NoError(t, err)
}

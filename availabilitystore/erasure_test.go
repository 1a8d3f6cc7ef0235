package availabilitystore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCoderIsDeterministic(t *testing.T) {
	coder := NewDefaultCoder()
	data := []byte("some validation data that spans multiple shards easily")

	a, err := coder.Chunks(data, 4)
	require.NoError(t, err)
	b, err := coder.Chunks(data, 4)
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Len(t, a, 4)
}

func TestDefaultCoderRejectsNonPositiveValidators(t *testing.T) {
	coder := NewDefaultCoder()
	_, err := coder.Chunks([]byte("x"), 0)
	require.Error(t, err)
}

func TestDefaultCoderSingleValidator(t *testing.T) {
	coder := NewDefaultCoder()
	chunks, err := coder.Chunks([]byte("x"), 1)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, []byte("x"), chunks[0].Bytes)
}

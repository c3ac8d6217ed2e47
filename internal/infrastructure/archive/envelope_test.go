package archive_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetkit-dev/assetkit/internal/infrastructure/archive"
)

func fastEnvelope() *archive.Envelope {
	return &archive.Envelope{KDF: archive.KDFParams{Time: 1, Memory: 8 * 1024, Threads: 1}}
}

func TestEnvelope_SealOpen(t *testing.T) {
	t.Parallel()
	env := fastEnvelope()
	plain := []byte("zip bytes")

	sealed, err := env.Seal(plain, "hunter2")
	require.NoError(t, err)
	assert.True(t, env.IsSealed(sealed))
	assert.False(t, env.IsSealed(plain))
	assert.NotContains(t, string(sealed), "zip bytes")

	opened, err := env.Open(sealed, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, plain, opened)

	again, err := env.Seal(plain, "hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "salt and nonce are random")
}

func TestEnvelope_Rejects(t *testing.T) {
	t.Parallel()
	env := fastEnvelope()
	sealed, err := env.Seal([]byte("payload"), "right")
	require.NoError(t, err)

	_, err = env.Open(sealed, "wrong")
	assert.ErrorIs(t, err, archive.ErrWrongPassword)

	tampered := append([]byte(nil), sealed...)
	tampered[len(tampered)-1] ^= 0xff
	_, err = env.Open(tampered, "right")
	assert.ErrorIs(t, err, archive.ErrWrongPassword)

	_, err = env.Open(sealed[:10], "right")
	assert.Error(t, err)

	_, err = env.Open([]byte("PK\x03\x04"), "right")
	assert.Error(t, err)

	_, err = env.Seal([]byte("payload"), "")
	assert.Error(t, err)
}

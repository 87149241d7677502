package envelope

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProvider(t *testing.T) *LocalKeyProvider {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	p, err := NewLocalKeyProvider(key)
	require.NoError(t, err)
	return p
}

func TestSealOpen_RoundTrip(t *testing.T) {
	p := testProvider(t)

	cases := [][]byte{
		[]byte(""),
		[]byte("hello"),
		[]byte("content with | delimiters || and : colons"),
		bytes.Repeat([]byte{0x00, 0xff}, 4096),
	}
	for _, plaintext := range cases {
		env, err := p.Seal(plaintext)
		require.NoError(t, err)

		out, err := p.Open(env)
		require.NoError(t, err)
		assert.Equal(t, plaintext, out)
	}
}

func TestSealOpen_RandomBytes(t *testing.T) {
	p := testProvider(t)

	plaintext := make([]byte, 1<<16)
	_, err := rand.Read(plaintext)
	require.NoError(t, err)

	env, err := p.Seal(plaintext)
	require.NoError(t, err)
	out, err := p.Open(env)
	require.NoError(t, err)
	assert.Equal(t, plaintext, out)
}

func TestSeal_FreshKeyPerOperation(t *testing.T) {
	p := testProvider(t)

	a, err := p.Seal([]byte("same plaintext"))
	require.NoError(t, err)
	b, err := p.Seal([]byte("same plaintext"))
	require.NoError(t, err)

	assert.NotEqual(t, a.WrappedKey, b.WrappedKey)
	assert.NotEqual(t, a.Ciphertext, b.Ciphertext)
	assert.NotEqual(t, a.IV, b.IV)
}

func TestOpen_TamperDetection(t *testing.T) {
	p := testProvider(t)

	env, err := p.Seal([]byte("sensitive case details"))
	require.NoError(t, err)

	tampered := env
	tampered.Ciphertext = append([]byte{}, env.Ciphertext...)
	tampered.Ciphertext[0] ^= 0x01
	_, err = p.Open(tampered)
	assert.Error(t, err)

	tampered = env
	tampered.Tag = append([]byte{}, env.Tag...)
	tampered.Tag[0] ^= 0x01
	_, err = p.Open(tampered)
	assert.Error(t, err)

	tampered = env
	tampered.WrappedKey = append([]byte{}, env.WrappedKey...)
	tampered.WrappedKey[len(tampered.WrappedKey)-1] ^= 0x01
	_, err = p.Open(tampered)
	assert.Error(t, err)
}

func TestOpen_WrongProvider(t *testing.T) {
	p1 := testProvider(t)
	p2 := testProvider(t)

	env, err := p1.Seal([]byte("payload"))
	require.NoError(t, err)

	_, err = p2.Open(env)
	assert.Error(t, err)
}

func TestNewLocalKeyProvider_BadKeyLength(t *testing.T) {
	_, err := NewLocalKeyProvider([]byte("short"))
	assert.Error(t, err)
}

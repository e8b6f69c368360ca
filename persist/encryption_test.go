package persist

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	t.Setenv(EncryptionKeyEnvVar, "a-test-key-that-is-not-32-bytes")

	plain := []byte(`{"web":{"type":"instance","data":{}}}`)
	encrypted, err := EncryptMirror(plain)
	require.NoError(t, err)
	assert.True(t, IsEncrypted(encrypted))
	assert.NotEqual(t, plain, encrypted)

	decrypted, err := DecryptMirror(encrypted)
	require.NoError(t, err)
	assert.Equal(t, plain, decrypted)
}

func TestEncryptNoopWithoutKey(t *testing.T) {
	os.Unsetenv(EncryptionKeyEnvVar)

	plain := []byte(`{}`)
	out, err := EncryptMirror(plain)
	require.NoError(t, err)
	assert.Equal(t, plain, out)
	assert.False(t, IsEncrypted(out))
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	t.Setenv(EncryptionKeyEnvVar, "key-one")
	encrypted, err := EncryptMirror([]byte("secret"))
	require.NoError(t, err)

	t.Setenv(EncryptionKeyEnvVar, "key-two")
	_, err = DecryptMirror(encrypted)
	require.Error(t, err)
}

func TestDecryptWithoutKeySetFails(t *testing.T) {
	t.Setenv(EncryptionKeyEnvVar, "key-one")
	encrypted, err := EncryptMirror([]byte("secret"))
	require.NoError(t, err)

	os.Unsetenv(EncryptionKeyEnvVar)
	_, err = DecryptMirror(encrypted)
	require.Error(t, err)
	assert.Contains(t, err.Error(), EncryptionKeyEnvVar)
}

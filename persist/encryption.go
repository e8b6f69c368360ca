package persist

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	// EncryptionKeyEnvVar names the environment variable a caller sets
	// to enable at-rest encryption of the remote mirror.
	EncryptionKeyEnvVar = "MIRRORPLAN_MIRROR_ENCRYPTION_KEY"

	encryptedHeader = "# MIRRORPLAN_ENCRYPTED_MIRROR\n"
)

// mirrorAAD binds ciphertext to "this is a mirror file," the GCM
// additional-authenticated-data argument, so a ciphertext produced here
// can never be swapped in for some other encrypted blob under the same
// key without GCM's tag check failing.
var mirrorAAD = []byte("mirrorplan:mirror")

// EncryptMirror encrypts serialized mirror bytes with AES-256-GCM using
// a key from EncryptionKeyEnvVar. If no key is configured it returns
// content unchanged, so encryption is opt-in.
func EncryptMirror(content []byte) ([]byte, error) {
	key := encryptionKey()
	if key == nil {
		return content, nil
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("persist: create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("persist: create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("persist: generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, content, mirrorAAD)
	encoded := base64.StdEncoding.EncodeToString(ciphertext)
	return []byte(encryptedHeader + encoded + "\n"), nil
}

// DecryptMirror decrypts content if it carries the encrypted-mirror
// header, otherwise returns it unchanged.
func DecryptMirror(content []byte) ([]byte, error) {
	if !IsEncrypted(content) {
		return content, nil
	}

	key := encryptionKey()
	if key == nil {
		return nil, fmt.Errorf("persist: mirror is encrypted but %s is not set", EncryptionKeyEnvVar)
	}

	encoded := strings.TrimSpace(strings.TrimPrefix(string(content), encryptedHeader))
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("persist: decode encrypted mirror: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("persist: create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("persist: create GCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("persist: ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, mirrorAAD)
	if err != nil {
		return nil, fmt.Errorf("persist: decrypt mirror (wrong key?): %w", err)
	}
	return plaintext, nil
}

// IsEncrypted reports whether content carries the encrypted-mirror header.
func IsEncrypted(content []byte) bool {
	return strings.HasPrefix(string(content), encryptedHeader)
}

func encryptionKey() []byte {
	keyStr := os.Getenv(EncryptionKeyEnvVar)
	if keyStr == "" {
		return nil
	}
	key := make([]byte, 32)
	copy(key, []byte(keyStr))
	return key
}

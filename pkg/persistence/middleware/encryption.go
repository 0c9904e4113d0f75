package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// envelopePrefix marks the description of an encrypted envelope.
const envelopePrefix = "encrypted:v1:"

// ErrInvalidKey is returned when a key is not 32 bytes long.
var ErrInvalidKey = errors.New("encryption key must be 32 bytes (AES-256)")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.TreeStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts whole trees using AES-GCM.
// The backing store only sees an envelope carrying the tree ID and timestamps.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, ErrInvalidKey
	}
	for _, k := range config.FallbackKeys {
		if len(k) != 32 {
			return nil, fmt.Errorf("fallback key: %w", ErrInvalidKey)
		}
	}
	return func(next ports.TreeStore) ports.TreeStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}, nil
}

func (m *encryptionMiddleware) SaveTree(ctx context.Context, tree *domain.Tree) error {
	plainText, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("failed to marshal tree: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt tree: %w", err)
	}

	// Name and nodes stay hidden; timestamps remain visible for housekeeping.
	envelope := &domain.Tree{
		ID:          tree.ID,
		Name:        tree.ID,
		Description: envelopePrefix + base64.StdEncoding.EncodeToString(ciphertext),
		CreatedAt:   tree.CreatedAt,
		UpdatedAt:   tree.UpdatedAt,
		Nodes:       []domain.Node{},
	}
	return m.next.SaveTree(ctx, envelope)
}

func (m *encryptionMiddleware) GetTree(ctx context.Context, id string) (*domain.Tree, error) {
	envelope, err := m.next.GetTree(ctx, id)
	if err != nil {
		return nil, err
	}

	encoded, ok := strings.CutPrefix(envelope.Description, envelopePrefix)
	if !ok {
		// Plain trees are refused once encryption is configured.
		return nil, fmt.Errorf("tree %s is missing encrypted data envelope", id)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt tree %s: %w", id, err)
	}

	var tree domain.Tree
	if err := json.Unmarshal(plainText, &tree); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted tree: %w", err)
	}
	return &tree, nil
}

func (m *encryptionMiddleware) DeleteTree(ctx context.Context, id string) error {
	return m.next.DeleteTree(ctx, id)
}

func (m *encryptionMiddleware) ListTrees(ctx context.Context) ([]string, error) {
	return m.next.ListTrees(ctx)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

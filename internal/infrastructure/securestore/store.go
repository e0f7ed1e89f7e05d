package securestore

import (
	"context"
	"encoding/json"
	"fmt"

	"adapta/internal/shared/logger"
)

// Backend persists sealed envelopes keyed by (namespace, key). Get returns
// ("", nil) for a missing key.
type Backend interface {
	Get(ctx context.Context, namespace, key string) (string, error)
	Set(ctx context.Context, namespace, key, envelope string) error
	Delete(ctx context.Context, namespace, key string) error
}

// Store is the encrypted session store. Values round-trip through JSON and
// an AES-GCM envelope. A record that fails to decrypt is treated as a miss
// and purged so a rotated secret or corrupted row never poisons reads.
type Store struct {
	cipher  *Cipher
	backend Backend
	logger  logger.Interface
}

func NewStore(cipher *Cipher, backend Backend, log logger.Interface) *Store {
	return &Store{
		cipher:  cipher,
		backend: backend,
		logger:  log.Named("securestore"),
	}
}

// Get loads and decrypts the record at key into dst. It returns false when
// the key is absent or the stored envelope cannot be authenticated.
func (s *Store) Get(ctx context.Context, namespace, key string, dst any) (bool, error) {
	envelope, err := s.backend.Get(ctx, namespace, key)
	if err != nil {
		return false, fmt.Errorf("failed to read record: %w", err)
	}
	if envelope == "" {
		return false, nil
	}

	plaintext, err := s.cipher.Open(envelope)
	if err != nil {
		s.logger.Warnw("discarding unreadable record", "namespace", namespace, "key", key, "error", err)
		if delErr := s.backend.Delete(ctx, namespace, key); delErr != nil {
			s.logger.Warnw("failed to purge unreadable record", "namespace", namespace, "key", key, "error", delErr)
		}
		return false, nil
	}

	if err := json.Unmarshal(plaintext, dst); err != nil {
		s.logger.Warnw("discarding malformed record", "namespace", namespace, "key", key, "error", err)
		if delErr := s.backend.Delete(ctx, namespace, key); delErr != nil {
			s.logger.Warnw("failed to purge malformed record", "namespace", namespace, "key", key, "error", delErr)
		}
		return false, nil
	}

	return true, nil
}

// Set seals value and writes it at key, replacing any previous record.
func (s *Store) Set(ctx context.Context, namespace, key string, value any) error {
	plaintext, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	envelope, err := s.cipher.Seal(plaintext)
	if err != nil {
		return fmt.Errorf("failed to seal record: %w", err)
	}

	if err := s.backend.Set(ctx, namespace, key, envelope); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Remove deletes the record at key. Removing an absent key is not an error.
func (s *Store) Remove(ctx context.Context, namespace, key string) error {
	if err := s.backend.Delete(ctx, namespace, key); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

package auth

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is lower than a password cost: API keys are long random strings.
const DefaultBcryptCost = bcrypt.DefaultCost

// maxRejectedKeys bounds the memory spent remembering bad keys.
const maxRejectedKeys = 1024

// HashAPIKey returns the bcrypt hash stored in API_KEY_HASHES.
func HashAPIKey(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", fmt.Errorf("api key is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(trimmed), DefaultBcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash api key: %w", err)
	}
	return string(hash), nil
}

// KeySet verifies presented API keys against a list of bcrypt hashes.
// Outcomes are remembered by SHA-256 digest so a key pays the bcrypt cost once.
type KeySet struct {
	hashes  [][]byte
	compare func(hash, key []byte) error

	mu       sync.RWMutex
	accepted map[[sha256.Size]byte]struct{}
	rejected map[[sha256.Size]byte]struct{}
}

func NewKeySet(hashes []string) (*KeySet, error) {
	set := &KeySet{
		hashes:   make([][]byte, 0, len(hashes)),
		compare:  bcrypt.CompareHashAndPassword,
		accepted: make(map[[sha256.Size]byte]struct{}),
		rejected: make(map[[sha256.Size]byte]struct{}),
	}
	for i, hash := range hashes {
		trimmed := strings.TrimSpace(hash)
		if trimmed == "" {
			continue
		}
		if _, err := bcrypt.Cost([]byte(trimmed)); err != nil {
			return nil, fmt.Errorf("api key hash %d: %w", i, err)
		}
		set.hashes = append(set.hashes, []byte(trimmed))
	}
	return set, nil
}

// Empty reports whether no hashes are configured.
func (s *KeySet) Empty() bool {
	return s == nil || len(s.hashes) == 0
}

func (s *KeySet) Verify(key string) bool {
	trimmed := strings.TrimSpace(key)
	if s.Empty() || trimmed == "" {
		return false
	}

	digest := sha256.Sum256([]byte(trimmed))
	s.mu.RLock()
	_, ok := s.accepted[digest]
	_, bad := s.rejected[digest]
	s.mu.RUnlock()
	if ok {
		return true
	}
	if bad {
		return false
	}

	valid := false
	for _, hash := range s.hashes {
		if s.compare(hash, []byte(trimmed)) == nil {
			valid = true
			break
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if valid {
		s.accepted[digest] = struct{}{}
		return true
	}
	if len(s.rejected) >= maxRejectedKeys {
		clear(s.rejected)
	}
	s.rejected[digest] = struct{}{}
	return false
}

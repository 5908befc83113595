// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package token_store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rapidaai/interview/pkg/commons"
)

// tokenFileName is the well-known credential key. One credential per
// installation; logging in again overwrites it.
const tokenFileName = "token"

// Store persists the backend bearer token across process restarts.
//
// An absent or expired token means "not logged in" — Load reports it as an
// empty string, never as an error, so callers can degrade to anonymous
// requests without branching on error causes.
type Store interface {
	// Save writes the bearer token, replacing any previous one.
	Save(token string) error

	// Load returns the stored token, or "" when none is stored or the
	// stored one has already expired.
	Load() string

	// Clear removes the stored token. Clearing an absent token is a no-op.
	Clear() error
}

type fileStore struct {
	logger commons.Logger
	path   string

	mu sync.Mutex
}

// NewStore creates a token store rooted at dir. The directory is created
// lazily on first Save.
func NewStore(logger commons.Logger, dir string) Store {
	return &fileStore{
		logger: logger,
		path:   filepath.Join(dir, tokenFileName),
	}
}

func (s *fileStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("token store: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("token store: %w", err)
	}
	s.logger.Debugf("token store: credential saved at %s", s.path)
	return nil
}

func (s *fileStore) Load() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return ""
	}
	if expired(token) {
		s.logger.Debugf("token store: stored credential expired, treating as logged out")
		return ""
	}
	return token
}

func (s *fileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("token store: %w", err)
	}
	return nil
}

// expired inspects the exp claim without verifying the signature; the
// backend remains the authority, this only avoids sending a credential we
// already know is dead. Tokens that do not parse as JWTs are treated as
// opaque and kept.
func expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return false
	}
	return expiry.Before(time.Now())
}

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"

	"github.com/nerudesu/PlayPulse/internal/db"
)

// TokenStore persists the OAuth token between process restarts.
// Load returns (nil, nil) when nothing has been stored yet.
type TokenStore interface {
	Load(ctx context.Context) (*oauth2.Token, error)
	Save(ctx context.Context, token *oauth2.Token) error
	Delete(ctx context.Context) error
}

// ============================================================================
// File Store
// ============================================================================

// FileStore keeps the token in a JSON file readable only by the owner.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file path where the token is stored.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the cached token from disk.
// Returns (nil, nil) if the token file does not exist.
func (s *FileStore) Load(_ context.Context) (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("parsing token file: %w", err)
	}

	return &token, nil
}

// Save writes the token to disk, creating the parent directory if needed.
func (s *FileStore) Save(_ context.Context, token *oauth2.Token) error {
	if token == nil {
		return errors.New("cannot save nil token")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}

	return nil
}

// Delete removes the token file. Returns nil if the file does not exist.
func (s *FileStore) Delete(_ context.Context) error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}

// ============================================================================
// Database Store
// ============================================================================

// DBStore keeps the token in PostgreSQL, one row per Spotify client id.
type DBStore struct {
	database *db.DB
	clientID string
}

// NewDBStore creates a database-backed token store for clientID.
func NewDBStore(database *db.DB, clientID string) *DBStore {
	return &DBStore{database: database, clientID: clientID}
}

// Load reads the stored token. Returns (nil, nil) if no row exists.
func (s *DBStore) Load(ctx context.Context) (*oauth2.Token, error) {
	row, err := s.database.Tokens().Get(ctx, s.clientID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &oauth2.Token{
		AccessToken:  row.AccessToken,
		TokenType:    row.TokenType,
		RefreshToken: row.RefreshToken,
		Expiry:       row.Expiry,
	}, nil
}

// Save upserts the token row.
func (s *DBStore) Save(ctx context.Context, token *oauth2.Token) error {
	if token == nil {
		return errors.New("cannot save nil token")
	}

	return s.database.Tokens().Upsert(ctx, &db.Token{
		ClientID:     s.clientID,
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	})
}

// Delete removes the token row.
func (s *DBStore) Delete(ctx context.Context) error {
	return s.database.Tokens().Delete(ctx, s.clientID)
}

// Ensure both stores implement TokenStore.
var (
	_ TokenStore = (*FileStore)(nil)
	_ TokenStore = (*DBStore)(nil)
)

package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

// openTestDB connects to TEST_DATABASE_URL or skips the test.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	database, err := New(context.Background(), url)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(database.Close)
	return database
}

func TestTokenRepository_RoundTrip(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	repo := database.Tokens()
	clientID := "test-client-" + time.Now().Format("150405.000000")
	t.Cleanup(func() { _ = repo.Delete(ctx, clientID) })

	if _, err := repo.Get(ctx, clientID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() before insert error = %v, want ErrNotFound", err)
	}

	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond)
	if err := repo.Upsert(ctx, &Token{
		ClientID:     clientID,
		AccessToken:  "first",
		RefreshToken: "refresh",
		Expiry:       expiry,
	}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if err := repo.Upsert(ctx, &Token{
		ClientID:     clientID,
		AccessToken:  "second",
		RefreshToken: "refresh",
		Expiry:       expiry,
	}); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	got, err := repo.Get(ctx, clientID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.AccessToken != "second" {
		t.Errorf("AccessToken = %q, want second", got.AccessToken)
	}
	if got.TokenType != "Bearer" {
		t.Errorf("TokenType = %q, want Bearer", got.TokenType)
	}
	if !got.Expiry.Equal(expiry) {
		t.Errorf("Expiry = %v, want %v", got.Expiry, expiry)
	}

	if err := repo.Delete(ctx, clientID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Get(ctx, clientID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}

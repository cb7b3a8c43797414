package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"propvest/internal/domain"
)

type TokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// HashToken is the stored form of a plain token secret.
func HashToken(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// FindByPlainToken resolves "<id>|<secret>" or a bare secret to an unexpired token.
func (r *TokenRepository) FindByPlainToken(ctx context.Context, plain string) (*domain.APIToken, error) {
	plain = strings.TrimSpace(plain)
	if plain == "" {
		return nil, errors.New("empty token")
	}

	secret := plain
	var id *int64
	if idx := strings.Index(plain, "|"); idx > 0 {
		if v, err := strconv.ParseInt(plain[:idx], 10, 64); err == nil {
			id = &v
			secret = plain[idx+1:]
		}
	}
	hash := HashToken(secret)

	var (
		t   domain.APIToken
		err error
	)
	if id != nil {
		err = r.db.QueryRowContext(ctx, `
			SELECT id, user_id, name, token_hash, expires_at
			FROM api_tokens
			WHERE id = $1 AND token_hash = $2 AND (expires_at IS NULL OR expires_at > $3)`,
			*id, hash, time.Now(),
		).Scan(&t.ID, &t.UserID, &t.Name, &t.TokenHash, &t.ExpiresAt)
	} else {
		err = r.db.QueryRowContext(ctx, `
			SELECT id, user_id, name, token_hash, expires_at
			FROM api_tokens
			WHERE token_hash = $1 AND (expires_at IS NULL OR expires_at > $2)
			ORDER BY created_at DESC
			LIMIT 1`,
			hash, time.Now(),
		).Scan(&t.ID, &t.UserID, &t.Name, &t.TokenHash, &t.ExpiresAt)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find token: %w", err)
	}
	return &t, nil
}

// Touch records the last time a token authenticated a request.
func (r *TokenRepository) Touch(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE api_tokens SET last_used_at = $1 WHERE id = $2`, time.Now(), id)
	return err
}

package tokenstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	redisv9 "github.com/redis/go-redis/v9"
)

const tokenBytes = 20

// TokenStore keeps one opaque token per user in redis. Both directions are
// stored so lookups by token and reuse by user are single GETs.
type TokenStore struct {
	client *redisv9.Client
}

func New(client *redisv9.Client) *TokenStore {
	return &TokenStore{client: client}
}

// GetOrCreate returns the user's token, minting one on first use. Concurrent
// callers for the same user converge on a single token via SETNX.
func (s *TokenStore) GetOrCreate(ctx context.Context, userID uint) (string, error) {
	userKey := s.userKey(userID)

	existing, err := s.client.Get(ctx, userKey).Result()
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, redisv9.Nil) {
		return "", fmt.Errorf("redis get user token failed: %w", err)
	}

	token, err := newToken()
	if err != nil {
		return "", err
	}

	// the token index is written first so a token visible under the user key
	// always resolves
	if err := s.client.Set(ctx, s.tokenKey(token), userID, 0).Err(); err != nil {
		return "", fmt.Errorf("redis set token failed: %w", err)
	}
	won, err := s.client.SetNX(ctx, userKey, token, 0).Result()
	if err != nil {
		return "", fmt.Errorf("redis set user token failed: %w", err)
	}
	if won {
		return token, nil
	}

	_ = s.client.Del(ctx, s.tokenKey(token)).Err()
	existing, err = s.client.Get(ctx, userKey).Result()
	if err != nil {
		return "", fmt.Errorf("redis get user token failed: %w", err)
	}
	return existing, nil
}

// Lookup resolves a token to its user id. ok is false for unknown tokens.
func (s *TokenStore) Lookup(ctx context.Context, token string) (userID uint, ok bool, err error) {
	raw, err := s.client.Get(ctx, s.tokenKey(token)).Result()
	if errors.Is(err, redisv9.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get token failed: %w", err)
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse token owner %q failed: %w", raw, err)
	}
	return uint(id), true, nil
}

func (s *TokenStore) tokenKey(token string) string {
	return "auth:token:" + token
}

func (s *TokenStore) userKey(userID uint) string {
	return fmt.Sprintf("auth:user:%d:token", userID)
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token failed: %w", err)
	}
	return hex.EncodeToString(b), nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"quiz-duel-service/internal/domain"
)

const codeUniqueViolation = "23505"

// CredentialStore keeps user accounts in postgres with bcrypt password
// hashes. It implements app.CredentialStore and app.UserDirectory.
type CredentialStore struct {
	pool *pgxpool.Pool
}

func NewCredentialStore(pool *pgxpool.Pool) *CredentialStore {
	return &CredentialStore{pool: pool}
}

func (s *CredentialStore) Create(ctx context.Context, username, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	var id int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING user_id`,
		username, string(hash)).Scan(&id)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return "", domain.ErrUsernameTaken
	}
	if err != nil {
		return "", fmt.Errorf("insert user: %w", err)
	}
	return strconv.FormatInt(id, 10), nil
}

func (s *CredentialStore) Verify(ctx context.Context, username, password string) (string, error) {
	var (
		id   int64
		hash string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, password_hash FROM users WHERE username = $1`,
		username).Scan(&id, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("select user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", domain.ErrInvalidCredentials
	}
	return strconv.FormatInt(id, 10), nil
}

func (s *CredentialStore) Username(ctx context.Context, userID string) (string, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return "", domain.ErrUserNotFound
	}

	var username string
	err = s.pool.QueryRow(ctx,
		`SELECT username FROM users WHERE user_id = $1`, id).Scan(&username)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select username: %w", err)
	}
	return username, nil
}

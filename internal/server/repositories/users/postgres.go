package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"recordkeeper/internal/common"
	"recordkeeper/internal/dbx"
	"recordkeeper/internal/server/models"
)

// PostgresRepository implements user storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const uniqueViolation = "23505"

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrLoginAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, custom_claims, created_at FROM users
		WHERE email = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, custom_claims, created_at FROM users
		WHERE id = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var rawClaims []byte
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &rawClaims, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if len(rawClaims) > 0 {
		if err := json.Unmarshal(rawClaims, &user.Claims); err != nil {
			return nil, fmt.Errorf("decode claims: %w", err)
		}
	}
	return user, nil
}

func (r *PostgresRepository) GetClaims(ctx context.Context, userID string) (models.CustomClaims, error) {
	query := `
		SELECT custom_claims FROM users
		WHERE id = $1
	`
	var raw []byte
	claims := models.CustomClaims{}
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return claims, common.ErrNotFound
		}
		return claims, fmt.Errorf("db error: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &claims); err != nil {
			return claims, fmt.Errorf("decode claims: %w", err)
		}
	}
	return claims, nil
}

func (r *PostgresRepository) SetClaims(ctx context.Context, userID string, claims models.CustomClaims) error {
	encoded, err := json.Marshal(claims)
	if err != nil {
		return fmt.Errorf("encode claims: %w", err)
	}

	query := `
		UPDATE users SET custom_claims = $2::jsonb
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, userID, encoded)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

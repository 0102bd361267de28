package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tiffin/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the authoritative store for users, price settings and
// meal records. It guarantees per-row atomicity (single-statement upserts and
// updates) and nothing across rows; bulk scheduling relies on exactly that.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const userColumns = "id, email, name, mobile, role, created_at"

func scanUser(row interface{ Scan(...any) error }) (core.User, error) {
	var u core.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Mobile, &role, &u.CreatedAt); err != nil {
		return core.User{}, err
	}
	u.Role = core.Role(role)
	return u, nil
}

// CreateUser inserts a new user. A duplicate email is reported as
// core.ErrEmailTaken.
func (r *SQLiteRepository) CreateUser(ctx context.Context, email, name, passwordHash string, role core.Role) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (email, name, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+userColumns,
		email, name, passwordHash, string(role), time.Now().UTC())
	u, err := scanUser(row)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.User{}, core.ErrEmailTaken
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns the user and its password hash.
func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, string, error) {
	var u core.User
	var role, hash string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, mobile, role, created_at, password_hash
		FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.Name, &u.Mobile, &role, &u.CreatedAt, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, "", core.ErrNotFound
	}
	if err != nil {
		return core.User{}, "", fmt.Errorf("get user by email: %w", err)
	}
	u.Role = core.Role(role)
	return u, hash, nil
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) UpdateUserProfile(ctx context.Context, id int64, name, mobile string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE users SET name = ?, mobile = ? WHERE id = ?
		RETURNING `+userColumns, name, mobile, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("update user profile: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetPriceSetting returns core.ErrNotFound when the user has no row yet;
// callers decide whether absence means "create defaults" or "price is zero".
func (r *SQLiteRepository) GetPriceSetting(ctx context.Context, userID int64) (core.PriceSetting, error) {
	var p core.PriceSetting
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, breakfast_paise, lunch_paise, dinner_paise, custom_paise, updated_at
		FROM price_settings WHERE user_id = ?`, userID).
		Scan(&p.UserID, &p.Breakfast.Paise, &p.Lunch.Paise, &p.Dinner.Paise, &p.Custom.Paise, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PriceSetting{}, core.ErrNotFound
	}
	if err != nil {
		return core.PriceSetting{}, fmt.Errorf("get price setting: %w", err)
	}
	return p, nil
}

// EnsurePriceSetting lazily creates the zero-priced row on first access.
func (r *SQLiteRepository) EnsurePriceSetting(ctx context.Context, userID int64) (core.PriceSetting, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO price_settings (user_id, updated_at) VALUES (?, ?)
		ON CONFLICT (user_id) DO NOTHING`, userID, time.Now().UTC())
	if err != nil {
		return core.PriceSetting{}, fmt.Errorf("ensure price setting: %w", err)
	}
	return r.GetPriceSetting(ctx, userID)
}

// SavePriceSetting writes the full setting row for a user.
func (r *SQLiteRepository) SavePriceSetting(ctx context.Context, p core.PriceSetting) (core.PriceSetting, error) {
	var out core.PriceSetting
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO price_settings (user_id, breakfast_paise, lunch_paise, dinner_paise, custom_paise, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			breakfast_paise = excluded.breakfast_paise,
			lunch_paise = excluded.lunch_paise,
			dinner_paise = excluded.dinner_paise,
			custom_paise = excluded.custom_paise,
			updated_at = excluded.updated_at
		RETURNING user_id, breakfast_paise, lunch_paise, dinner_paise, custom_paise, updated_at`,
		p.UserID, p.Breakfast.Paise, p.Lunch.Paise, p.Dinner.Paise, p.Custom.Paise, time.Now().UTC()).
		Scan(&out.UserID, &out.Breakfast.Paise, &out.Lunch.Paise, &out.Dinner.Paise, &out.Custom.Paise, &out.UpdatedAt)
	if err != nil {
		return core.PriceSetting{}, fmt.Errorf("save price setting: %w", err)
	}
	return out, nil
}

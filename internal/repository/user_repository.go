package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/omraut/carbon-terminal/internal/model"
	"github.com/omraut/carbon-terminal/internal/utils"
)

// Credential mirrors the 'credentials' table. It is the identity half of an
// account; the visible half lives in 'profiles' and is written separately.
type Credential struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type CredentialRepo struct{ DB *sql.DB }

func NewCredentialRepo(db *sql.DB) *CredentialRepo { return &CredentialRepo{DB: db} }

// Create inserts a credential row and returns the generated user ID.
func (r *CredentialRepo) Create(ctx context.Context, email, password string, cost int) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO credentials (id, email, password_hash) VALUES (?,?,?)",
		id, email, hash)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return "", ErrEmailExists
		}
		return "", err
	}
	return id, nil
}

// GetByEmail fetches a credential by normalized email.
func (r *CredentialRepo) GetByEmail(ctx context.Context, email string) (Credential, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var c Credential
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,created_at FROM credentials WHERE email=? LIMIT 1",
		email).Scan(&c.ID, &c.Email, &c.PasswordHash, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Credential{}, ErrNotFound
	}
	return c, err
}

// ProfileRepo mirrors the 'profiles' table holding the account's visible
// identity and stored role.
type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

// Upsert writes the profile row for a user, creating or refreshing it. The
// stored role is only written on first insert; role changes go through
// UpdateRole so an ordinary re-login cannot reset an assignment.
func (r *ProfileRepo) Upsert(ctx context.Context, u model.UserRecord) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO profiles (id, full_name, email, phone, role, provider, created_at)
		 VALUES (?,?,?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE full_name=VALUES(full_name), phone=VALUES(phone)`,
		u.ID, u.Name, strings.ToLower(strings.TrimSpace(u.Email)), u.Phone,
		string(u.Role), string(u.Provider), u.CreatedAt.UTC())
	return err
}

// GetByID fetches a profile by user id.
func (r *ProfileRepo) GetByID(ctx context.Context, id string) (model.UserRecord, error) {
	return r.getOne(ctx, "SELECT id,full_name,email,phone,role,provider,created_at FROM profiles WHERE id=? LIMIT 1", id)
}

// GetByEmail fetches a profile by normalized email.
func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (model.UserRecord, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getOne(ctx, "SELECT id,full_name,email,phone,role,provider,created_at FROM profiles WHERE email=? LIMIT 1", email)
}

func (r *ProfileRepo) getOne(ctx context.Context, query string, arg any) (model.UserRecord, error) {
	var (
		u        model.UserRecord
		role     string
		provider string
	)
	err := r.DB.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &role, &provider, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.UserRecord{}, ErrNotFound
	}
	if err != nil {
		return model.UserRecord{}, err
	}
	u.Role = model.ParseRole(role)
	u.Provider = model.Provider(provider)
	return u, nil
}

// List returns all profiles, newest first.
func (r *ProfileRepo) List(ctx context.Context) ([]model.UserRecord, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,full_name,email,phone,role,provider,created_at FROM profiles ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.UserRecord
	for rows.Next() {
		var (
			u        model.UserRecord
			role     string
			provider string
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &role, &provider, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.Role = model.ParseRole(role)
		u.Provider = model.Provider(provider)
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateRole assigns a stored role to a user.
func (r *ProfileRepo) UpdateRole(ctx context.Context, id string, role model.Role) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE profiles SET role=? WHERE id=?", string(role), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

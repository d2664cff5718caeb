package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"account_service/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

var (
	// ErrDuplicateUser is returned when the email or phone unique constraint rejects a write
	ErrDuplicateUser = errors.New("user with this email or phone already exists")
	// ErrNotFound is returned when an update or delete matched no row
	ErrNotFound = errors.New("user not found")
)

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository defines operations for user data
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id int) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByIdentifier(ctx context.Context, identifier string) (*model.User, error)
	FindByEmailOrPhone(ctx context.Context, email, phone string) (*model.User, error)
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error)
	ExistsOtherWithEmailOrPhone(ctx context.Context, excludeID int, email, phone string) (bool, error)
	FindAll(ctx context.Context) ([]model.UserSummary, error)
	UpdateProfile(ctx context.Context, id int, name, email, phone string) error
	UpdateProfileImage(ctx context.Context, id int, image string) error
	SetResetToken(ctx context.Context, id int, tokenHash string, expire time.Time) error
	ConsumeResetToken(ctx context.Context, id int, tokenHash, passwordHash string) error
	Delete(ctx context.Context, id int) error
}

type userRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, phone, password_hash, role, profile_image,
	reset_password_token, reset_password_expire, token_version, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.Phone, &user.PasswordHash, &user.Role, &user.ProfileImage,
		&user.ResetPasswordToken, &user.ResetPasswordExpire, &user.TokenVersion, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// findOne returns (nil, nil) when no row matches; the service layer decides what that means
func (r *userRepository) findOne(ctx context.Context, what string, sql string, args ...any) (*model.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by %s: %w", what, err)
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Create inserts a new user; id, profile image and timestamps come back from the store
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	sql := `INSERT INTO users (name, email, phone, password_hash, role)
            VALUES ($1, $2, $3, $4, $5) RETURNING id, profile_image, token_version, created_at, updated_at`
	err := r.db.QueryRow(ctx, sql, user.Name, user.Email, user.Phone, user.PasswordHash, user.Role).
		Scan(&user.ID, &user.ProfileImage, &user.TokenVersion, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByID retrieves a user by their ID
func (r *userRepository) FindByID(ctx context.Context, id int) (*model.User, error) {
	return r.findOne(ctx, "ID", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByEmail retrieves a user by email
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "email", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// FindByIdentifier matches the login identifier against email or phone
func (r *userRepository) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	return r.findOne(ctx, "identifier", `SELECT `+userColumns+` FROM users WHERE email = $1 OR phone = $1 LIMIT 1`, identifier)
}

// FindByEmailOrPhone is the registration pre-check
func (r *userRepository) FindByEmailOrPhone(ctx context.Context, email, phone string) (*model.User, error) {
	return r.findOne(ctx, "email or phone", `SELECT `+userColumns+` FROM users WHERE email = $1 OR phone = $2 LIMIT 1`, email, phone)
}

// FindByResetToken returns the user holding a pending, unexpired reset token hash
func (r *userRepository) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	return r.findOne(ctx, "reset token",
		`SELECT `+userColumns+` FROM users WHERE reset_password_token = $1 AND reset_password_expire > $2`,
		tokenHash, now)
}

// ExistsOtherWithEmailOrPhone reports whether a different user already owns email or phone
func (r *userRepository) ExistsOtherWithEmailOrPhone(ctx context.Context, excludeID int, email, phone string) (bool, error) {
	sql := `SELECT EXISTS (SELECT 1 FROM users WHERE (email = $1 OR phone = $2) AND id <> $3)`
	var exists bool
	if err := r.db.QueryRow(ctx, sql, email, phone, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check identifier uniqueness: %w", err)
	}
	return exists, nil
}

// FindAll lists every user without credential or reset fields
func (r *userRepository) FindAll(ctx context.Context) ([]model.UserSummary, error) {
	sql := `SELECT id, name, email, phone, role, profile_image, created_at, updated_at FROM users ORDER BY id`
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []model.UserSummary{}
	for rows.Next() {
		var u model.UserSummary
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.ProfileImage, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

func (r *userRepository) execOne(ctx context.Context, what string, sql string, args ...any) error {
	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProfile changes the mutable identity fields; role is never touched here
func (r *userRepository) UpdateProfile(ctx context.Context, id int, name, email, phone string) error {
	return r.execOne(ctx, "update profile",
		`UPDATE users SET name = $1, email = $2, phone = $3 WHERE id = $4`,
		name, email, phone, id)
}

// UpdateProfileImage stores the new image file name
func (r *userRepository) UpdateProfileImage(ctx context.Context, id int, image string) error {
	return r.execOne(ctx, "update profile image",
		`UPDATE users SET profile_image = $1 WHERE id = $2`, image, id)
}

// SetResetToken records a pending reset, replacing any earlier one
func (r *userRepository) SetResetToken(ctx context.Context, id int, tokenHash string, expire time.Time) error {
	return r.execOne(ctx, "set reset token",
		`UPDATE users SET reset_password_token = $1, reset_password_expire = $2 WHERE id = $3`,
		tokenHash, expire, id)
}

// ConsumeResetToken sets the new password hash, clears the reset fields and
// bumps token_version. The token hash is re-checked in the WHERE clause so a
// token can only be spent once.
func (r *userRepository) ConsumeResetToken(ctx context.Context, id int, tokenHash, passwordHash string) error {
	return r.execOne(ctx, "reset password",
		`UPDATE users SET password_hash = $1, reset_password_token = NULL, reset_password_expire = NULL,
            token_version = token_version + 1
            WHERE id = $2 AND reset_password_token = $3`,
		passwordHash, id, tokenHash)
}

// Delete removes a user
func (r *userRepository) Delete(ctx context.Context, id int) error {
	return r.execOne(ctx, "delete user", `DELETE FROM users WHERE id = $1`, id)
}

package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/realtimemaps-be/internal/auth"
	"github.com/isdelr/realtimemaps-be/internal/database"
	"github.com/isdelr/realtimemaps-be/internal/models"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Signup(ctx context.Context, payload models.UserCreate) (models.User, error)
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	Authenticate(ctx context.Context, email, password string) (models.User, error)
}

// UserService provides business logic for user management.
type UserService struct {
	db     *database.DB
	hasher *auth.Hasher
	now    func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(db *database.DB, hasher *auth.Hasher) *UserService {
	return &UserService{db: db, hasher: hasher, now: time.Now}
}

const userColumns = "id, email, phone, hashed_password, display_name, created_at"

func scanUser(scanner rowScanner) (models.User, error) {
	var user models.User
	err := scanner.Scan(&user.ID, &user.Email, &user.Phone, &user.PasswordHash, &user.DisplayName, &user.CreatedAt)
	return user, err
}

// Signup registers a new user. The email, if given, must not be taken; the
// password, if given, is stored as a bcrypt hash. Exactly one row is inserted
// on success and none on conflict. A taken email is reported before any
// hashing work is done.
//
// The existence check is not serialized with the insert; the unique index on
// users.email rejects a concurrent duplicate, which surfaces as a plain error.
func (s *UserService) Signup(ctx context.Context, payload models.UserCreate) (models.User, error) {
	user := models.User{
		Phone:       nullable(payload.Phone),
		DisplayName: nullable(payload.DisplayName),
		CreatedAt:   s.now().UTC(),
	}
	if payload.Email != nil {
		user.Email = nullable(*payload.Email)
	}

	err := s.db.WithSession(ctx, func(ctx context.Context, sess *database.Session) error {
		if user.Email != nil {
			var existing int64
			err := sess.QueryRowContext(ctx, "SELECT id FROM users WHERE email = ?", *user.Email).Scan(&existing)
			if err == nil {
				return ErrEmailExists
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("check email: %w", err)
			}
		}

		if payload.Password != "" {
			hashed, err := s.hasher.HashPassword(payload.Password)
			if err != nil {
				return err
			}
			user.PasswordHash = &hashed
		}

		var id int64
		err := sess.QueryRowContext(ctx,
			"INSERT INTO users (email, phone, hashed_password, display_name, created_at) VALUES (?, ?, ?, ?, ?) RETURNING id",
			user.Email, user.Phone, user.PasswordHash, user.DisplayName, user.CreatedAt,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}

		// Refresh so the caller sees exactly what was stored.
		user, err = scanUser(sess.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
		if err != nil {
			return fmt.Errorf("refresh user: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	var user models.User
	err := s.db.WithSession(ctx, func(ctx context.Context, sess *database.Session) error {
		var err error
		user, err = scanUser(sess.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return err
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Authenticate checks an email/password pair against the stored hash. A user
// without a stored hash can never authenticate.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	var user models.User
	err := s.db.WithSession(ctx, func(ctx context.Context, sess *database.Session) error {
		var err error
		user, err = scanUser(sess.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load user: %w", err)
	}

	var digest string
	if user.PasswordHash != nil {
		digest = *user.PasswordHash
	}
	if !s.hasher.VerifyPassword(password, digest) {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// userExists reports whether a user row with id exists.
func userExists(ctx context.Context, sess *database.Session, id int64) (bool, error) {
	var one int
	err := sess.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

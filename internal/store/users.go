package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrDuplicateEmail = errors.New("a user with that email already exists")
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

type User struct {
	ID                   int64           `json:"id"`
	Name                 string          `json:"name"`
	Email                string          `json:"email"`
	Password             password        `json:"-"`
	ProfilePictureURL    sql.NullString  `json:"profile_picture_url" swaggertype:"string"`
	NotificationRadiusKm sql.NullFloat64 `json:"notification_radius_km" swaggertype:"number"`
	Latitude             sql.NullFloat64 `json:"latitude" swaggertype:"number"`  // Saved home location
	Longitude            sql.NullFloat64 `json:"longitude" swaggertype:"number"` // Saved home location
	RefreshToken         string          `json:"-"`                              // Sensitive data
	ResetPasswordToken   string          `json:"-"`                              // Sensitive data
	ResetPasswordExpires time.Time       `json:"-"`                              // Internal use only
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// Password struct to store plain text and hash
type password struct {
	text *string `json:"-"`
	hash []byte  `json:"-"`
}

func (p *password) Set(text string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(text), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	p.text = &text
	p.hash = hash

	return nil
}

func (p *password) Compare(text string) error {
	return bcrypt.CompareHashAndPassword(p.hash, []byte(text))
}

func (p *password) Hash() []byte {
	return p.hash
}

type UsersStore struct {
	db *sql.DB
}

func (s *UsersStore) Create(ctx context.Context, user *User) error {
	query := `
	  INSERT INTO users (name, email, password)
	  VALUES ($1, $2, $3)
	  RETURNING id, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRowContext(
		ctx, query, user.Name, user.Email, user.Password.hash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

const userColumns = `
	id, name, email, password,
	profile_picture_url, notification_radius_km, latitude, longitude,
	refresh_token, created_at, updated_at`

func (s *UsersStore) scanUser(row *sql.Row) (*User, error) {
	var user User
	var refreshToken sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Password.hash,
		&user.ProfilePictureURL,
		&user.NotificationRadiusKm,
		&user.Latitude,
		&user.Longitude,
		&refreshToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	user.RefreshToken = refreshToken.String
	return &user, nil
}

func (s *UsersStore) GetByID(ctx context.Context, userID int64) (*User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.scanUser(s.db.QueryRowContext(ctx, query, userID))
}

func (s *UsersStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE email = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *UsersStore) UpdateUser(ctx context.Context, userID int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	setClauses := make([]string, 0, len(updates)+1)
	args := make([]interface{}, 0, len(updates)+1)
	i := 1
	for column, value := range updates {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, i))
		args = append(args, value)
		i++
	}
	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, userID)

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(setClauses, ", "), i)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UsersStore) SetProfilePicture(ctx context.Context, userID int64, url string) error {
	query := `UPDATE users SET profile_picture_url = $1, updated_at = NOW() WHERE id = $2`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.ExecContext(ctx, query, url, userID)
	return err
}

func (s *UsersStore) GetProfilePictureURL(ctx context.Context, userID int64) (string, error) {
	query := `SELECT profile_picture_url FROM users WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var url sql.NullString
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&url)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return url.String, nil
}

func (s *UsersStore) SetRefreshToken(ctx context.Context, userID int64, token string) error {
	query := `UPDATE users SET refresh_token = $1, updated_at = NOW() WHERE id = $2`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.ExecContext(ctx, query, token, userID)
	return err
}

func (s *UsersStore) ClearRefreshToken(ctx context.Context, userID int64) error {
	query := `UPDATE users SET refresh_token = NULL, updated_at = NOW() WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.ExecContext(ctx, query, userID)
	return err
}

func (s *UsersStore) SetResetToken(ctx context.Context, email, hashedToken string, expires time.Time) error {
	query := `
	UPDATE users
	SET reset_password_token = $1, reset_password_expires = $2, updated_at = NOW()
	WHERE email = $3`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.ExecContext(ctx, query, hashedToken, expires, email)
	if err != nil {
		return err
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UsersStore) GetByResetToken(ctx context.Context, hashedToken string) (*User, error) {
	query := `SELECT` + userColumns + `
	FROM users
	WHERE reset_password_token = $1 AND reset_password_expires > NOW()`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.scanUser(s.db.QueryRowContext(ctx, query, hashedToken))
}

func (s *UsersStore) ResetPassword(ctx context.Context, userID int64, hash []byte) error {
	query := `
	UPDATE users
	SET password = $1, reset_password_token = NULL, reset_password_expires = NULL,
	    updated_at = NOW()
	WHERE id = $2`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.ExecContext(ctx, query, hash, userID)
	return err
}

// Delete removes a user row. Games reference their creator, so an account
// that still owns games fails the foreign key and surfaces as ErrConflict.
func (s *UsersStore) Delete(ctx context.Context, userID int64) error {
	query := `DELETE FROM users WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	res, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return ErrConflict
		}
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func newUsersStore(t *testing.T) (*UsersStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &UsersStore{db}, mock
}

func TestPasswordSetAndCompare(t *testing.T) {
	var p password
	if err := p.Set("correct horse"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := p.Compare("correct horse"); err != nil {
		t.Errorf("Compare rejected the right password: %v", err)
	}
	if err := p.Compare("wrong battery"); err == nil {
		t.Error("Compare accepted the wrong password")
	}
}

func TestUsersStoreCreate(t *testing.T) {
	s, mock := newUsersStore(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Sam", "sam@example.com", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(9), now, now))

	user := &User{Name: "Sam", Email: "sam@example.com"}
	if err := user.Password.Set("secret"); err != nil {
		t.Fatal(err)
	}
	if err := s.Create(context.Background(), user); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.ID != 9 {
		t.Errorf("ID not populated: %d", user.ID)
	}
}

func TestUsersStoreCreateDuplicateEmail(t *testing.T) {
	s, mock := newUsersStore(t)

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_email_key"})

	user := &User{Name: "Sam", Email: "sam@example.com"}
	if err := user.Password.Set("secret"); err != nil {
		t.Fatal(err)
	}
	err := s.Create(context.Background(), user)
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestUsersStoreGetByEmailNotFound(t *testing.T) {
	s, mock := newUsersStore(t)

	mock.ExpectQuery("SELECT(.|\n)+FROM users WHERE email = \\$1").
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUsersStoreSetResetTokenUnknownEmail(t *testing.T) {
	s, mock := newUsersStore(t)

	mock.ExpectExec("UPDATE users").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.SetResetToken(context.Background(), "nobody@example.com", "hash", time.Now().Add(time.Hour))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUsersStoreGetProfilePictureURL(t *testing.T) {
	s, mock := newUsersStore(t)

	mock.ExpectQuery("SELECT profile_picture_url FROM users").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"profile_picture_url"}).
			AddRow("https://res.cloudinary.com/demo/image/upload/v1/profile_pictures/user_9_1.png"))

	url, err := s.GetProfilePictureURL(context.Background(), 9)
	if err != nil {
		t.Fatalf("GetProfilePictureURL: %v", err)
	}
	if url == "" {
		t.Fatal("expected the stored URL back, got empty")
	}

	// NULL column comes back as the empty string, not an error.
	mock.ExpectQuery("SELECT profile_picture_url FROM users").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"profile_picture_url"}).AddRow(nil))

	url, err = s.GetProfilePictureURL(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetProfilePictureURL: %v", err)
	}
	if url != "" {
		t.Fatalf("url = %q, want empty", url)
	}
}

func TestUsersStoreDelete(t *testing.T) {
	s, mock := newUsersStore(t)

	mock.ExpectExec("DELETE FROM users").
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Delete(context.Background(), 9); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestUsersStoreDeleteOwnsGames(t *testing.T) {
	s, mock := newUsersStore(t)

	mock.ExpectExec("DELETE FROM users").
		WithArgs(int64(9)).
		WillReturnError(&pgconn.PgError{Code: foreignKeyViolation, ConstraintName: "games_creator_id_fkey"})

	err := s.Delete(context.Background(), 9)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestUsersStoreDeleteUnknownUser(t *testing.T) {
	s, mock := newUsersStore(t)

	mock.ExpectExec("DELETE FROM users").
		WithArgs(int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Delete(context.Background(), 404)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

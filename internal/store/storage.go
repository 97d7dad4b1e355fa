package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource already exists")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	Users interface {
		Create(context.Context, *User) error
		GetByID(context.Context, int64) (*User, error)
		GetByEmail(context.Context, string) (*User, error)
		UpdateUser(context.Context, int64, map[string]interface{}) error
		SetProfilePicture(context.Context, int64, string) error
		GetProfilePictureURL(context.Context, int64) (string, error)
		SetRefreshToken(context.Context, int64, string) error
		ClearRefreshToken(context.Context, int64) error
		SetResetToken(context.Context, string, string, time.Time) error
		GetByResetToken(context.Context, string) (*User, error)
		ResetPassword(context.Context, int64, []byte) error
		Delete(context.Context, int64) error
	}
	Games interface {
		Create(context.Context, *Game) error
		GetByID(context.Context, int64) (*Game, error)
		List(context.Context) ([]Game, error)
		Update(context.Context, int64, map[string]interface{}) error
		Delete(context.Context, int64) error
		IsCreator(context.Context, int64, int64) (bool, error)
		AdvanceRecurring(context.Context) (int64, error)
	}
	PushTokens interface {
		AddOrUpdateToken(context.Context, int64, string, []byte) error
		RemoveToken(context.Context, int64, string) error
		RemoveTokensByTokenList(context.Context, []string) error
		ListRecipients(context.Context) ([]Recipient, error)
	}
}

func NewStorage(db *sql.DB) Storage {
	return Storage{
		Users:      &UsersStore{db},
		Games:      &GameStore{db},
		PushTokens: &PushTokensStore{db},
	}
}

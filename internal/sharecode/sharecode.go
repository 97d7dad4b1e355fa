// Package sharecode turns game IDs into short opaque codes for invite links,
// so shared URLs don't expose sequential database IDs.
package sharecode

import (
	"errors"

	hashids "github.com/speps/go-hashids/v2"
)

var ErrInvalidCode = errors.New("invalid share code")

type Codec struct {
	h *hashids.HashID
}

func New(salt string) (*Codec, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = 8

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, err
	}
	return &Codec{h: h}, nil
}

func (c *Codec) Encode(gameID int64) (string, error) {
	return c.h.EncodeInt64([]int64{gameID})
}

func (c *Codec) Decode(code string) (int64, error) {
	ids, err := c.h.DecodeInt64WithError(code)
	if err != nil || len(ids) != 1 {
		return 0, ErrInvalidCode
	}
	return ids[0], nil
}

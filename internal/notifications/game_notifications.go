package notifications

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"pitchfinder/internal/geo"
	"pitchfinder/internal/store"

	"github.com/9ssi7/exponent"
)

// SendGameNearby notifies every user whose saved location and notification
// radius cover the new game. The game's creator is skipped; each recipient's
// own radius decides whether they hear about it.
func SendGameNearby(ctx context.Context, push PushSender, storage store.Storage, game *store.Game) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	recipients, err := storage.PushTokens.ListRecipients(ctx)
	if err != nil {
		return 0, err
	}

	title := "New game near you"
	body := fmt.Sprintf("%s on %s", game.Title, game.Date.Format("Mon Jan 2, 15:04"))
	screen := fmt.Sprintf("games/%s", strconv.FormatInt(game.ID, 10))

	msgs := make([]*exponent.Message, 0, len(recipients))
	seen := make(map[string]struct{}, len(recipients))
	for _, r := range recipients {
		if r.UserID == game.CreatorID {
			continue
		}
		if _, dup := seen[r.Token]; dup {
			continue
		}
		if geo.DistanceKm(r.Latitude, r.Longitude, game.Latitude, game.Longitude) > r.RadiusKm {
			continue
		}
		seen[r.Token] = struct{}{}

		token := exponent.Token(r.Token)
		msgs = append(msgs, &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: title,
			Body:  body,
			Data: map[string]string{
				"type":    "game_nearby",
				"game_id": strconv.FormatInt(game.ID, 10),
				"screen":  screen,
			},
		})
	}

	if len(msgs) == 0 {
		return 0, nil
	}

	var resps []*exponent.MessageResponse
	if len(msgs) == 1 {
		resps, err = push.PublishSingle(ctx, msgs[0])
	} else {
		resps, err = push.Publish(ctx, msgs)
	}
	if err != nil {
		return 0, err
	}

	if dead := deadTokens(resps); len(dead) > 0 {
		if err := storage.PushTokens.RemoveTokensByTokenList(ctx, dead); err != nil {
			return len(msgs), fmt.Errorf("pruning dead push tokens: %w", err)
		}
	}

	return len(msgs), nil
}

// deadTokens collects the tokens Expo reported as no longer registered, so
// the caller can drop them instead of pushing into the void forever.
func deadTokens(resps []*exponent.MessageResponse) []string {
	var dead []string
	for _, resp := range resps {
		if resp == nil || resp.IsOk() || resp.MessageItem == nil {
			continue
		}
		if exponent.ErrorMsg(resp.Details["error"]) != exponent.ErrorMsgDeviceNotRegistered {
			continue
		}
		for _, t := range resp.MessageItem.To {
			if t != nil {
				dead = append(dead, string(*t))
			}
		}
	}
	return dead
}

package notifications

import (
	"context"
	"testing"
	"time"

	"pitchfinder/internal/store"

	"github.com/9ssi7/exponent"
)

type fakePushSender struct {
	published       []*exponent.Message
	singlePublished []*exponent.Message
	respond         func(msgs []*exponent.Message) []*exponent.MessageResponse
}

func okResponses(msgs []*exponent.Message) []*exponent.MessageResponse {
	resps := make([]*exponent.MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		resps = append(resps, &exponent.MessageResponse{MessageItem: m, Status: "ok"})
	}
	return resps
}

func (f *fakePushSender) Publish(ctx context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error) {
	f.published = append(f.published, msgs...)
	return f.respond(msgs), nil
}

func (f *fakePushSender) PublishSingle(ctx context.Context, msg *exponent.Message) ([]*exponent.MessageResponse, error) {
	f.singlePublished = append(f.singlePublished, msg)
	return f.respond([]*exponent.Message{msg}), nil
}

type fakePushTokensStore struct {
	recipients []store.Recipient
	removed    []string
}

func (f *fakePushTokensStore) AddOrUpdateToken(ctx context.Context, userID int64, token string, deviceInfo []byte) error {
	return nil
}

func (f *fakePushTokensStore) RemoveToken(ctx context.Context, userID int64, token string) error {
	return nil
}

func (f *fakePushTokensStore) RemoveTokensByTokenList(ctx context.Context, tokens []string) error {
	f.removed = append(f.removed, tokens...)
	return nil
}

func (f *fakePushTokensStore) ListRecipients(ctx context.Context) ([]store.Recipient, error) {
	return f.recipients, nil
}

func testGame() *store.Game {
	return &store.Game{
		ID:        5,
		Title:     "Sunday Kickabout",
		Latitude:  37.7694,
		Longitude: -122.4862,
		Date:      time.Now().Add(24 * time.Hour),
		CreatorID: 1,
	}
}

func TestSendGameNearbyFiltersByRecipientRadius(t *testing.T) {
	tokens := &fakePushTokensStore{
		recipients: []store.Recipient{
			// The creator never hears about their own game.
			{UserID: 1, Token: "ExponentPushToken[creator]", Latitude: 37.7694, Longitude: -122.4862, RadiusKm: 50},
			// Close by and inside their radius.
			{UserID: 2, Token: "ExponentPushToken[near]", Latitude: 37.7706, Longitude: -122.4700, RadiusKm: 10},
			// Roughly 111 km north with a 50 km radius.
			{UserID: 3, Token: "ExponentPushToken[far]", Latitude: 38.7694, Longitude: -122.4862, RadiusKm: 50},
		},
	}
	push := &fakePushSender{respond: okResponses}
	storage := store.Storage{PushTokens: tokens}

	sent, err := SendGameNearby(context.Background(), push, storage, testGame())
	if err != nil {
		t.Fatalf("SendGameNearby: %v", err)
	}
	if sent != 1 {
		t.Fatalf("expected 1 notification, got %d", sent)
	}
	// A lone message goes through the single-publish path.
	if len(push.singlePublished) != 1 || len(push.published) != 0 {
		t.Fatalf("expected one single publish, got %d single / %d batch", len(push.singlePublished), len(push.published))
	}
	to := push.singlePublished[0].To
	if len(to) != 1 || *to[0] != "ExponentPushToken[near]" {
		t.Fatalf("unexpected recipient: %v", to)
	}
}

func TestSendGameNearbyPrunesDeadTokens(t *testing.T) {
	tokens := &fakePushTokensStore{
		recipients: []store.Recipient{
			{UserID: 2, Token: "ExponentPushToken[live]", Latitude: 37.7706, Longitude: -122.4700, RadiusKm: 10},
			{UserID: 3, Token: "ExponentPushToken[stale]", Latitude: 37.7600, Longitude: -122.4800, RadiusKm: 10},
		},
	}
	push := &fakePushSender{
		respond: func(msgs []*exponent.Message) []*exponent.MessageResponse {
			resps := make([]*exponent.MessageResponse, 0, len(msgs))
			for _, m := range msgs {
				resp := &exponent.MessageResponse{MessageItem: m, Status: "ok"}
				if *m.To[0] == "ExponentPushToken[stale]" {
					resp.Status = "error"
					resp.Details = exponent.Data{"error": string(exponent.ErrorMsgDeviceNotRegistered)}
				}
				resps = append(resps, resp)
			}
			return resps
		},
	}
	storage := store.Storage{PushTokens: tokens}

	sent, err := SendGameNearby(context.Background(), push, storage, testGame())
	if err != nil {
		t.Fatalf("SendGameNearby: %v", err)
	}
	if sent != 2 {
		t.Fatalf("expected 2 notifications, got %d", sent)
	}

	if len(tokens.removed) != 1 || tokens.removed[0] != "ExponentPushToken[stale]" {
		t.Fatalf("expected the stale token to be pruned, got %v", tokens.removed)
	}
}

func TestSendGameNearbySkipsDuplicateTokens(t *testing.T) {
	tokens := &fakePushTokensStore{
		recipients: []store.Recipient{
			{UserID: 2, Token: "ExponentPushToken[shared]", Latitude: 37.7706, Longitude: -122.4700, RadiusKm: 10},
			{UserID: 3, Token: "ExponentPushToken[shared]", Latitude: 37.7600, Longitude: -122.4800, RadiusKm: 10},
		},
	}
	push := &fakePushSender{respond: okResponses}
	storage := store.Storage{PushTokens: tokens}

	sent, err := SendGameNearby(context.Background(), push, storage, testGame())
	if err != nil {
		t.Fatalf("SendGameNearby: %v", err)
	}
	if sent != 1 {
		t.Fatalf("expected the duplicate token to collapse to 1 send, got %d", sent)
	}
}

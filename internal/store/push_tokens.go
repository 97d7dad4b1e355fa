package store

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
)

type PushTokensStore struct {
	db *sql.DB
}

// Recipient pairs an Expo push token with the owner's saved location and
// chosen notification radius, so callers can range-filter before sending.
type Recipient struct {
	UserID    int64
	Token     string
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}

// AddOrUpdateToken upserts token + device info and bumps last_updated.
func (s *PushTokensStore) AddOrUpdateToken(ctx context.Context, userID int64, token string, deviceInfo []byte) error {
	query := `
	INSERT INTO user_push_tokens (user_id, expo_push_token, device_info, last_updated)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (user_id, expo_push_token)
	DO UPDATE SET device_info = EXCLUDED.device_info, last_updated = NOW()`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.ExecContext(ctx, query, userID, token, deviceInfo)
	return err
}

func (s *PushTokensStore) RemoveToken(ctx context.Context, userID int64, token string) error {
	query := `DELETE FROM user_push_tokens WHERE user_id = $1 AND expo_push_token = $2`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.ExecContext(ctx, query, userID, token)
	return err
}

// RemoveTokensByTokenList drops tokens Expo reported as dead.
func (s *PushTokensStore) RemoveTokensByTokenList(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}

	query := `DELETE FROM user_push_tokens WHERE expo_push_token = ANY($1)`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.ExecContext(ctx, query, pq.Array(tokens))
	return err
}

// ListRecipients returns every token whose owner has both a saved location
// and a notification radius. Distance filtering happens in the caller.
func (s *PushTokensStore) ListRecipients(ctx context.Context) ([]Recipient, error) {
	query := `
	SELECT t.user_id, t.expo_push_token, u.latitude, u.longitude, u.notification_radius_km
	FROM user_push_tokens t
	JOIN users u ON t.user_id = u.id
	WHERE u.latitude IS NOT NULL
	  AND u.longitude IS NOT NULL
	  AND u.notification_radius_km IS NOT NULL
	  AND u.notification_radius_km > 0`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipients []Recipient
	for rows.Next() {
		var r Recipient
		if err := rows.Scan(&r.UserID, &r.Token, &r.Latitude, &r.Longitude, &r.RadiusKm); err != nil {
			return nil, err
		}
		recipients = append(recipients, r)
	}
	return recipients, rows.Err()
}

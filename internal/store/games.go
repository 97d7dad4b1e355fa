package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Game represents a pickup game as stored, with the creator profile joined in.
type Game struct {
	ID                  int64     `json:"id"`
	Title               string    `json:"title"`
	Description         *string   `json:"description,omitempty"`
	Location            string    `json:"location"`                // Address text shown on cards
	LocationName        *string   `json:"location_name,omitempty"` // Friendly place name (nullable)
	Latitude            float64   `json:"latitude"`
	Longitude           float64   `json:"longitude"`
	Date                time.Time `json:"date"` // Kickoff instant (timezone-aware)
	MaxPlayers          int       `json:"max_players"`
	MinPlayers          int       `json:"min_players"`
	SkillLevel          *string   `json:"skill_level,omitempty"` // beginner, intermediate, advanced
	WhatsappLink        *string   `json:"whatsapp_link,omitempty"`
	IsRecurring         bool      `json:"is_recurring"`
	RecurrenceFrequency *string   `json:"recurrence_frequency,omitempty"` // weekly or monthly
	CreatorID           int64     `json:"creator_id"`
	Creator             *Creator  `json:"creator,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Creator is the slice of the user profile exposed on a game.
type Creator struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type GameStore struct {
	db *sql.DB
}

func (s *GameStore) Create(ctx context.Context, game *Game) error {
	query := `
	 INSERT INTO games
	   (title, description, location, location_name, latitude, longitude, date,
	    max_players, min_players, skill_level, whatsapp_link, is_recurring,
	    recurrence_frequency, creator_id)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	 RETURNING id, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRowContext(ctx, query,
		game.Title,
		game.Description,
		game.Location,
		game.LocationName,
		game.Latitude,
		game.Longitude,
		game.Date,
		game.MaxPlayers,
		game.MinPlayers,
		game.SkillLevel,
		game.WhatsappLink,
		game.IsRecurring,
		game.RecurrenceFrequency,
		game.CreatorID,
	).Scan(&game.ID, &game.CreatedAt, &game.UpdatedAt)
	if err != nil {
		return err
	}
	return nil
}

const gameColumns = `
    g.id, g.title, g.description, g.location, g.location_name,
    g.latitude, g.longitude, g.date, g.max_players, g.min_players,
    g.skill_level, g.whatsapp_link, g.is_recurring, g.recurrence_frequency,
    g.creator_id, g.created_at, g.updated_at,
    u.id, u.name, u.email`

func scanGame(row interface{ Scan(...any) error }) (*Game, error) {
	var game Game
	var creator Creator
	err := row.Scan(
		&game.ID,
		&game.Title,
		&game.Description,
		&game.Location,
		&game.LocationName,
		&game.Latitude,
		&game.Longitude,
		&game.Date,
		&game.MaxPlayers,
		&game.MinPlayers,
		&game.SkillLevel,
		&game.WhatsappLink,
		&game.IsRecurring,
		&game.RecurrenceFrequency,
		&game.CreatorID,
		&game.CreatedAt,
		&game.UpdatedAt,
		&creator.ID,
		&creator.Name,
		&creator.Email,
	)
	if err != nil {
		return nil, err
	}
	game.Creator = &creator
	return &game, nil
}

func (s *GameStore) GetByID(ctx context.Context, gameID int64) (*Game, error) {
	query := `
	SELECT` + gameColumns + `
	FROM games g
	JOIN users u ON g.creator_id = u.id
	WHERE g.id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	game, err := scanGame(s.db.QueryRowContext(ctx, query, gameID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return game, nil
}

// List returns every game with its creator joined, ordered by insertion so
// the filter engine's stable sort sees a deterministic input.
func (s *GameStore) List(ctx context.Context) ([]Game, error) {
	query := `
	SELECT` + gameColumns + `
	FROM games g
	JOIN users u ON g.creator_id = u.id
	ORDER BY g.id`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, *game)
	}
	return games, rows.Err()
}

func (s *GameStore) Update(ctx context.Context, gameID int64, updates map[string]interface{}) error {
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
	args = append(args, gameID)

	query := fmt.Sprintf("UPDATE games SET %s WHERE id = $%d", strings.Join(setClauses, ", "), i)

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

func (s *GameStore) Delete(ctx context.Context, gameID int64) error {
	query := `DELETE FROM games WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.ExecContext(ctx, query, gameID)
	if err != nil {
		return err
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GameStore) IsCreator(ctx context.Context, gameID, userID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM games WHERE id = $1 AND creator_id = $2)`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var isCreator bool
	if err := s.db.QueryRowContext(ctx, query, gameID, userID).Scan(&isCreator); err != nil {
		return false, err
	}
	return isCreator, nil
}

// AdvanceRecurring moves every past recurring game forward by whole
// weekly/monthly periods until its date is in the future again, and returns
// how many rows moved. One-off games are untouched; listings rely on the
// filter engine's temporal gate, not on this job, to hide past games.
func (s *GameStore) AdvanceRecurring(ctx context.Context) (int64, error) {
	weeklyQuery := `
	UPDATE games
	SET date = date + make_interval(weeks =>
	        (FLOOR(EXTRACT(EPOCH FROM (NOW() - date)) / 604800)::int + 1)),
	    updated_at = NOW()
	WHERE is_recurring = TRUE
	  AND recurrence_frequency = 'weekly'
	  AND date < NOW()`

	monthlyQuery := `
	UPDATE games
	SET date = date + make_interval(months =>
	        ((EXTRACT(YEAR FROM age(NOW(), date)) * 12
	          + EXTRACT(MONTH FROM age(NOW(), date)))::int + 1)),
	    updated_at = NOW()
	WHERE is_recurring = TRUE
	  AND recurrence_frequency = 'monthly'
	  AND date < NOW()`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var advanced int64
	for _, query := range []string{weeklyQuery, monthlyQuery} {
		result, err := s.db.ExecContext(ctx, query)
		if err != nil {
			return advanced, err
		}
		rowsAffected, _ := result.RowsAffected()
		advanced += rowsAffected
	}
	return advanced, nil
}

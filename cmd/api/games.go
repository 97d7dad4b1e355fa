package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"pitchfinder/internal/geofilter"
	"pitchfinder/internal/notifications"
	"pitchfinder/internal/store"

	"github.com/go-chi/chi/v5"
)

type CreateGamePayload struct {
	Title               string    `json:"title" validate:"required,max=120"`
	Description         *string   `json:"description,omitempty" validate:"omitempty,max=1000"`
	Location            string    `json:"location" validate:"required,max=255"`
	LocationName        *string   `json:"location_name,omitempty" validate:"omitempty,max=255"`
	Latitude            float64   `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude           float64   `json:"longitude" validate:"required,gte=-180,lte=180"`
	Date                time.Time `json:"date" validate:"required,future"`
	MaxPlayers          int       `json:"max_players" validate:"required,min=2"`
	MinPlayers          int       `json:"min_players" validate:"required,min=2,ltefield=MaxPlayers"`
	SkillLevel          *string   `json:"skill_level,omitempty" validate:"omitempty,oneof=beginner intermediate advanced"`
	WhatsappLink        *string   `json:"whatsapp_link,omitempty" validate:"omitempty,url,max=255"`
	IsRecurring         bool      `json:"is_recurring"`
	RecurrenceFrequency *string   `json:"recurrence_frequency,omitempty" validate:"omitempty,oneof=weekly monthly"`
}

// createGameHandler godoc
//
//	@Summary		Create a new game
//	@Description	Create a pickup game with a location, kickoff time and player limits.
//	@Tags			Games
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateGamePayload	true	"Game details payload"
//	@Success		201		{object}	store.Game			"Game created successfully"
//	@Failure		400		{object}	error				"Invalid request payload"
//	@Failure		401		{object}	error				"Unauthorized"
//	@Failure		500		{object}	error				"Internal server error"
//	@Security		ApiKeyAuth
//	@Router			/games [post]
func (app *application) createGameHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateGamePayload

	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if payload.IsRecurring && payload.RecurrenceFrequency == nil {
		app.badRequestResponse(w, r, errors.New("recurrence_frequency is required for recurring games"))
		return
	}

	user := getUserFromContext(r)

	game := &store.Game{
		Title:               payload.Title,
		Description:         payload.Description,
		Location:            payload.Location,
		LocationName:        payload.LocationName,
		Latitude:            payload.Latitude,
		Longitude:           payload.Longitude,
		Date:                payload.Date,
		MaxPlayers:          payload.MaxPlayers,
		MinPlayers:          payload.MinPlayers,
		SkillLevel:          payload.SkillLevel,
		WhatsappLink:        payload.WhatsappLink,
		IsRecurring:         payload.IsRecurring,
		RecurrenceFrequency: payload.RecurrenceFrequency,
		CreatorID:           user.ID,
	}

	if err := app.store.Games.Create(r.Context(), game); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	// Nearby players get a push without holding up the response.
	go func(g store.Game) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		sent, err := notifications.SendGameNearby(ctx, app.push, app.store, &g)
		if err != nil {
			app.logger.Errorw("error sending nearby game notifications", "game_id", g.ID, "error", err)
			return
		}
		app.logger.Infow("nearby game notifications sent", "game_id", g.ID, "count", sent)
	}(*game)

	if err := app.jsonResponse(w, http.StatusCreated, game); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listGamesHandler godoc
//
//	@Summary		List upcoming games
//	@Description	Lists upcoming games filtered by title, skill level, player limits and distance from a point.
//	@Tags			Games
//	@Produce		json
//	@Param			search		query		string	false	"Case-insensitive title substring"
//	@Param			skill_level	query		string	false	"all, beginner, intermediate or advanced"
//	@Param			min_players	query		int		false	"Only games whose minimum is at least this"
//	@Param			max_players	query		int		false	"Only games whose maximum is at most this"
//	@Param			lat			query		number	false	"Search latitude"
//	@Param			lng			query		number	false	"Search longitude"
//	@Param			radius	query		number	false	"Distance cutoff in kilometers"
//	@Param			limit		query		int		false	"Page size"
//	@Param			offset		query		int		false	"Page offset"
//	@Success		200			{array}		store.Game
//	@Failure		400			{object}	error
//	@Failure		500			{object}	error
//	@Router			/games [get]
func (app *application) listGamesHandler(w http.ResponseWriter, r *http.Request) {
	spec := geofilter.FilterSpec{
		SkillLevel: geofilter.SkillAll,
		RadiusKm:   5,
		Limit:      50,
	}

	spec, err := spec.Parse(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(spec); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	games, err := app.store.Games.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	filtered := geofilter.Apply(games, spec, time.Now())
	page := geofilter.Page(filtered, spec.Limit, spec.Offset)

	response := map[string]any{
		"games": page,
		"total": len(filtered),
	}

	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getGameHandler godoc
//
//	@Summary		Get a game
//	@Description	Fetch a single game with its creator profile
//	@Tags			Games
//	@Produce		json
//	@Param			gameID	path		int	true	"Game ID"
//	@Success		200		{object}	store.Game
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Router			/games/{gameID} [get]
func (app *application) getGameHandler(w http.ResponseWriter, r *http.Request) {
	gameID, err := strconv.ParseInt(chi.URLParam(r, "gameID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid game ID"))
		return
	}

	game, err := app.store.Games.GetByID(r.Context(), gameID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, game); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateGamePayload struct {
	Title               *string    `json:"title,omitempty" validate:"omitempty,max=120"`
	Description         *string    `json:"description,omitempty" validate:"omitempty,max=1000"`
	Location            *string    `json:"location,omitempty" validate:"omitempty,max=255"`
	LocationName        *string    `json:"location_name,omitempty" validate:"omitempty,max=255"`
	Latitude            *float64   `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude           *float64   `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	Date                *time.Time `json:"date,omitempty" validate:"omitempty,future"`
	MaxPlayers          *int       `json:"max_players,omitempty" validate:"omitempty,min=2"`
	MinPlayers          *int       `json:"min_players,omitempty" validate:"omitempty,min=2"`
	SkillLevel          *string    `json:"skill_level,omitempty" validate:"omitempty,oneof=beginner intermediate advanced"`
	WhatsappLink        *string    `json:"whatsapp_link,omitempty" validate:"omitempty,url,max=255"`
	IsRecurring         *bool      `json:"is_recurring,omitempty"`
	RecurrenceFrequency *string    `json:"recurrence_frequency,omitempty" validate:"omitempty,oneof=weekly monthly"`
}

// updateGameHandler godoc
//
//	@Summary		Update a game
//	@Description	Partially update a game. Only the creator may do this.
//	@Tags			Games
//	@Accept			json
//	@Produce		json
//	@Param			gameID	path		int					true	"Game ID"
//	@Param			payload	body		UpdateGamePayload	true	"Fields to update"
//	@Success		200		{object}	store.Game
//	@Failure		400		{object}	error
//	@Failure		403		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/games/{gameID} [patch]
func (app *application) updateGameHandler(w http.ResponseWriter, r *http.Request) {
	gameID, err := strconv.ParseInt(chi.URLParam(r, "gameID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid game ID"))
		return
	}

	var payload UpdateGamePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	updates := map[string]interface{}{}
	if payload.Title != nil {
		updates["title"] = *payload.Title
	}
	if payload.Description != nil {
		updates["description"] = *payload.Description
	}
	if payload.Location != nil {
		updates["location"] = *payload.Location
	}
	if payload.LocationName != nil {
		updates["location_name"] = *payload.LocationName
	}
	if payload.Latitude != nil {
		updates["latitude"] = *payload.Latitude
	}
	if payload.Longitude != nil {
		updates["longitude"] = *payload.Longitude
	}
	if payload.Date != nil {
		updates["date"] = *payload.Date
	}
	if payload.MaxPlayers != nil {
		updates["max_players"] = *payload.MaxPlayers
	}
	if payload.MinPlayers != nil {
		updates["min_players"] = *payload.MinPlayers
	}
	if payload.SkillLevel != nil {
		updates["skill_level"] = *payload.SkillLevel
	}
	if payload.WhatsappLink != nil {
		updates["whatsapp_link"] = *payload.WhatsappLink
	}
	if payload.IsRecurring != nil {
		updates["is_recurring"] = *payload.IsRecurring
	}
	if payload.RecurrenceFrequency != nil {
		updates["recurrence_frequency"] = *payload.RecurrenceFrequency
	}

	if len(updates) == 0 {
		app.badRequestResponse(w, r, errors.New("no fields to update"))
		return
	}

	if err := app.store.Games.Update(r.Context(), gameID, updates); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	game, err := app.store.Games.GetByID(r.Context(), gameID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, game); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteGameHandler godoc
//
//	@Summary		Delete a game
//	@Description	Deletes a game. Only the creator may do this.
//	@Tags			Games
//	@Param			gameID	path	int	true	"Game ID"
//	@Success		204		{string}	string	"No Content"
//	@Failure		400		{object}	error
//	@Failure		403		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/games/{gameID} [delete]
func (app *application) deleteGameHandler(w http.ResponseWriter, r *http.Request) {
	gameID, err := strconv.ParseInt(chi.URLParam(r, "gameID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid game ID"))
		return
	}

	if err := app.store.Games.Delete(r.Context(), gameID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// shareGameHandler godoc
//
//	@Summary		Get a share link for a game
//	@Description	Returns a short opaque code and a frontend URL for sharing a game
//	@Tags			Games
//	@Produce		json
//	@Param			gameID	path		int	true	"Game ID"
//	@Success		200		{object}	map[string]string
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/games/{gameID}/share [get]
func (app *application) shareGameHandler(w http.ResponseWriter, r *http.Request) {
	gameID, err := strconv.ParseInt(chi.URLParam(r, "gameID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid game ID"))
		return
	}

	if _, err := app.store.Games.GetByID(r.Context(), gameID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	code, err := app.shareCodes.Encode(gameID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	response := map[string]string{
		"code":      code,
		"share_url": fmt.Sprintf("%s/games/code/%s", app.config.frontendURL, code),
	}

	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getGameByCodeHandler godoc
//
//	@Summary		Resolve a share code
//	@Description	Looks up a game by its opaque share code
//	@Tags			Games
//	@Produce		json
//	@Param			code	path		string	true	"Share code"
//	@Success		200		{object}	store.Game
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Router			/games/code/{code} [get]
func (app *application) getGameByCodeHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	gameID, err := app.shareCodes.Decode(code)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid share code"))
		return
	}

	game, err := app.store.Games.GetByID(r.Context(), gameID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, game); err != nil {
		app.internalServerError(w, r, err)
	}
}

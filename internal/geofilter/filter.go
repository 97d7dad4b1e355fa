// Package geofilter selects and orders the visible subset of games for a
// given filter. It is pure: no I/O, no shared state, safe for concurrent use.
package geofilter

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"pitchfinder/internal/geo"
	"pitchfinder/internal/store"
)

// Skill level selector values. SkillAll matches every game, including games
// with no skill level set; a specific level matches only an exact tag.
const (
	SkillAll          = "all"
	SkillBeginner     = "beginner"
	SkillIntermediate = "intermediate"
	SkillAdvanced     = "advanced"
)

// FilterSpec is the full set of user-chosen filter parameters at a point in
// time. The zero value filters nothing: every upcoming game passes.
type FilterSpec struct {
	Search     string  // Case-insensitive substring match against the title
	SkillLevel string  // "all" (or empty) passes everything
	MinPlayers int     `validate:"gte=0"` // Lower bound on the game's configured minimum; 0 = unbounded
	MaxPlayers int     `validate:"gte=0"` // Upper bound on the game's configured maximum; 0 = unbounded
	Lat        float64 // Reference location; (0,0) means unset
	Lng        float64
	RadiusKm   float64 // 0 disables the distance gate

	// Pagination, applied by the caller after filtering.
	Limit  int `validate:"gte=1"`
	Offset int `validate:"gte=0"`
}

// Parse extracts query parameters from the request URL and populates the
// FilterSpec. Defaults on the receiver survive absent parameters.
func (f FilterSpec) Parse(r *http.Request) (FilterSpec, error) {
	params := r.URL.Query()

	if search := params.Get("search"); search != "" {
		f.Search = search
	}

	if skill := params.Get("skill_level"); skill != "" {
		switch skill {
		case SkillAll, SkillBeginner, SkillIntermediate, SkillAdvanced:
			f.SkillLevel = skill
		default:
			return f, fmt.Errorf("invalid skill_level value: %s", skill)
		}
	}

	if minStr := params.Get("min_players"); minStr != "" {
		minPlayers, err := strconv.Atoi(minStr)
		if err != nil {
			return f, fmt.Errorf("invalid min_players: %w", err)
		}
		f.MinPlayers = minPlayers
	}

	if maxStr := params.Get("max_players"); maxStr != "" {
		maxPlayers, err := strconv.Atoi(maxStr)
		if err != nil {
			return f, fmt.Errorf("invalid max_players: %w", err)
		}
		f.MaxPlayers = maxPlayers
	}

	if latStr := params.Get("lat"); latStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return f, fmt.Errorf("invalid lat value: %w", err)
		}
		f.Lat = lat
	}

	if lngStr := params.Get("lng"); lngStr != "" {
		lng, err := strconv.ParseFloat(lngStr, 64)
		if err != nil {
			return f, fmt.Errorf("invalid lng value: %w", err)
		}
		f.Lng = lng
	}

	if radiusStr := params.Get("radius"); radiusStr != "" {
		radius, err := strconv.ParseFloat(radiusStr, 64)
		if err != nil {
			return f, fmt.Errorf("invalid radius value: %w", err)
		}
		f.RadiusKm = radius
	}

	if limitStr := params.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return f, fmt.Errorf("invalid limit: %w", err)
		}
		f.Limit = limit
	}

	if offsetStr := params.Get("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return f, fmt.Errorf("invalid offset: %w", err)
		}
		f.Offset = offset
	}

	return f, nil
}

// Apply returns the games matching spec, sorted ascending by date. The
// reference instant now is sampled once by the caller so a single call sees
// a consistent clock. The input is never mutated; the result is a fresh
// slice and always a subset of games (duplicates pass through on their own).
func Apply(games []store.Game, spec FilterSpec, now time.Time) []store.Game {
	search := strings.ToLower(spec.Search)

	result := make([]store.Game, 0, len(games))
	for _, game := range games {
		if !matches(game, spec, search, now) {
			continue
		}
		result = append(result, game)
	}

	// Stable so equal dates keep their input order.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result
}

func matches(game store.Game, spec FilterSpec, search string, now time.Time) bool {
	// Records violating the data contract never match, so one bad row
	// cannot take down a whole listing.
	if !validRecord(game) {
		return false
	}

	if game.Date.Before(now) {
		return false
	}

	if search != "" && !strings.Contains(strings.ToLower(game.Title), search) {
		return false
	}

	if spec.SkillLevel != "" && spec.SkillLevel != SkillAll {
		if game.SkillLevel == nil || *game.SkillLevel != spec.SkillLevel {
			return false
		}
	}

	if spec.MaxPlayers > 0 && game.MaxPlayers > spec.MaxPlayers {
		return false
	}
	// A game with no configured minimum is unconstrained on that side.
	if spec.MinPlayers > 0 && game.MinPlayers > 0 && game.MinPlayers < spec.MinPlayers {
		return false
	}

	if distanceActive(spec) {
		d := geo.DistanceKm(spec.Lat, spec.Lng, game.Latitude, game.Longitude)
		if d > spec.RadiusKm {
			return false
		}
	}

	return true
}

func distanceActive(spec FilterSpec) bool {
	return spec.RadiusKm > 0 && (spec.Lat != 0 || spec.Lng != 0)
}

func validRecord(game store.Game) bool {
	if game.Latitude < -90 || game.Latitude > 90 {
		return false
	}
	if game.Longitude < -180 || game.Longitude > 180 {
		return false
	}
	if game.Date.IsZero() {
		return false
	}
	return true
}

// Page slices result for the caller's pagination after filtering; limit <= 0
// means no limit.
func Page(games []store.Game, limit, offset int) []store.Game {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(games) {
		return []store.Game{}
	}
	games = games[offset:]
	if limit > 0 && limit < len(games) {
		games = games[:limit]
	}
	return games
}

package geofilter

import (
	"net/http/httptest"
	"testing"
	"time"

	"pitchfinder/internal/geo"
	"pitchfinder/internal/store"
)

var testNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func makeGame(id int64, title string, skill string, date time.Time, lat, lng float64) store.Game {
	g := store.Game{
		ID:         id,
		Title:      title,
		Latitude:   lat,
		Longitude:  lng,
		Date:       date,
		MaxPlayers: 10,
		MinPlayers: 2,
	}
	if skill != "" {
		g.SkillLevel = strPtr(skill)
	}
	return g
}

func TestApplyEmptyInput(t *testing.T) {
	got := Apply(nil, FilterSpec{Search: "anything", RadiusKm: 5, Lat: 1, Lng: 1}, testNow)
	if len(got) != 0 {
		t.Fatalf("Apply(nil) returned %d games, want 0", len(got))
	}
}

func TestApplyIsSubset(t *testing.T) {
	games := []store.Game{
		makeGame(1, "Sunday Kickabout", SkillBeginner, testNow.Add(24*time.Hour), 0, 0),
		makeGame(2, "Pro League", SkillAdvanced, testNow.Add(-24*time.Hour), 0, 0),
		makeGame(3, "Evening Five-a-side", "", testNow.Add(time.Hour), 0, 0.5),
	}

	got := Apply(games, FilterSpec{}, testNow)

	byID := map[int64]store.Game{}
	for _, g := range games {
		byID[g.ID] = g
	}
	for _, g := range got {
		if _, ok := byID[g.ID]; !ok {
			t.Errorf("Apply fabricated game %d", g.ID)
		}
	}
	if len(got) > len(games) {
		t.Errorf("result larger than input: %d > %d", len(got), len(games))
	}
}

func TestApplyExcludesPastGames(t *testing.T) {
	games := []store.Game{
		makeGame(1, "Sunday Kickabout", SkillBeginner, testNow.Add(24*time.Hour), 0, 0),
		makeGame(2, "Pro League", SkillAdvanced, testNow.Add(-24*time.Hour), 0, 0),
	}
	spec := FilterSpec{SkillLevel: SkillAll, MaxPlayers: 100, RadiusKm: 10, Lat: 0.0001, Lng: 0}

	got := Apply(games, spec, testNow)

	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("got %v, want only the upcoming Sunday Kickabout", got)
	}
}

func TestApplySkillSelector(t *testing.T) {
	games := []store.Game{
		makeGame(1, "Sunday Kickabout", SkillBeginner, testNow.Add(24*time.Hour), 0, 0),
		makeGame(2, "Pro League", SkillAdvanced, testNow.Add(-24*time.Hour), 0, 0),
	}

	// The advanced game is in the past, the beginner game does not match.
	got := Apply(games, FilterSpec{SkillLevel: SkillAdvanced}, testNow)
	if len(got) != 0 {
		t.Fatalf("got %d games, want 0", len(got))
	}
}

func TestApplyUnsetSkillOnlyMatchesAll(t *testing.T) {
	games := []store.Game{
		makeGame(1, "Casual Kick", "", testNow.Add(time.Hour), 0, 0),
	}

	if got := Apply(games, FilterSpec{SkillLevel: SkillBeginner}, testNow); len(got) != 0 {
		t.Errorf("unset skill matched a specific selector")
	}
	if got := Apply(games, FilterSpec{SkillLevel: SkillAll}, testNow); len(got) != 1 {
		t.Errorf("unset skill did not match %q", SkillAll)
	}
	if got := Apply(games, FilterSpec{}, testNow); len(got) != 1 {
		t.Errorf("unset skill did not match an empty selector")
	}
}

func TestApplyTextSearch(t *testing.T) {
	games := []store.Game{
		makeGame(1, "Sunday Kickabout", "", testNow.Add(time.Hour), 0, 0),
		makeGame(2, "Friday Futsal", "", testNow.Add(time.Hour), 0, 0),
	}

	got := Apply(games, FilterSpec{Search: "KICK"}, testNow)
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("case-insensitive substring search failed: %v", got)
	}

	if got := Apply(games, FilterSpec{Search: ""}, testNow); len(got) != 2 {
		t.Errorf("empty search should pass all games, got %d", len(got))
	}
}

func TestApplyPlayerBounds(t *testing.T) {
	small := makeGame(1, "Threes", "", testNow.Add(time.Hour), 0, 0)
	small.MinPlayers = 3
	small.MaxPlayers = 6
	big := makeGame(2, "Full Pitch", "", testNow.Add(time.Hour), 0, 0)
	big.MinPlayers = 10
	big.MaxPlayers = 22
	open := makeGame(3, "Open Kick", "", testNow.Add(time.Hour), 0, 0)
	open.MinPlayers = 0
	open.MaxPlayers = 8

	games := []store.Game{small, big, open}

	// Upper bound: games needing more than 10 players are out.
	got := Apply(games, FilterSpec{MaxPlayers: 10}, testNow)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("upper bound: got %v", ids(got))
	}

	// Lower bound: the configured minimum must be at least 5; a game with
	// no configured minimum is unconstrained on that side.
	got = Apply(games, FilterSpec{MinPlayers: 5}, testNow)
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 3 {
		t.Errorf("lower bound: got %v", ids(got))
	}

	// Contradictory bounds are valid input, not an error, and no game
	// here can satisfy both sides at once.
	got = Apply(games, FilterSpec{MinPlayers: 30, MaxPlayers: 5}, testNow)
	if len(got) != 0 {
		t.Errorf("contradictory bounds: got %v, want empty", ids(got))
	}
}

func TestApplyDistanceGate(t *testing.T) {
	// Game at (0, 1) is ~111 km from the origin.
	games := []store.Game{makeGame(1, "Equator Cup", "", testNow.Add(time.Hour), 0, 1)}
	ref := FilterSpec{Lat: 0.0001, Lng: 0}

	ref.RadiusKm = 50
	if got := Apply(games, ref, testNow); len(got) != 0 {
		t.Errorf("radius 50: game ~111km away included")
	}

	ref.RadiusKm = 150
	if got := Apply(games, ref, testNow); len(got) != 1 {
		t.Errorf("radius 150: game ~111km away excluded")
	}

	// Radius 0 or no reference location disables the gate entirely.
	if got := Apply(games, FilterSpec{RadiusKm: 0, Lat: 50, Lng: 50}, testNow); len(got) != 1 {
		t.Errorf("radius 0 should disable distance filtering")
	}
	if got := Apply(games, FilterSpec{RadiusKm: 1}, testNow); len(got) != 1 {
		t.Errorf("unset reference location should disable distance filtering")
	}
}

func TestApplyDistanceInvariant(t *testing.T) {
	games := []store.Game{
		makeGame(1, "Near", "", testNow.Add(time.Hour), 0, 0.1),
		makeGame(2, "Far", "", testNow.Add(time.Hour), 5, 5),
		makeGame(3, "Borderline", "", testNow.Add(time.Hour), 0, 0.4),
	}
	spec := FilterSpec{Lat: 0.0001, Lng: 0, RadiusKm: 50}

	for _, g := range Apply(games, spec, testNow) {
		if d := geo.DistanceKm(spec.Lat, spec.Lng, g.Latitude, g.Longitude); d > spec.RadiusKm {
			t.Errorf("game %d at %.1f km exceeds radius %.1f", g.ID, d, spec.RadiusKm)
		}
	}
}

func TestApplySortedAscendingByDate(t *testing.T) {
	games := []store.Game{
		makeGame(1, "C", "", testNow.Add(72*time.Hour), 0, 0),
		makeGame(2, "A", "", testNow.Add(2*time.Hour), 0, 0),
		makeGame(3, "B", "", testNow.Add(24*time.Hour), 0, 0),
	}

	got := Apply(games, FilterSpec{}, testNow)
	for i := 1; i < len(got); i++ {
		if got[i-1].Date.After(got[i].Date) {
			t.Fatalf("result not sorted ascending: %v", ids(got))
		}
	}
	if want := []int64{2, 3, 1}; !sameIDs(got, want) {
		t.Errorf("got order %v, want %v", ids(got), want)
	}
}

func TestApplySortIsStable(t *testing.T) {
	kickoff := testNow.Add(time.Hour)
	games := []store.Game{
		makeGame(10, "First In", "", kickoff, 0, 0),
		makeGame(20, "Second In", "", kickoff, 0, 0),
		makeGame(30, "Third In", "", kickoff, 0, 0),
	}

	got := Apply(games, FilterSpec{}, testNow)
	if !sameIDs(got, []int64{10, 20, 30}) {
		t.Errorf("ties did not preserve input order: %v", ids(got))
	}
}

func TestApplyDuplicatesPassThrough(t *testing.T) {
	g := makeGame(7, "Twice Listed", "", testNow.Add(time.Hour), 0, 0)
	got := Apply([]store.Game{g, g}, FilterSpec{}, testNow)
	if len(got) != 2 {
		t.Errorf("duplicates deduplicated: got %d, want 2", len(got))
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	games := []store.Game{
		makeGame(1, "Late", "", testNow.Add(48*time.Hour), 0, 0),
		makeGame(2, "Early", "", testNow.Add(time.Hour), 0, 0),
	}

	Apply(games, FilterSpec{}, testNow)

	if games[0].ID != 1 || games[1].ID != 2 {
		t.Errorf("input slice reordered: %v", ids(games))
	}
}

func TestApplyExcludesMalformedRecords(t *testing.T) {
	badLat := makeGame(1, "Off the Map", "", testNow.Add(time.Hour), 95, 0)
	badLng := makeGame(2, "Wrapped", "", testNow.Add(time.Hour), 0, 200)
	noDate := makeGame(3, "Whenever", "", time.Time{}, 0, 0)
	ok := makeGame(4, "Fine", "", testNow.Add(time.Hour), 0, 0)

	got := Apply([]store.Game{badLat, badLng, noDate, ok}, FilterSpec{}, testNow)
	if !sameIDs(got, []int64{4}) {
		t.Errorf("malformed records leaked through: %v", ids(got))
	}
}

func TestApplyDeterministic(t *testing.T) {
	games := []store.Game{
		makeGame(1, "A", SkillBeginner, testNow.Add(time.Hour), 0, 0),
		makeGame(2, "B", SkillAdvanced, testNow.Add(2*time.Hour), 0, 1),
	}
	spec := FilterSpec{SkillLevel: SkillAll, RadiusKm: 200, Lat: 0.0001, Lng: 0}

	first := Apply(games, spec, testNow)
	second := Apply(games, spec, testNow)
	if !sameIDs(second, ids(first)) {
		t.Errorf("identical inputs produced different results: %v vs %v", ids(first), ids(second))
	}
}

func TestFilterSpecParse(t *testing.T) {
	r := httptest.NewRequest("GET",
		"/v1/games?search=kick&skill_level=beginner&min_players=4&max_players=12&lat=37.7&lng=-122.4&radius=25&limit=10&offset=20", nil)

	spec, err := FilterSpec{Limit: 50}.Parse(r)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if spec.Search != "kick" || spec.SkillLevel != SkillBeginner {
		t.Errorf("text/skill not parsed: %+v", spec)
	}
	if spec.MinPlayers != 4 || spec.MaxPlayers != 12 {
		t.Errorf("player bounds not parsed: %+v", spec)
	}
	if spec.Lat != 37.7 || spec.Lng != -122.4 || spec.RadiusKm != 25 {
		t.Errorf("location not parsed: %+v", spec)
	}
	if spec.Limit != 10 || spec.Offset != 20 {
		t.Errorf("pagination not parsed: %+v", spec)
	}
}

func TestFilterSpecParseDefaultsSurvive(t *testing.T) {
	r := httptest.NewRequest("GET", "/v1/games", nil)

	spec, err := FilterSpec{SkillLevel: SkillAll, Limit: 50}.Parse(r)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if spec.SkillLevel != SkillAll || spec.Limit != 50 || spec.Offset != 0 {
		t.Errorf("defaults clobbered: %+v", spec)
	}
}

func TestFilterSpecParseRejectsGarbage(t *testing.T) {
	cases := []string{
		"/v1/games?skill_level=galactic",
		"/v1/games?min_players=lots",
		"/v1/games?lat=north",
		"/v1/games?radius=wide",
		"/v1/games?limit=few",
	}
	for _, url := range cases {
		r := httptest.NewRequest("GET", url, nil)
		if _, err := (FilterSpec{}).Parse(r); err == nil {
			t.Errorf("Parse(%s) accepted bad input", url)
		}
	}
}

func TestPage(t *testing.T) {
	games := []store.Game{
		makeGame(1, "A", "", testNow, 0, 0),
		makeGame(2, "B", "", testNow, 0, 0),
		makeGame(3, "C", "", testNow, 0, 0),
	}

	if got := Page(games, 2, 0); !sameIDs(got, []int64{1, 2}) {
		t.Errorf("limit: got %v", ids(got))
	}
	if got := Page(games, 2, 2); !sameIDs(got, []int64{3}) {
		t.Errorf("offset: got %v", ids(got))
	}
	if got := Page(games, 10, 5); len(got) != 0 {
		t.Errorf("offset past end: got %v", ids(got))
	}
	if got := Page(games, 0, 0); len(got) != 3 {
		t.Errorf("no limit: got %v", ids(got))
	}
}

func ids(games []store.Game) []int64 {
	out := make([]int64, len(games))
	for i, g := range games {
		out[i] = g.ID
	}
	return out
}

func sameIDs(games []store.Game, want []int64) bool {
	if len(games) != len(want) {
		return false
	}
	for i, g := range games {
		if g.ID != want[i] {
			return false
		}
	}
	return true
}

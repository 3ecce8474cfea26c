package ep

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidLeague   = errors.New("invalid league")
	ErrInvalidSeason   = errors.New("invalid season format, use YYYY-YYYY")
	ErrInvalidCategory = errors.New("invalid stat category")
	ErrTableNotFound   = errors.New("stats table not found")
	ErrFactsNotFound   = errors.New("player facts container not found")
)

// Leagues are the league/tournament slugs accepted in /league/<slug>/stats URLs.
var Leagues = []string{
	"nhl", "ahl", "echl", "sphl", "ncaa",
	"whl", "ohl", "qmjhl", "ushl", "nahl",
	"khl", "shl", "liiga", "nl", "czechia",
	"slovakia", "latvia", "finland",
}

var leagueSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Leagues))
	for _, l := range Leagues {
		m[l] = struct{}{}
	}
	return m
}()

var seasonRe = regexp.MustCompile(`^\d{4}-\d{4}$`)

func ValidateLeague(league string) error {
	if _, ok := leagueSet[league]; !ok {
		return fmt.Errorf("%w %q, valid leagues are: %s", ErrInvalidLeague, league, strings.Join(Leagues, ", "))
	}
	return nil
}

// ValidateSeason checks the literal YYYY-YYYY shape only.
func ValidateSeason(season string) error {
	if !seasonRe.MatchString(season) {
		return fmt.Errorf("%w: %q", ErrInvalidSeason, season)
	}
	return nil
}

type Role string

const (
	RoleForward Role = "FW"
	RoleDefense Role = "DEF"
)

// RosterRecord is one player appearance on a league/season stats page.
type RosterRecord struct {
	Rank        string
	Player      string // display string, e.g. "Jane Smith (D)"
	Team        string
	League      string
	Season      string
	PlayerName  string
	Position    string
	Role        Role
	ProfileLink string
	// Stats holds the remaining lowercased columns (gp, g, a, tp, ppg, pim, +/-).
	Stats map[string]string
}

// PlayerMetadata is the identity needed to visit a player's profile.
type PlayerMetadata struct {
	PlayerName  string
	Role        Role
	ProfileLink string
}

type StatCategory string

const (
	RegularSeason StatCategory = "Regular Season"
	Postseason    StatCategory = "Postseason"
	Combined      StatCategory = "Regular Season + Postseason"
)

func ParseStatCategory(s string) (StatCategory, error) {
	switch c := StatCategory(strings.TrimSpace(s)); c {
	case RegularSeason, Postseason, Combined:
		return c, nil
	}
	return "", fmt.Errorf("%w %q, use %q, %q or %q", ErrInvalidCategory, s, RegularSeason, Postseason, Combined)
}

// StatLine is the typed view of one stat-table row.
type StatLine struct {
	PlayerName string
	Category   StatCategory
	Season     string
	Team       string
	League     string
	GP         *int
	G          *int
	A          *int
	TP         *int
	PIM        *int
	PlusMinus  *int
}

type DraftPick struct {
	Round   string
	Overall string
	Year    string
}

// PlayerFacts is the biography block of a profile page. Every field is best effort.
type PlayerFacts struct {
	PlayerName  string
	ProfileLink string
	DateOfBirth *time.Time
	Nation      string
	Position    string
	HeightCM    *int
	WeightKG    *int
	Shoots      string
	// PlayerTypes is nil when the tag container could not be read.
	PlayerTypes []string
	Rights      string
	Draft       *DraftPick
	Highlights  []string
	Description *string
}

func Atoi(s string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return i
}

// atoiPtr parses signed counts like "12", "+3", "-1"; anything else is absent.
func atoiPtr(s string) *int {
	s = strings.TrimPrefix(strings.TrimSpace(s), "+")
	i, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &i
}

var wsRe = regexp.MustCompile(`\s+`)

func cleanText(s string) string {
	return wsRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

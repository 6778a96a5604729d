/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Seednode/triviaroyale/questions"
)

const (
	MinRounds = 1
	MaxRounds = 25
	MinTeams  = 1
	MaxTeams  = 6

	// CategoriesPerTeam is how many categories each team contributes to a custom game.
	CategoriesPerTeam = 3
)

var ErrInvalidConfig = errors.New("invalid game configuration")

// ConfigError carries a message fit to show on the setup screen. It matches
// ErrInvalidConfig under errors.Is.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string {
	return e.msg
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

func invalidf(format string, args ...any) error {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

// Categories offered on the selection screen. Teams may also name their own.
var Categories = []string{
	"General Science", "Physics and Astronomy", "Medicine", "Toxicology", "Technology",
	"History", "Geography", "World Capitals", "France", "Famous Landmarks", "Cycling",
	"College Football", "Pro Football", "Knitting", "Gardening", "Equine", "Art and Literature",
	"Music", "Movies",
	"70's", "80's Culture", "90's Culture", "Mythology", "Folklore",
	"TV Shows and Series", "Wine", "Food and Drink", "Famous Inventors",
	"Real Estate", "Nature", "Business and Economics", "Philosophy", "Riddles and Puzzles",
	"Linguistics", "National Parks", "Hiking", "Pets",
}

// Config is everything chosen on the setup screens.
type Config struct {
	Rounds       int
	Teams        int
	TeamNames    []string
	Categories   []string
	UseDefaults  bool
	Difficulties []questions.Difficulty
}

func ValidateRounds(n int) error {
	if n < MinRounds || n > MaxRounds {
		return invalidf("Please enter a number between %d and %d", MinRounds, MaxRounds)
	}
	return nil
}

func ValidateTeams(n int) error {
	if n < MinTeams || n > MaxTeams {
		return invalidf("Please enter a number between %d and %d", MinTeams, MaxTeams)
	}
	return nil
}

// ValidateTeamNames trims every name and reports the first one left empty.
func ValidateTeamNames(names []string, teams int) ([]string, error) {
	if len(names) != teams {
		return nil, invalidf("Please enter a name for each of the %d teams", teams)
	}

	trimmed := make([]string, len(names))
	for i, name := range names {
		trimmed[i] = strings.TrimSpace(name)
		if trimmed[i] == "" {
			return nil, invalidf("Please enter a name for team %d", i+1)
		}
	}

	return trimmed, nil
}

// ValidateCategories requires exactly CategoriesPerTeam distinct categories per team.
func ValidateCategories(categories []string, teams int) ([]string, error) {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		if c = strings.TrimSpace(c); c != "" && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}

	if needed := CategoriesPerTeam * teams; len(out) != needed {
		return nil, invalidf("Selected %d. Please select exactly %d", len(out), needed)
	}

	return out, nil
}

func (c Config) Validate() error {
	if err := ValidateRounds(c.Rounds); err != nil {
		return err
	}

	if err := ValidateTeams(c.Teams); err != nil {
		return err
	}

	if _, err := ValidateTeamNames(c.TeamNames, c.Teams); err != nil {
		return err
	}

	if !c.UseDefaults {
		if _, err := ValidateCategories(c.Categories, c.Teams); err != nil {
			return err
		}
	}

	return nil
}

// Request converts the configuration into a question request.
func (c Config) Request() questions.Request {
	return questions.Request{
		Categories:   c.Categories,
		UseDefaults:  c.UseDefaults,
		Difficulties: questions.NormalizeDifficulties(c.Difficulties),
		Rounds:       c.Rounds,
		Teams:        c.Teams,
	}
}

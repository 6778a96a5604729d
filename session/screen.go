/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package session

import (
	"net/url"

	"github.com/Seednode/triviaroyale/game"
)

// Screen names, in the order a game visits them.
const (
	ScreenTitle         = "title"
	ScreenCredentials   = "credentials"
	ScreenRounds        = "rounds"
	ScreenTeams         = "teams"
	ScreenNames         = "names"
	ScreenCategories    = "categories"
	ScreenDifficulty    = "difficulty"
	ScreenLoading       = "loading"
	ScreenQuestion      = "question"
	ScreenAnswer        = "answer"
	ScreenWager         = "wager"
	ScreenFinalQuestion = "final_question"
	ScreenFinalAnswer   = "final_answer"
	ScreenWinner        = "winner"
)

// Input types sent by the display.
const (
	InputKey               = "key"
	InputRounds            = "rounds"
	InputTeams             = "teams"
	InputNames             = "names"
	InputCategories        = "categories"
	InputDefaultCategories = "default_categories"
	InputDifficulties      = "difficulties"
	InputWager             = "wager"
	InputShowCredentials   = "show_credentials"
	InputCredentials       = "credentials"
	InputSkipCredentials   = "skip_credentials"
	InputNewGame           = "new_game"
)

// Keys understood on the play screens.
const (
	KeyEnter  = "enter"
	KeyEscape = "escape"
	KeyYes    = "y"
	KeyNo     = "n"
	KeyLookup = "g"
	KeySkip   = "x"
)

// Input is one key press or form submission from the display.
type Input struct {
	Type   string   `json:"type"`
	Key    string   `json:"key,omitempty"`
	Text   string   `json:"text,omitempty"`
	Values []string `json:"values,omitempty"`
}

// Screen is everything the display needs to draw the current step.
type Screen struct {
	Type          string          `json:"type"`
	Session       string          `json:"session"`
	Name          string          `json:"screen"`
	Error         string          `json:"error,omitempty"`
	Notice        string          `json:"notice,omitempty"`
	Text          string          `json:"text,omitempty"`
	Values        []string        `json:"values,omitempty"`
	Round         int             `json:"round,omitempty"`
	Rounds        int             `json:"rounds,omitempty"`
	Teams         int             `json:"teams,omitempty"`
	Team          string          `json:"team,omitempty"`
	Question      string          `json:"question,omitempty"`
	Answer        string          `json:"answer,omitempty"`
	Speak         string          `json:"speak,omitempty"`
	Retry         bool            `json:"retry,omitempty"`
	MaxWager      int             `json:"max_wager"`
	Source        string          `json:"source,omitempty"`
	Categories    []string        `json:"categories,omitempty"`
	CategoryCount int             `json:"category_count,omitempty"`
	Scores        []game.Standing `json:"scores,omitempty"`
	Winners       []game.Standing `json:"winners,omitempty"`
}

// View draws screens and performs the look-it-up side effect.
type View interface {
	Render(Screen)
	Lookup(question, searchURL string)
}

// SearchURL is the web search opened when a team wants to check an answer.
func SearchURL(question string) string {
	return "https://www.google.com/search?q=" + url.QueryEscape(question)
}

/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package questions supplies trivia questions, either generated by a text
// provider or loaded from the bundled question files.
package questions

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	ErrNoSources   = errors.New("no usable question source")
	ErrNoQuestions = errors.New("no questions available")
)

// Record is a single question and its answer.
type Record struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (r Record) valid() bool {
	return r.Question != "" && r.Answer != ""
}

type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

func (d Difficulty) rank() int {
	switch d {
	case Easy:
		return 1
	case Medium:
		return 2
	case Hard:
		return 3
	}
	return 99
}

// ParseDifficulty accepts any casing of Easy, Medium or Hard.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// NormalizeDifficulties removes duplicates, orders the levels Easy < Medium < Hard,
// and falls back to Medium when nothing was selected.
func NormalizeDifficulties(in []Difficulty) []Difficulty {
	out := make([]Difficulty, 0, len(in))
	for _, d := range in {
		if d.rank() == 99 || slices.Contains(out, d) {
			continue
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return []Difficulty{Medium}
	}
	slices.SortFunc(out, func(a, b Difficulty) int {
		return a.rank() - b.rank()
	})
	return out
}

// recordFrom reads a record out of a JSON object, trimming both fields.
func recordFrom(item gjson.Result) Record {
	return Record{
		Question: strings.TrimSpace(item.Get("question").String()),
		Answer:   strings.TrimSpace(item.Get("answer").String()),
	}
}

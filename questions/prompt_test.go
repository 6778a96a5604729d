/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package questions

import (
	"strings"
	"testing"
)

func TestRequestCounts(t *testing.T) {
	tests := []struct {
		rounds, teams      int
		needed, promptSize int
	}{
		{rounds: 1, teams: 2, needed: 3, promptSize: 10},
		{rounds: 3, teams: 3, needed: 10, promptSize: 10},
		{rounds: 5, teams: 4, needed: 21, promptSize: 21},
	}

	for _, tc := range tests {
		r := Request{Rounds: tc.rounds, Teams: tc.teams}
		if r.Needed() != tc.needed || r.PromptCount() != tc.promptSize {
			t.Fatalf("rounds=%d teams=%d: Needed()=%d PromptCount()=%d, want %d and %d",
				tc.rounds, tc.teams, r.Needed(), r.PromptCount(), tc.needed, tc.promptSize)
		}
	}
}

func TestBuildPromptDifficultyClause(t *testing.T) {
	tests := []struct {
		name         string
		difficulties []Difficulty
		want         string
	}{
		{name: "single", difficulties: []Difficulty{Hard}, want: "primarily hard difficulty"},
		{name: "none defaults to medium", want: "primarily medium difficulty"},
		{name: "double ordered", difficulties: []Difficulty{Hard, Easy}, want: "a mix of easy and hard difficulty"},
		{name: "triple", difficulties: []Difficulty{Medium, Hard, Easy}, want: "a mix of easy, medium, and hard difficulty"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			prompt := BuildPrompt(Request{
				Categories:   []string{"Wine", "Cycling"},
				Difficulties: tc.difficulties,
				Rounds:       4,
				Teams:        3,
			})

			if !strings.Contains(prompt, tc.want) {
				t.Fatalf("prompt %q does not contain %q", prompt, tc.want)
			}
			if !strings.Contains(prompt, "Generate 13 unique trivia questions") {
				t.Fatalf("prompt %q has the wrong count", prompt)
			}
			if !strings.Contains(prompt, "topics: Wine, Cycling.") {
				t.Fatalf("prompt %q has the wrong categories", prompt)
			}
			if !strings.Contains(prompt, `"question" and "answer"`) {
				t.Fatalf("prompt %q lacks the JSON instruction", prompt)
			}
		})
	}
}

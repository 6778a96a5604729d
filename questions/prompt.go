/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package questions

import (
	"fmt"
	"strings"
)

// minPromptCount is the fewest questions ever requested from a provider.
const minPromptCount = 10

// Request describes the questions a game needs.
type Request struct {
	Categories   []string
	UseDefaults  bool
	Difficulties []Difficulty
	Rounds       int
	Teams        int
}

// Needed is one question per team per round, plus one for the final round.
func (r Request) Needed() int {
	return r.Rounds*r.Teams + 1
}

func (r Request) PromptCount() int {
	return max(r.Needed(), minPromptCount)
}

func difficultyClause(difficulties []Difficulty) string {
	levels := NormalizeDifficulties(difficulties)

	switch len(levels) {
	case 1:
		return fmt.Sprintf("The questions should be primarily %s difficulty.", strings.ToLower(string(levels[0])))
	case 2:
		return fmt.Sprintf("Include a mix of %s and %s difficulty questions.",
			strings.ToLower(string(levels[0])),
			strings.ToLower(string(levels[1])))
	default:
		return "Include a mix of easy, medium, and hard difficulty questions."
	}
}

// BuildPrompt renders the natural-language request sent to a provider.
func BuildPrompt(r Request) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Generate %d unique trivia questions randomly selected from the following topics: %s. ",
		r.PromptCount(),
		strings.Join(r.Categories, ", ")))
	b.WriteString(difficultyClause(r.Difficulties))
	b.WriteString(" Ensure that all answers are factually correct and concise.")
	b.WriteString(` Output the results STRICTLY as a JSON array where each element is a JSON object containing ONLY two keys: "question" and "answer".`)
	b.WriteString(" Do NOT include any introductory text, explanations, markdown formatting (like ```json or ```), or comments outside the JSON structure.")

	return b.String()
}

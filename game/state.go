/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package game holds the rules of a trivia game: turn order, rounds, scoring
// and the final wager round.
package game

import (
	"errors"
	"fmt"

	"github.com/Seednode/triviaroyale/questions"
)

// PointsPerCorrect is awarded for each correct answer outside the final round.
const PointsPerCorrect = 10

var (
	ErrInsufficientQuestions = errors.New("no questions to play")
	ErrEndOfQuestions        = errors.New("no more questions available")
	ErrWrongPhase            = errors.New("operation not valid in this phase")
	ErrInvalidWager          = errors.New("invalid wager")
	ErrInvalidTeam           = errors.New("no such team")
	ErrOutOfTurn             = errors.New("team resolved out of turn")
)

type Phase int

const (
	PhaseSetup Phase = iota
	PhasePlaying
	PhaseCollectingWagers
	PhaseFinalQuestion
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhasePlaying:
		return "playing"
	case PhaseCollectingWagers:
		return "collecting_wagers"
	case PhaseFinalQuestion:
		return "final_question"
	case PhaseGameOver:
		return "game_over"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

type Outcome int

const (
	Incorrect Outcome = iota
	Correct
)

type Team struct {
	Name  string
	Score int
}

// Standing is a team's name and score as shown on the scoreboard.
type Standing struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// State is not safe for concurrent use. A new game needs a new State.
type State struct {
	rounds    int
	questions []questions.Record
	cursor    int
	round     int
	team      int
	teams     []Team
	phase     Phase
	wagers    map[int]int
	finalTeam int
}

// New creates a game in the setup phase for the given teams.
func New(names []string, rounds int) *State {
	teams := make([]Team, len(names))
	for i, name := range names {
		teams[i] = Team{Name: name}
	}

	return &State{
		rounds: rounds,
		teams:  teams,
		phase:  PhaseSetup,
		wagers: make(map[int]int),
	}
}

// Start moves from setup to playing with the given ordered questions.
func (s *State) Start(qs []questions.Record) error {
	if s.phase != PhaseSetup {
		return fmt.Errorf("%w: start in %s", ErrWrongPhase, s.phase)
	}

	if len(qs) == 0 || len(s.teams) == 0 {
		return ErrInsufficientQuestions
	}

	s.questions = qs
	s.cursor = 0
	s.round = 1
	s.team = 0
	for i := range s.teams {
		s.teams[i].Score = 0
	}
	clear(s.wagers)
	s.finalTeam = 0
	s.phase = PhasePlaying

	return nil
}

func (s *State) Phase() Phase {
	return s.phase
}

func (s *State) Round() int {
	return s.round
}

func (s *State) Rounds() int {
	return s.rounds
}

func (s *State) CurrentTeam() int {
	return s.team
}

func (s *State) TeamName(i int) string {
	if i < 0 || i >= len(s.teams) {
		return ""
	}
	return s.teams[i].Name
}

func (s *State) TeamCount() int {
	return len(s.teams)
}

// QuestionsUsed is the number of questions resolved or skipped so far.
func (s *State) QuestionsUsed() int {
	return s.cursor
}

// CurrentPrompt returns the question to show. While playing it fails with
// ErrEndOfQuestions once the list is exhausted; in the final phase it returns
// the question reserved for the wager round.
func (s *State) CurrentPrompt() (questions.Record, error) {
	switch s.phase {
	case PhasePlaying, PhaseFinalQuestion:
		if s.cursor >= len(s.questions) {
			return questions.Record{}, ErrEndOfQuestions
		}
		return s.questions[s.cursor], nil
	}

	return questions.Record{}, fmt.Errorf("%w: prompt in %s", ErrWrongPhase, s.phase)
}

// HasFinalQuestion reports whether a question is left for the wager round.
func (s *State) HasFinalQuestion() bool {
	return s.cursor < len(s.questions)
}

// ResolveTurn scores the current team and passes the turn on.
func (s *State) ResolveTurn(outcome Outcome) error {
	if s.phase != PhasePlaying {
		return fmt.Errorf("%w: resolve turn in %s", ErrWrongPhase, s.phase)
	}

	if outcome == Correct {
		s.teams[s.team].Score += PointsPerCorrect
	}

	s.advance()

	return nil
}

// SkipTurn discards the current question without scoring it.
func (s *State) SkipTurn() error {
	if s.phase != PhasePlaying {
		return fmt.Errorf("%w: skip turn in %s", ErrWrongPhase, s.phase)
	}

	s.advance()

	return nil
}

func (s *State) advance() {
	s.team = (s.team + 1) % len(s.teams)
	if s.team == 0 {
		s.round++
	}
	s.cursor++

	if s.round > s.rounds {
		s.phase = PhaseCollectingWagers
	}
}

// MaxWager is the most a team may stake: its score, or nothing if it has none.
func (s *State) MaxWager(team int) int {
	if team < 0 || team >= len(s.teams) {
		return 0
	}
	return max(0, s.teams[team].Score)
}

// NextWagerTeam returns the first team without a wager, or -1 once all have wagered.
func (s *State) NextWagerTeam() int {
	for i := range s.teams {
		if _, ok := s.wagers[i]; !ok {
			return i
		}
	}
	return -1
}

func (s *State) Wager(team int) (int, bool) {
	w, ok := s.wagers[team]
	return w, ok
}

// SubmitWager records a team's stake. When every team has wagered the final
// question begins.
func (s *State) SubmitWager(team, amount int) error {
	if s.phase != PhaseCollectingWagers {
		return fmt.Errorf("%w: wager in %s", ErrWrongPhase, s.phase)
	}

	if team < 0 || team >= len(s.teams) {
		return fmt.Errorf("%w: %d", ErrInvalidTeam, team)
	}

	if limit := s.MaxWager(team); amount < 0 || amount > limit {
		return fmt.Errorf("%w: enter 0 to %d", ErrInvalidWager, limit)
	}

	s.wagers[team] = amount

	if len(s.wagers) == len(s.teams) {
		s.phase = PhaseFinalQuestion
		s.finalTeam = 0
	}

	return nil
}

// NextFinalTeam returns the team whose final answer is judged next, or -1.
func (s *State) NextFinalTeam() int {
	if s.phase != PhaseFinalQuestion {
		return -1
	}
	return s.finalTeam
}

// ResolveFinal applies a team's wager to its score. Teams resolve in order;
// after the last one the game is over.
func (s *State) ResolveFinal(team int, outcome Outcome) error {
	if s.phase != PhaseFinalQuestion {
		return fmt.Errorf("%w: resolve final in %s", ErrWrongPhase, s.phase)
	}

	if team != s.finalTeam {
		return fmt.Errorf("%w: got team %d, expected %d", ErrOutOfTurn, team, s.finalTeam)
	}

	wager := s.wagers[team]
	if outcome == Correct {
		s.teams[team].Score += wager
	} else {
		s.teams[team].Score -= wager
	}

	s.finalTeam++
	if s.finalTeam == len(s.teams) {
		s.phase = PhaseGameOver
	}

	return nil
}

// EndEarly ends a game that ran out of questions, keeping the scores as they are.
func (s *State) EndEarly() error {
	switch s.phase {
	case PhasePlaying, PhaseCollectingWagers, PhaseFinalQuestion:
		s.phase = PhaseGameOver
		return nil
	}

	return fmt.Errorf("%w: end in %s", ErrWrongPhase, s.phase)
}

// Standings lists every team in play order.
func (s *State) Standings() []Standing {
	out := make([]Standing, len(s.teams))
	for i, t := range s.teams {
		out[i] = Standing{Name: t.Name, Score: t.Score}
	}
	return out
}

// Winners returns every team tied at the top score.
func (s *State) Winners() ([]Standing, error) {
	if s.phase != PhaseGameOver {
		return nil, fmt.Errorf("%w: winners in %s", ErrWrongPhase, s.phase)
	}

	if len(s.teams) == 0 {
		return nil, nil
	}

	best := s.teams[0].Score
	for _, t := range s.teams[1:] {
		best = max(best, t.Score)
	}

	var winners []Standing
	for _, t := range s.teams {
		if t.Score == best {
			winners = append(winners, Standing{Name: t.Name, Score: t.Score})
		}
	}

	return winners, nil
}

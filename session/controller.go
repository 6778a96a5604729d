/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package session sequences the screens of a trivia game and turns player
// input into game state changes.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/Seednode/triviaroyale/game"
	"github.com/Seednode/triviaroyale/questions"
)

// Acquirer fetches the questions for a game.
type Acquirer interface {
	Acquire(ctx context.Context, req questions.Request, progress func(source string)) ([]questions.Record, error)
}

// KeyStore persists provider credentials entered on the credentials screen.
type KeyStore interface {
	SaveKeys(gemini, mistral string) error
}

type Logf func(format string, args ...any)

func (l Logf) printf(format string, args ...any) {
	if l == nil {
		return
	}
	l(format, args...)
}

type acquired struct {
	session string
	records []questions.Record
	err     error
}

type progress struct {
	session string
	source  string
}

// Controller owns one game display. All of its state, the game.State
// included, is only touched from the goroutine running Run.
type Controller struct {
	view     View
	acquirer Acquirer
	keys     KeyStore
	logf     Logf

	events chan any
	done   chan struct{}
	ctx    context.Context

	id      string
	cancel  context.CancelFunc
	loading bool

	cfg    game.Config
	state  *game.State
	screen Screen
	retry  bool
}

func New(view View, acquirer Acquirer, keys KeyStore, logf Logf) *Controller {
	c := &Controller{
		view:     view,
		acquirer: acquirer,
		keys:     keys,
		logf:     logf,
		events:   make(chan any, 16),
		done:     make(chan struct{}),
		ctx:      context.Background(),
	}

	c.newSession()
	c.screen = c.base(ScreenTitle)

	return c
}

// Session returns the identifier of the current session. Only safe to call
// from the Run goroutine or before Run starts.
func (c *Controller) Session() string {
	return c.id
}

// Run draws the current screen and handles events until ctx ends.
func (c *Controller) Run(ctx context.Context) {
	c.ctx = ctx

	defer close(c.done)
	defer c.stopAcquisition()

	c.render(c.screen)

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.events:
			c.handle(ev)
		}
	}
}

// Dispatch queues player input. It is safe to call from any goroutine.
func (c *Controller) Dispatch(in Input) {
	c.post(in)
}

func (c *Controller) post(ev any) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Controller) handle(ev any) {
	switch ev := ev.(type) {
	case Input:
		c.handleInput(ev)
	case progress:
		if ev.session != c.id || !c.loading {
			return
		}
		s := c.base(ScreenLoading)
		s.Source = ev.source
		c.render(s)
	case acquired:
		c.handleAcquired(ev)
	}
}

// newSession forgets the current game. Results of work started for the old
// session are discarded when they arrive.
func (c *Controller) newSession() {
	c.stopAcquisition()
	c.id = uuid.NewString()
	c.cfg = game.Config{}
	c.state = nil
	c.retry = false
}

func (c *Controller) stopAcquisition() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.loading = false
}

func (c *Controller) base(name string) Screen {
	s := Screen{
		Type:    "screen",
		Session: c.id,
		Name:    name,
	}

	if c.state != nil {
		s.Round = c.state.Round()
		s.Rounds = c.state.Rounds()
		s.Scores = c.state.Standings()
	}

	return s
}

func (c *Controller) render(s Screen) {
	c.screen = s
	c.view.Render(s)
}

func (c *Controller) rerender(errMsg string, in Input) {
	s := c.screen
	s.Error = errMsg
	s.Notice = ""
	s.Speak = ""
	s.Text = in.Text
	s.Values = in.Values
	c.render(s)
}

func (c *Controller) handleInput(in Input) {
	if in.Type == InputKey && in.Key == KeyEscape {
		c.logf.printf("GAMES: Session %s quit", c.id)
		c.newSession()
		c.render(c.base(ScreenTitle))

		return
	}

	switch c.screen.Name {
	case ScreenTitle, ScreenCredentials:
		c.handleTitle(in)
	case ScreenRounds:
		c.handleRounds(in)
	case ScreenTeams:
		c.handleTeams(in)
	case ScreenNames:
		c.handleNames(in)
	case ScreenCategories:
		c.handleCategories(in)
	case ScreenDifficulty:
		c.handleDifficulty(in)
	case ScreenQuestion:
		c.handleQuestion(in)
	case ScreenAnswer:
		c.handleAnswer(in)
	case ScreenWager:
		c.handleWager(in)
	case ScreenFinalQuestion:
		c.handleFinalQuestion(in)
	case ScreenFinalAnswer:
		c.handleFinalAnswer(in)
	case ScreenWinner:
		if in.Type == InputNewGame || (in.Type == InputKey && in.Key == KeyEnter) {
			c.newSession()
			c.render(c.base(ScreenRounds))
		}
	}
}

func (c *Controller) handleTitle(in Input) {
	switch {
	case in.Type == InputKey && in.Key == KeyEnter, in.Type == InputNewGame:
		c.render(c.base(ScreenRounds))
	case in.Type == InputShowCredentials:
		c.render(c.base(ScreenCredentials))
	case in.Type == InputSkipCredentials:
		c.render(c.base(ScreenTitle))
	case in.Type == InputCredentials:
		c.saveCredentials(in)
	}
}

func (c *Controller) saveCredentials(in Input) {
	var gemini, mistral string
	if len(in.Values) > 0 {
		gemini = strings.TrimSpace(in.Values[0])
	}
	if len(in.Values) > 1 {
		mistral = strings.TrimSpace(in.Values[1])
	}

	s := c.base(ScreenCredentials)

	switch {
	case c.keys == nil:
		s.Error = "API keys cannot be saved on this machine."
	case gemini == "" && mistral == "":
		s.Error = "Please enter at least one API key, or skip to use default questions."
	default:
		if err := c.keys.SaveKeys(gemini, mistral); err != nil {
			c.logf.printf("GAMES: Failed to save API keys: %v", err)
			s.Error = "Failed to save API keys."
			break
		}
		s = c.base(ScreenTitle)
		s.Notice = "API keys saved."
	}

	c.render(s)
}

func parseNumber(text string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	return n, err == nil
}

func (c *Controller) handleRounds(in Input) {
	if in.Type != InputRounds {
		return
	}

	n, ok := parseNumber(in.Text)
	if !ok {
		c.rerender("Please enter a valid number.", in)
		return
	}

	if err := game.ValidateRounds(n); err != nil {
		c.rerender(err.Error(), in)
		return
	}

	c.cfg.Rounds = n
	c.render(c.base(ScreenTeams))
}

func (c *Controller) handleTeams(in Input) {
	if in.Type != InputTeams {
		return
	}

	n, ok := parseNumber(in.Text)
	if !ok {
		c.rerender("Please enter a valid number.", in)
		return
	}

	if err := game.ValidateTeams(n); err != nil {
		c.rerender(err.Error(), in)
		return
	}

	c.cfg.Teams = n
	s := c.base(ScreenNames)
	s.Teams = n
	c.render(s)
}

func (c *Controller) handleNames(in Input) {
	if in.Type != InputNames {
		return
	}

	names, err := game.ValidateTeamNames(in.Values, c.cfg.Teams)
	if err != nil {
		c.rerender(err.Error(), in)
		return
	}

	c.cfg.TeamNames = names
	s := c.base(ScreenCategories)
	s.Teams = c.cfg.Teams
	s.Categories = game.Categories
	s.CategoryCount = game.CategoriesPerTeam * c.cfg.Teams
	c.render(s)
}

func (c *Controller) handleCategories(in Input) {
	switch in.Type {
	case InputDefaultCategories:
		c.cfg.Categories = nil
		c.cfg.UseDefaults = true
	case InputCategories:
		categories, err := game.ValidateCategories(in.Values, c.cfg.Teams)
		if err != nil {
			c.rerender(err.Error(), in)
			return
		}
		c.cfg.Categories = categories
		c.cfg.UseDefaults = false
	default:
		return
	}

	c.render(c.base(ScreenDifficulty))
}

func (c *Controller) handleDifficulty(in Input) {
	if in.Type != InputDifficulties {
		return
	}

	difficulties := make([]questions.Difficulty, 0, len(in.Values))
	for _, v := range in.Values {
		d, err := questions.ParseDifficulty(v)
		if err != nil {
			c.rerender(fmt.Sprintf("Unknown difficulty %q.", v), in)
			return
		}
		difficulties = append(difficulties, d)
	}

	c.cfg.Difficulties = questions.NormalizeDifficulties(difficulties)

	if err := c.cfg.Validate(); err != nil {
		s := c.base(ScreenRounds)
		s.Error = err.Error()
		c.render(s)
		return
	}

	c.startAcquisition()
}

// startAcquisition fetches questions off the event loop. The result comes back
// through the event channel tagged with the session that asked for it.
func (c *Controller) startAcquisition() {
	if c.loading {
		return
	}

	ctx, cancel := context.WithCancel(c.ctx)
	c.cancel = cancel
	c.loading = true

	id := c.id
	req := c.cfg.Request()

	c.logf.printf("GAMES: Session %s loading %d questions (defaults: %t)", id, req.Needed(), req.UseDefaults)

	c.render(c.base(ScreenLoading))

	go func() {
		records, err := c.acquirer.Acquire(ctx, req, func(source string) {
			c.post(progress{session: id, source: source})
		})
		c.post(acquired{session: id, records: records, err: err})
	}()
}

func (c *Controller) handleAcquired(ev acquired) {
	if ev.session != c.id {
		c.logf.printf("GAMES: Discarding questions for stale session %s", ev.session)
		return
	}

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.loading = false

	if ev.err != nil {
		c.logf.printf("GAMES: Session %s failed to load questions: %v", c.id, ev.err)
		s := c.base(ScreenRounds)
		s.Error = "Failed to load any questions. Please check your setup and try again."
		c.render(s)
		return
	}

	state := game.New(c.cfg.TeamNames, c.cfg.Rounds)
	if err := state.Start(ev.records); err != nil {
		s := c.base(ScreenRounds)
		if errors.Is(err, game.ErrInsufficientQuestions) {
			s.Error = "No questions loaded! Please try again."
		} else {
			s.Error = err.Error()
		}
		c.render(s)
		return
	}

	c.state = state
	c.logf.printf("GAMES: Session %s started with %d questions", c.id, len(ev.records))

	var notice string
	if needed := c.cfg.Request().Needed(); len(ev.records) < needed {
		notice = fmt.Sprintf("Only %d questions loaded (needed %d). The game may end early.", len(ev.records), needed)
	}
	c.showQuestion(notice)
}

func (c *Controller) showQuestion(notice string) {
	q, err := c.state.CurrentPrompt()
	if err != nil {
		c.endEarly("No more questions available.")
		return
	}

	c.retry = false
	s := c.base(ScreenQuestion)
	s.Team = c.state.TeamName(c.state.CurrentTeam())
	s.Question = q.Question
	s.Speak = q.Question
	s.Notice = notice
	c.render(s)
}

func (c *Controller) showAnswer(name string, team int) {
	q, err := c.state.CurrentPrompt()
	if err != nil {
		c.endEarly("No more questions available.")
		return
	}

	s := c.base(name)
	s.Team = c.state.TeamName(team)
	s.Question = q.Question
	s.Answer = q.Answer
	s.Retry = c.retry
	if !c.retry {
		s.Speak = q.Answer
	}
	c.render(s)
}

func (c *Controller) handleQuestion(in Input) {
	if in.Type != InputKey {
		return
	}

	switch in.Key {
	case KeyEnter:
		c.retry = false
		c.showAnswer(ScreenAnswer, c.state.CurrentTeam())
	case KeySkip:
		if err := c.state.SkipTurn(); err != nil {
			c.logf.printf("GAMES: Skip failed: %v", err)
			return
		}
		c.afterTurn()
	}
}

// lookup opens a search for the current question and waits for a real verdict.
func (c *Controller) lookup(name string, team int) {
	if c.retry {
		return
	}

	q, err := c.state.CurrentPrompt()
	if err != nil {
		return
	}

	c.view.Lookup(q.Question, SearchURL(q.Question))
	c.retry = true
	c.showAnswer(name, team)
}

func (c *Controller) handleAnswer(in Input) {
	if in.Type != InputKey {
		return
	}

	var outcome game.Outcome

	switch in.Key {
	case KeyYes:
		outcome = game.Correct
	case KeyNo:
		outcome = game.Incorrect
	case KeyLookup:
		c.lookup(ScreenAnswer, c.state.CurrentTeam())
		return
	default:
		return
	}

	if err := c.state.ResolveTurn(outcome); err != nil {
		c.logf.printf("GAMES: Resolve failed: %v", err)
		return
	}

	c.afterTurn()
}

func (c *Controller) afterTurn() {
	switch c.state.Phase() {
	case game.PhasePlaying:
		c.showQuestion("")
	case game.PhaseCollectingWagers:
		if !c.state.HasFinalQuestion() {
			c.endEarly("No question left for the final round!")
			return
		}
		c.showWager("")
	}
}

func (c *Controller) showWager(errMsg string) {
	team := c.state.NextWagerTeam()

	s := c.base(ScreenWager)
	s.Team = c.state.TeamName(team)
	s.MaxWager = c.state.MaxWager(team)
	s.Error = errMsg
	c.render(s)
}

func (c *Controller) handleWager(in Input) {
	if in.Type != InputWager {
		return
	}

	team := c.state.NextWagerTeam()
	limit := c.state.MaxWager(team)

	amount, ok := parseNumber(in.Text)
	if !ok {
		c.rerender("Invalid! Enter a number.", in)
		return
	}

	if err := c.state.SubmitWager(team, amount); err != nil {
		if errors.Is(err, game.ErrInvalidWager) {
			c.rerender(fmt.Sprintf("Invalid! Enter 0 to %d.", limit), in)
			return
		}
		c.logf.printf("GAMES: Wager failed: %v", err)
		return
	}

	if c.state.Phase() == game.PhaseFinalQuestion {
		c.showFinalQuestion()
		return
	}

	c.showWager("")
}

func (c *Controller) showFinalQuestion() {
	q, err := c.state.CurrentPrompt()
	if err != nil {
		c.endEarly("No question left for the final round!")
		return
	}

	s := c.base(ScreenFinalQuestion)
	s.Question = q.Question
	s.Speak = q.Question
	c.render(s)
}

func (c *Controller) handleFinalQuestion(in Input) {
	if in.Type == InputKey && in.Key == KeyEnter {
		c.retry = false
		c.showAnswer(ScreenFinalAnswer, c.state.NextFinalTeam())
	}
}

func (c *Controller) handleFinalAnswer(in Input) {
	if in.Type != InputKey {
		return
	}

	team := c.state.NextFinalTeam()

	var outcome game.Outcome

	switch in.Key {
	case KeyYes:
		outcome = game.Correct
	case KeyNo:
		outcome = game.Incorrect
	case KeyLookup:
		c.lookup(ScreenFinalAnswer, team)
		return
	default:
		return
	}

	if err := c.state.ResolveFinal(team, outcome); err != nil {
		c.logf.printf("GAMES: Final resolve failed: %v", err)
		return
	}

	if c.state.Phase() == game.PhaseGameOver {
		c.showWinner("")
		return
	}

	c.retry = false
	s := c.base(ScreenFinalAnswer)
	q, _ := c.state.CurrentPrompt()
	s.Team = c.state.TeamName(c.state.NextFinalTeam())
	s.Question = q.Question
	s.Answer = q.Answer
	c.render(s)
}

func (c *Controller) endEarly(notice string) {
	if err := c.state.EndEarly(); err != nil {
		c.logf.printf("GAMES: End failed: %v", err)
	}
	c.showWinner(notice)
}

func (c *Controller) showWinner(notice string) {
	winners, err := c.state.Winners()
	if err != nil {
		c.logf.printf("GAMES: Winners unavailable: %v", err)
	}

	s := c.base(ScreenWinner)
	s.Winners = winners
	s.Notice = notice
	c.render(s)

	c.logf.printf("GAMES: Session %s finished", c.id)
}

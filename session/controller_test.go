/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Seednode/triviaroyale/game"
	"github.com/Seednode/triviaroyale/questions"
)

type lookup struct {
	question string
	url      string
}

type fakeView struct {
	mu      sync.Mutex
	screens []Screen
	lookups []lookup
}

func (v *fakeView) Render(s Screen) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.screens = append(v.screens, s)
}

func (v *fakeView) Lookup(question, searchURL string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.lookups = append(v.lookups, lookup{question: question, url: searchURL})
}

func (v *fakeView) last() Screen {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(v.screens) == 0 {
		return Screen{}
	}
	return v.screens[len(v.screens)-1]
}

type fakeAcquirer struct {
	records []questions.Record
	err     error
	block   chan struct{}

	mu       sync.Mutex
	requests []questions.Request
}

func (a *fakeAcquirer) Acquire(ctx context.Context, req questions.Request, progress func(string)) ([]questions.Record, error) {
	a.mu.Lock()
	a.requests = append(a.requests, req)
	a.mu.Unlock()

	progress("fake-model")

	if a.block != nil {
		select {
		case <-a.block:
		case <-ctx.Done():
		}
	}

	return a.records, a.err
}

type fakeKeys struct {
	gemini, mistral string
	err             error
}

func (k *fakeKeys) SaveKeys(gemini, mistral string) error {
	if k.err != nil {
		return k.err
	}
	k.gemini, k.mistral = gemini, mistral
	return nil
}

func records(n int) []questions.Record {
	out := make([]questions.Record, n)
	for i := range out {
		out[i] = questions.Record{
			Question: fmt.Sprintf("question %d", i),
			Answer:   fmt.Sprintf("answer %d", i),
		}
	}
	return out
}

func key(k string) Input {
	return Input{Type: InputKey, Key: k}
}

// settle handles queued events until no acquisition is in flight.
func settle(t *testing.T, c *Controller) {
	t.Helper()

	for c.loading {
		select {
		case ev := <-c.events:
			c.handle(ev)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for questions")
		}
	}
}

func expectScreen(t *testing.T, v *fakeView, name string) Screen {
	t.Helper()

	s := v.last()
	if s.Name != name {
		t.Fatalf("screen = %q (error %q), want %q", s.Name, s.Error, name)
	}
	return s
}

// setup walks the setup screens for a two team game with default categories.
func setup(t *testing.T, c *Controller, v *fakeView, rounds int) {
	t.Helper()

	c.handle(key(KeyEnter))
	expectScreen(t, v, ScreenRounds)

	c.handle(Input{Type: InputRounds, Text: fmt.Sprint(rounds)})
	expectScreen(t, v, ScreenTeams)

	c.handle(Input{Type: InputTeams, Text: "2"})
	if s := expectScreen(t, v, ScreenNames); s.Teams != 2 {
		t.Fatalf("names screen asks for %d teams", s.Teams)
	}

	c.handle(Input{Type: InputNames, Values: []string{"Red", "Blue"}})
	if s := expectScreen(t, v, ScreenCategories); s.CategoryCount != 6 {
		t.Fatalf("category count = %d, want 6", s.CategoryCount)
	}

	c.handle(Input{Type: InputDefaultCategories})
	expectScreen(t, v, ScreenDifficulty)

	c.handle(Input{Type: InputDifficulties, Values: []string{"easy"}})
	expectScreen(t, v, ScreenLoading)
}

func TestFullGame(t *testing.T) {
	v := &fakeView{}
	a := &fakeAcquirer{records: records(5)}
	c := New(v, a, nil, nil)

	setup(t, c, v, 1)
	settle(t, c)

	if len(a.requests) != 1 || !a.requests[0].UseDefaults || a.requests[0].Needed() != 3 {
		t.Fatalf("requests = %+v", a.requests)
	}

	s := expectScreen(t, v, ScreenQuestion)
	if s.Team != "Red" || s.Question != "question 0" || s.Speak != "question 0" || s.Notice != "" {
		t.Fatalf("question screen = %+v", s)
	}

	c.handle(key(KeyEnter))
	if s := expectScreen(t, v, ScreenAnswer); s.Answer != "answer 0" {
		t.Fatalf("answer = %q", s.Answer)
	}
	c.handle(key(KeyYes))

	s = expectScreen(t, v, ScreenQuestion)
	if s.Team != "Blue" || s.Question != "question 1" {
		t.Fatalf("question screen = %+v", s)
	}
	c.handle(key(KeyEnter))
	c.handle(key(KeyNo))

	s = expectScreen(t, v, ScreenWager)
	if s.Team != "Red" || s.MaxWager != 10 {
		t.Fatalf("wager screen = %+v", s)
	}
	c.handle(Input{Type: InputWager, Text: "10"})

	s = expectScreen(t, v, ScreenWager)
	if s.Team != "Blue" || s.MaxWager != 0 {
		t.Fatalf("wager screen = %+v", s)
	}
	c.handle(Input{Type: InputWager, Text: "0"})

	if s := expectScreen(t, v, ScreenFinalQuestion); s.Question != "question 2" {
		t.Fatalf("final question = %q", s.Question)
	}

	c.handle(key(KeyEnter))
	if s := expectScreen(t, v, ScreenFinalAnswer); s.Team != "Red" {
		t.Fatalf("final answer team = %q", s.Team)
	}
	c.handle(key(KeyYes))
	if s := expectScreen(t, v, ScreenFinalAnswer); s.Team != "Blue" {
		t.Fatalf("final answer team = %q", s.Team)
	}
	c.handle(key(KeyNo))

	s = expectScreen(t, v, ScreenWinner)
	if len(s.Winners) != 1 || s.Winners[0] != (game.Standing{Name: "Red", Score: 20}) {
		t.Fatalf("winners = %+v", s.Winners)
	}

	c.handle(Input{Type: InputNewGame})
	if s := expectScreen(t, v, ScreenRounds); s.Scores != nil {
		t.Fatalf("new game kept scores %+v", s.Scores)
	}
}

func TestSetupErrorsKeepInput(t *testing.T) {
	v := &fakeView{}
	c := New(v, &fakeAcquirer{}, nil, nil)

	c.handle(key(KeyEnter))

	c.handle(Input{Type: InputRounds, Text: "abc"})
	s := expectScreen(t, v, ScreenRounds)
	if s.Error != "Please enter a valid number." || s.Text != "abc" {
		t.Fatalf("rounds screen = %+v", s)
	}

	c.handle(Input{Type: InputRounds, Text: "26"})
	s = expectScreen(t, v, ScreenRounds)
	if s.Error != "Please enter a number between 1 and 25" || s.Text != "26" {
		t.Fatalf("rounds screen = %+v", s)
	}

	c.handle(Input{Type: InputRounds, Text: " 3 "})
	c.handle(Input{Type: InputTeams, Text: "1"})
	c.handle(Input{Type: InputNames, Values: []string{"  "}})
	if s := expectScreen(t, v, ScreenNames); s.Error != "Please enter a name for team 1" {
		t.Fatalf("names error = %q", s.Error)
	}

	c.handle(Input{Type: InputNames, Values: []string{"Solo"}})
	c.handle(Input{Type: InputCategories, Values: []string{"Wine", "Pets"}})
	s = expectScreen(t, v, ScreenCategories)
	if s.Error != "Selected 2. Please select exactly 3" || len(s.Values) != 2 {
		t.Fatalf("categories screen = %+v", s)
	}

	c.handle(Input{Type: InputCategories, Values: []string{"Wine", "Pets", "Hiking"}})
	expectScreen(t, v, ScreenDifficulty)

	c.handle(Input{Type: InputDifficulties, Values: []string{"impossible"}})
	expectScreen(t, v, ScreenDifficulty)
}

func TestCustomCategoriesReachAcquirer(t *testing.T) {
	v := &fakeView{}
	a := &fakeAcquirer{records: records(4)}
	c := New(v, a, nil, nil)

	c.handle(key(KeyEnter))
	c.handle(Input{Type: InputRounds, Text: "2"})
	c.handle(Input{Type: InputTeams, Text: "1"})
	c.handle(Input{Type: InputNames, Values: []string{"Solo"}})
	c.handle(Input{Type: InputCategories, Values: []string{"Wine", "Pets", "Hiking"}})
	c.handle(Input{Type: InputDifficulties, Values: []string{"hard", "easy"}})
	settle(t, c)

	req := a.requests[0]
	if req.UseDefaults || len(req.Categories) != 3 || req.Difficulties[0] != questions.Easy {
		t.Fatalf("request = %+v", req)
	}
}

func TestLoadingShowsSource(t *testing.T) {
	v := &fakeView{}
	a := &fakeAcquirer{records: records(5), block: make(chan struct{})}
	c := New(v, a, nil, nil)

	setup(t, c, v, 1)

	select {
	case ev := <-c.events:
		c.handle(ev)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for progress")
	}

	if s := expectScreen(t, v, ScreenLoading); s.Source != "fake-model" {
		t.Fatalf("source = %q", s.Source)
	}

	close(a.block)
	settle(t, c)
	expectScreen(t, v, ScreenQuestion)
}

func TestLookupRetries(t *testing.T) {
	v := &fakeView{}
	c := New(v, &fakeAcquirer{records: records(5)}, nil, nil)

	setup(t, c, v, 1)
	settle(t, c)

	c.handle(key(KeyEnter))
	c.handle(key(KeyLookup))

	s := expectScreen(t, v, ScreenAnswer)
	if !s.Retry || s.Speak != "" {
		t.Fatalf("answer screen after lookup = %+v", s)
	}
	if len(v.lookups) != 1 || v.lookups[0].url != SearchURL("question 0") {
		t.Fatalf("lookups = %+v", v.lookups)
	}

	c.handle(key(KeyLookup))
	if len(v.lookups) != 1 {
		t.Fatalf("second lookup opened another search")
	}
	if c.state.CurrentTeam() != 0 || c.state.Standings()[0].Score != 0 {
		t.Fatal("lookup changed the game")
	}

	c.handle(key(KeyYes))
	if s := expectScreen(t, v, ScreenQuestion); s.Team != "Blue" || s.Retry {
		t.Fatalf("question screen = %+v", s)
	}
}

func TestSkip(t *testing.T) {
	v := &fakeView{}
	c := New(v, &fakeAcquirer{records: records(5)}, nil, nil)

	setup(t, c, v, 1)
	settle(t, c)

	c.handle(key(KeySkip))

	if s := expectScreen(t, v, ScreenQuestion); s.Team != "Blue" || s.Question != "question 1" {
		t.Fatalf("question screen = %+v", s)
	}
}

func TestQuestionsRunOut(t *testing.T) {
	v := &fakeView{}
	c := New(v, &fakeAcquirer{records: records(1)}, nil, nil)

	setup(t, c, v, 3)
	settle(t, c)

	c.handle(key(KeyEnter))
	c.handle(key(KeyYes))

	s := expectScreen(t, v, ScreenWinner)
	if s.Notice != "No more questions available." {
		t.Fatalf("notice = %q", s.Notice)
	}
	if len(s.Winners) != 1 || s.Winners[0].Name != "Red" {
		t.Fatalf("winners = %+v", s.Winners)
	}
}

func TestShortQuestionListWarns(t *testing.T) {
	v := &fakeView{}
	c := New(v, &fakeAcquirer{records: records(2)}, nil, nil)

	setup(t, c, v, 3)
	settle(t, c)

	s := expectScreen(t, v, ScreenQuestion)
	if s.Notice != "Only 2 questions loaded (needed 7). The game may end early." {
		t.Fatalf("notice = %q", s.Notice)
	}

	c.handle(key(KeyEnter))
	c.handle(key(KeyYes))

	if s := expectScreen(t, v, ScreenQuestion); s.Notice != "" {
		t.Fatalf("second question notice = %q", s.Notice)
	}
}

func TestNoFinalQuestion(t *testing.T) {
	v := &fakeView{}
	c := New(v, &fakeAcquirer{records: records(2)}, nil, nil)

	setup(t, c, v, 1)
	settle(t, c)

	c.handle(key(KeySkip))
	c.handle(key(KeySkip))

	if s := expectScreen(t, v, ScreenWinner); s.Notice != "No question left for the final round!" {
		t.Fatalf("notice = %q", s.Notice)
	}
}

func TestWagerErrors(t *testing.T) {
	v := &fakeView{}
	c := New(v, &fakeAcquirer{records: records(3)}, nil, nil)

	setup(t, c, v, 1)
	settle(t, c)

	c.handle(key(KeyEnter))
	c.handle(key(KeyYes))
	c.handle(key(KeySkip))

	c.handle(Input{Type: InputWager, Text: "lots"})
	if s := expectScreen(t, v, ScreenWager); s.Error != "Invalid! Enter a number." || s.Text != "lots" {
		t.Fatalf("wager screen = %+v", s)
	}

	c.handle(Input{Type: InputWager, Text: "11"})
	if s := expectScreen(t, v, ScreenWager); s.Error != "Invalid! Enter 0 to 10." || s.Team != "Red" {
		t.Fatalf("wager screen = %+v", s)
	}

	c.handle(Input{Type: InputWager, Text: "5"})
	if s := expectScreen(t, v, ScreenWager); s.Error != "" || s.Team != "Blue" {
		t.Fatalf("wager screen = %+v", s)
	}
}

func TestAcquisitionFailure(t *testing.T) {
	v := &fakeView{}
	c := New(v, &fakeAcquirer{err: questions.ErrNoQuestions}, nil, nil)

	setup(t, c, v, 1)
	settle(t, c)

	s := expectScreen(t, v, ScreenRounds)
	if s.Error == "" {
		t.Fatal("expected an error on the rounds screen")
	}
	if c.state != nil {
		t.Fatal("game started without questions")
	}
}

func TestEmptyQuestionList(t *testing.T) {
	v := &fakeView{}
	c := New(v, &fakeAcquirer{}, nil, nil)

	setup(t, c, v, 1)
	settle(t, c)

	if s := expectScreen(t, v, ScreenRounds); s.Error != "No questions loaded! Please try again." {
		t.Fatalf("error = %q", s.Error)
	}
}

func TestEscapeDropsStaleQuestions(t *testing.T) {
	v := &fakeView{}
	a := &fakeAcquirer{records: records(5), block: make(chan struct{})}
	c := New(v, a, nil, nil)

	setup(t, c, v, 1)
	old := c.Session()

	c.handle(key(KeyEscape))
	expectScreen(t, v, ScreenTitle)
	if c.Session() == old {
		t.Fatal("escape kept the old session")
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-c.events:
			c.handle(ev)
			if _, ok := ev.(acquired); ok {
				if s := expectScreen(t, v, ScreenTitle); s.Session != c.Session() {
					t.Fatalf("screen from session %q", s.Session)
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for the cancelled acquisition")
		}
	}
}

func TestCredentials(t *testing.T) {
	tests := []struct {
		name      string
		values    []string
		saveErr   error
		wantName  string
		wantSaved bool
	}{
		{name: "both keys", values: []string{" g-key ", "m-key"}, wantName: ScreenTitle, wantSaved: true},
		{name: "one key", values: []string{"", "m-key"}, wantName: ScreenTitle, wantSaved: true},
		{name: "no keys", values: []string{"", " "}, wantName: ScreenCredentials},
		{name: "save fails", values: []string{"g-key"}, saveErr: errors.New("read-only"), wantName: ScreenCredentials},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := &fakeView{}
			keys := &fakeKeys{err: tc.saveErr}
			c := New(v, &fakeAcquirer{}, keys, nil)

			c.handle(Input{Type: InputShowCredentials})
			expectScreen(t, v, ScreenCredentials)

			c.handle(Input{Type: InputCredentials, Values: tc.values})
			s := expectScreen(t, v, tc.wantName)

			saved := keys.gemini != "" || keys.mistral != ""
			if saved != tc.wantSaved {
				t.Fatalf("saved = %t, keys = %+v", saved, keys)
			}
			if tc.wantSaved && (s.Notice != "API keys saved." || keys.gemini == " g-key ") {
				t.Fatalf("screen = %+v, keys = %+v", s, keys)
			}
			if !tc.wantSaved && s.Error == "" {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestRunAndDispatch(t *testing.T) {
	v := &fakeView{}
	c := New(v, &fakeAcquirer{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())

	finished := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(finished)
	}()

	c.Dispatch(key(KeyEnter))

	deadline := time.Now().Add(2 * time.Second)
	for v.last().Name != ScreenRounds {
		if time.Now().After(deadline) {
			t.Fatalf("screen = %q, want rounds", v.last().Name)
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-finished

	// Dispatch after shutdown must not block.
	for range 32 {
		c.Dispatch(key(KeyEnter))
	}
}

/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package questions

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultSource is reported through the progress callback when the bank is consulted.
	DefaultSource = "Default Files"

	DefaultTimeout = 45 * time.Second
)

// Provider is a text generation service.
type Provider interface {
	Name() string
	Configured() bool
	Generate(ctx context.Context, prompt string) (string, error)
}

// Acquirer resolves a Request into questions: each configured provider in
// order, then the bank.
type Acquirer struct {
	providers []Provider
	bank      *Bank
	timeout   time.Duration
	logf      Logf
}

func NewAcquirer(bank *Bank, timeout time.Duration, logf Logf, providers ...Provider) *Acquirer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Acquirer{
		providers: providers,
		bank:      bank,
		timeout:   timeout,
		logf:      logf,
	}
}

// Acquire never fails because of a provider. It returns an error wrapping
// ErrNoQuestions once every provider and the bank have come up empty, or the
// context error if ctx ends while a provider is being consulted.
func (a *Acquirer) Acquire(ctx context.Context, req Request, progress func(source string)) ([]Record, error) {
	if progress == nil {
		progress = func(string) {}
	}

	if req.UseDefaults {
		a.logf.printf("QUESTIONS: Default categories selected, skipping providers")
	} else {
		prompt := BuildPrompt(req)

		for _, p := range a.providers {
			if !p.Configured() {
				a.logf.printf("QUESTIONS: No API key for %s, skipping", p.Name())

				continue
			}

			progress(p.Name())

			records := a.attempt(ctx, p, prompt)
			if len(records) > 0 {
				a.logf.printf("QUESTIONS: Parsed %d questions from %s", len(records), p.Name())

				return records, nil
			}

			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		}

		a.logf.printf("QUESTIONS: No provider produced questions, falling back to default questions")
	}

	progress(DefaultSource)

	records, err := a.bank.Load(req.Difficulties, req.Needed())
	if err != nil {
		if errors.Is(err, ErrNoQuestions) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %w", ErrNoQuestions, err)
	}

	return records, nil
}

// attempt runs a single provider call, absorbing errors, timeouts and panics.
func (a *Acquirer) attempt(ctx context.Context, p Provider, prompt string) (records []Record) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			a.logf.printf("QUESTIONS: %s panicked: %v", p.Name(), r)
			records = nil
		}
	}()

	raw, err := p.Generate(ctx, prompt)
	if err != nil {
		a.logf.printf("QUESTIONS: %s failed: %v", p.Name(), err)

		return nil
	}

	records = Extract(raw)
	if records == nil {
		a.logf.printf("QUESTIONS: %s returned an unusable response (%d bytes)", p.Name(), len(raw))
	}

	return records
}

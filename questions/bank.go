/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package questions

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"strings"

	"github.com/tidwall/gjson"
)

// spare is how many questions beyond the needed count are kept after shuffling.
const spare = 20

// Logf is an optional printf-style logger. A nil Logf discards output.
type Logf func(format string, args ...any)

func (l Logf) printf(format string, args ...any) {
	if l == nil {
		return
	}
	l(format, args...)
}

// Bank loads the bundled question files, one per difficulty.
type Bank struct {
	fsys fs.FS
	logf Logf
}

func NewBank(fsys fs.FS, logf Logf) *Bank {
	return &Bank{
		fsys: fsys,
		logf: logf,
	}
}

// FileName returns the name of the question file backing a difficulty.
func FileName(d Difficulty) string {
	return "questions_" + strings.ToLower(string(d)) + ".json"
}

// Load reads every selected difficulty, drops malformed records, shuffles the
// combined pool and keeps at most needed+20 of them.
func (b *Bank) Load(difficulties []Difficulty, needed int) ([]Record, error) {
	var (
		pool   []Record
		usable int
	)

	for _, d := range NormalizeDifficulties(difficulties) {
		name := FileName(d)

		records, err := b.read(name)
		if err != nil {
			b.logf.printf("QUESTIONS: Skipping %s: %v", name, err)

			continue
		}

		usable++
		pool = append(pool, records...)
	}

	if usable == 0 {
		return nil, ErrNoSources
	}

	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: question files held no valid records", ErrNoQuestions)
	}

	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	if limit := needed + spare; needed > 0 && len(pool) > limit {
		b.logf.printf("QUESTIONS: Trimming default questions from %d to %d", len(pool), limit)
		pool = pool[:limit]
	}

	return pool, nil
}

func (b *Bank) read(name string) ([]Record, error) {
	data, err := fs.ReadFile(b.fsys, name)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON")
	}

	parsed := gjson.ParseBytes(data)
	if !parsed.IsArray() {
		return nil, errors.New("expected a list of questions")
	}

	var (
		records []Record
		dropped int
	)

	parsed.ForEach(func(_, item gjson.Result) bool {
		r := recordFrom(item)
		if !item.IsObject() || !r.valid() {
			dropped++

			return true
		}

		records = append(records, r)

		return true
	})

	if dropped > 0 {
		b.logf.printf("QUESTIONS: Dropped %d malformed records from %s", dropped, name)
	}

	return records, nil
}

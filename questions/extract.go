/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package questions

import (
	"strings"

	"github.com/tidwall/gjson"
)

// listKeys are the object keys a provider may wrap its question list in.
var listKeys = []string{"questions", "trivia", "data", "results"}

// Extract pulls a question list out of free-form provider text. It returns nil
// unless the text holds a non-empty JSON array whose every element is an object
// with both a question and an answer key.
func Extract(raw string) []Record {
	candidate := locateList(cleanFences(raw))
	if !candidate.IsArray() {
		return nil
	}

	items := candidate.Array()
	if len(items) == 0 {
		return nil
	}

	for _, item := range items {
		if !item.IsObject() || !item.Get("question").Exists() || !item.Get("answer").Exists() {
			return nil
		}
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		if r := recordFrom(item); r.valid() {
			records = append(records, r)
		}
	}

	if len(records) == 0 {
		return nil
	}

	return records
}

func cleanFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}

// locateList trims s to the first array or object it contains, parses it, and
// unwraps a list stored under one of the conventional keys.
func locateList(s string) gjson.Result {
	listStart := strings.IndexByte(s, '[')
	objStart := strings.IndexByte(s, '{')

	switch {
	case listStart != -1 && (objStart == -1 || listStart < objStart):
		s = s[listStart:]
		if end := strings.LastIndexByte(s, ']'); end != -1 {
			s = s[:end+1]
		}
	case objStart != -1:
		s = s[objStart:]
		if end := strings.LastIndexByte(s, '}'); end != -1 {
			s = s[:end+1]
		}
	}

	if !gjson.Valid(s) {
		return gjson.Result{}
	}

	parsed := gjson.Parse(s)
	if parsed.IsObject() {
		for _, key := range listKeys {
			if list := parsed.Get(key); list.IsArray() {
				return list
			}
		}

		return gjson.Result{}
	}

	return parsed
}

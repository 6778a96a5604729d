/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package questions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

const (
	GeminiModel   = "gemini-2.0-flash"
	GeminiBaseURL = "https://generativelanguage.googleapis.com"

	MistralModel   = "mistral-large-latest"
	MistralBaseURL = "https://api.mistral.ai"

	maxResponseSize = 4 << 20
)

var errEmptyResponse = errors.New("empty response")

// Gemini calls the Google Gemini generateContent endpoint.
type Gemini struct {
	Model   string
	BaseURL string
	Key     func() string
	Client  *http.Client
}

func (g *Gemini) Name() string {
	return g.Model
}

func (g *Gemini) Configured() bool {
	return g.Key != nil && g.Key() != ""
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if !g.Configured() {
		return "", errors.New("gemini API key not set")
	}

	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.BaseURL, url.PathEscape(g.Model))

	data, err := postJSON(ctx, g.Client, endpoint, map[string]string{
		"x-goog-api-key": g.Key(),
	}, body)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}

	text := gjson.GetBytes(data, "candidates.0.content.parts.0.text").String()
	if text == "" {
		return "", fmt.Errorf("gemini: %w", errEmptyResponse)
	}

	return text, nil
}

// Mistral calls the Mistral chat completions endpoint, asking for a JSON object.
type Mistral struct {
	Model   string
	BaseURL string
	Key     func() string
	Client  *http.Client
}

func (m *Mistral) Name() string {
	return m.Model
}

func (m *Mistral) Configured() bool {
	return m.Key != nil && m.Key() != ""
}

func (m *Mistral) Generate(ctx context.Context, prompt string) (string, error) {
	if !m.Configured() {
		return "", errors.New("mistral API key not set")
	}

	body := map[string]any{
		"model": m.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"response_format": map[string]string{"type": "json_object"},
	}

	data, err := postJSON(ctx, m.Client, m.BaseURL+"/v1/chat/completions", map[string]string{
		"Authorization": "Bearer " + m.Key(),
	}, body)
	if err != nil {
		return "", fmt.Errorf("mistral: %w", err)
	}

	text := gjson.GetBytes(data, "choices.0.message.content").String()
	if text == "" {
		return "", fmt.Errorf("mistral: %w", errEmptyResponse)
	}

	return text, nil
}

func postJSON(ctx context.Context, client *http.Client, endpoint string, headers map[string]string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return data, nil
}

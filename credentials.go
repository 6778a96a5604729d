/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

const (
	geminiKey  = "gemini_api_key"
	mistralKey = "mistral_api_key"
)

var errNoCredentialsFile = errors.New("no credentials file configured")

// Credentials holds the provider API keys. They come from the environment
// or the credentials file, and can be replaced at runtime from the browser.
type Credentials struct {
	mu      sync.RWMutex
	cfg     *Config
	path    string
	gemini  string
	mistral string
}

func loadCredentials(cfg *Config) (*Credentials, error) {
	c := &Credentials{
		cfg:  cfg,
		path: cfg.credentialsFile,
	}

	v := viper.New()
	_ = v.BindEnv(geminiKey, "TRIVIAROYALE_GEMINI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv(mistralKey, "TRIVIAROYALE_MISTRAL_API_KEY", "MISTRAL_API_KEY")

	if c.path != "" {
		v.SetConfigFile(c.path)
		v.SetConfigType("yaml")

		err := v.ReadInConfig()
		switch {
		case err == nil:
			logf(cfg, "CREDENTIALS: Read API keys from %s", c.path)
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("reading %s: %w", c.path, err)
		}
	}

	c.gemini = v.GetString(geminiKey)
	c.mistral = v.GetString(mistralKey)

	logf(cfg, "CREDENTIALS: Gemini key set: %t, Mistral key set: %t", c.gemini != "", c.mistral != "")

	return c, nil
}

func (c *Credentials) Gemini() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.gemini
}

func (c *Credentials) Mistral() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.mistral
}

// SaveKeys writes the keys to the credentials file. An empty key leaves the
// current one in place.
func (c *Credentials) SaveKeys(gemini, mistral string) error {
	if c.path == "" {
		return errNoCredentialsFile
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gemini == "" {
		gemini = c.gemini
	}
	if mistral == "" {
		mistral = c.mistral
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigPermissions(0o600)
	v.SetConfigType("yaml")
	v.Set(geminiKey, gemini)
	v.Set(mistralKey, mistral)

	if err := v.WriteConfigAs(c.path); err != nil {
		return fmt.Errorf("writing %s: %w", c.path, err)
	}

	c.gemini, c.mistral = gemini, mistral

	logf(c.cfg, "CREDENTIALS: Saved API keys to %s", c.path)

	return nil
}

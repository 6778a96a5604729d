/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Seednode/triviaroyale/questions"
)

// A session timeout of 0 disables the reaper.
const minSessionTimeout = time.Minute

type Config struct {
	bind            string
	credentialsFile string
	geminiModel     string
	mistralModel    string
	port            int
	prefix          string
	profile         bool
	providerTimeout time.Duration
	questionsDir    string
	sessionTimeout  time.Duration
	tlsCert         string
	tlsKey          string
	verbose         bool
	version         bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.providerTimeout <= 0 {
		return fmt.Errorf("invalid provider timeout (must be positive): %s", c.providerTimeout)
	}
	if c.sessionTimeout < 0 || (c.sessionTimeout > 0 && c.sessionTimeout < minSessionTimeout) {
		return fmt.Errorf("invalid session timeout (must be 0 or at least %s): %s", minSessionTimeout, c.sessionTimeout)
	}
	if c.questionsDir != "" {
		info, err := os.Stat(c.questionsDir)
		if err != nil {
			return fmt.Errorf("invalid questions directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("invalid questions directory (not a directory): %s", c.questionsDir)
		}
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// defaultCredentialsFile is the user-scoped location API keys are saved to.
func defaultCredentialsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "triviaroyale", "credentials.yaml")
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("TRIVIAROYALE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "triviaroyale",
		Short:         "A team trivia game for the living room, with questions written by AI.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: TRIVIAROYALE_BIND)")
	fs.StringVar(&cfg.credentialsFile, "credentials-file", defaultCredentialsFile(), "file API keys are read from and saved to (env: TRIVIAROYALE_CREDENTIALS_FILE)")
	fs.StringVar(&cfg.geminiModel, "gemini-model", questions.GeminiModel, "Gemini model used to write questions (env: TRIVIAROYALE_GEMINI_MODEL)")
	fs.StringVar(&cfg.mistralModel, "mistral-model", questions.MistralModel, "Mistral model used when Gemini fails (env: TRIVIAROYALE_MISTRAL_MODEL)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: TRIVIAROYALE_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: TRIVIAROYALE_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: TRIVIAROYALE_PROFILE)")
	fs.DurationVar(&cfg.providerTimeout, "provider-timeout", questions.DefaultTimeout, "time to wait for each question provider (env: TRIVIAROYALE_PROVIDER_TIMEOUT)")
	fs.StringVar(&cfg.questionsDir, "questions-dir", "", "directory of questions_<difficulty>.json files to use instead of the built-in ones (env: TRIVIAROYALE_QUESTIONS_DIR)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle games are ended (env: TRIVIAROYALE_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: TRIVIAROYALE_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: TRIVIAROYALE_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: TRIVIAROYALE_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: TRIVIAROYALE_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("triviaroyale v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

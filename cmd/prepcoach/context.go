package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"prepcoach/internal/config"
	"prepcoach/internal/credentials"
	"prepcoach/internal/logging"
	"prepcoach/internal/services"
	"prepcoach/internal/services/backend"
)

type commandContext struct {
	configFlag *string
	verbose    *bool
	jsonOutput *bool

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger

	credsOnce sync.Once
	creds     *credentials.Context
	credsErr  error

	clientOnce sync.Once
	client     *backend.Client
}

func newCommandContext(configFlag *string, verbose, jsonOutput *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
		jsonOutput: jsonOutput,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) wantJSON() bool {
	return c.jsonOutput != nil && *c.jsonOutput
}

// ensureLogger builds the file+stderr logger once. Commands that run before
// configuration loads get a stderr-only logger.
func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		verbose := c.verbose != nil && *c.verbose
		cfg := c.configValue()
		logger, err := logging.NewFromConfig(cfg, verbose)
		if err != nil {
			logger, _ = logging.NewFromConfig(nil, verbose)
		} else if cfg != nil {
			logging.CleanupOldLogs(context.Background(), logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, time.Now())
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) credentials() (*credentials.Context, error) {
	c.credsOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.credsErr = err
			return
		}
		c.creds, c.credsErr = credentials.NewContext(credentials.NewFileStore(cfg.CredentialsPath()), cfg.API.Token)
	})
	return c.creds, c.credsErr
}

// backendClient returns a client whose bearer token tracks the credential
// context, so sign-in and sign-out take effect on the next request.
func (c *commandContext) backendClient() (*backend.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	creds, err := c.credentials()
	if err != nil {
		return nil, err
	}
	c.clientOnce.Do(func() {
		c.client = backend.NewClient(backend.Config{
			BaseURL:              cfg.API.BaseURL,
			TimeoutSeconds:       cfg.API.TimeoutSeconds,
			UploadTimeoutSeconds: cfg.API.UploadTimeoutSeconds,
			RetryAttempts:        cfg.API.RetryAttempts,
		},
			backend.WithTokenSource(creds),
			backend.WithLogger(logging.NewComponentLogger(c.ensureLogger(), "backend")),
		)
	})
	return c.client, nil
}

// authenticatedClient is backendClient for commands that need a signed-in user.
func (c *commandContext) authenticatedClient() (*backend.Client, error) {
	client, err := c.backendClient()
	if err != nil {
		return nil, err
	}
	if !c.creds.Authenticated() {
		return nil, services.Wrap(services.ErrUnauthorized, "auth", "", "not signed in", nil)
	}
	return client, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// formatError renders err with the next step the user should take.
func formatError(err error) string {
	msg := err.Error()
	hint := services.Hint(err)
	if hint == "" {
		hint = voiceHint(err)
	}
	if hint == "" {
		return msg
	}
	return fmt.Sprintf("%s\nhint: %s", msg, hint)
}

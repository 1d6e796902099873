// Package cli implements the chat command line client.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/retrend/chat/internal/api"
	"github.com/retrend/chat/internal/config"
	"github.com/retrend/chat/internal/logging"
)

// Execute runs the root command.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "chat",
		Short:         "Retrend marketplace chat client",
		Long:          "chat talks to the Retrend message store: log in, send messages, and watch a conversation live.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	cmd.PersistentFlags().String("config", "", "config file (default is $HOME/.config/retrend-chat/config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "override logging level (debug, info, warn, error)")

	cmd.AddCommand(
		newRegisterCmd(),
		newLoginCmd(),
		newSendCmd(),
		newWatchCmd(),
	)
	return cmd
}

// loadConfig resolves configuration and initializes logging for a command.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	loader := config.NewLoader()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loader.SetConfigFile(path)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		EnableCaller: cfg.Logging.EnableCaller,
	})
	return cfg, nil
}

// newClient builds an API client carrying the saved bearer token, if one
// exists.
func newClient(cfg *config.Config) (*api.Client, error) {
	token, _ := readToken(cfg)
	return api.New(api.Config{
		BaseURL: cfg.Client.APIBaseURL,
		Token:   token,
	})
}

func readToken(cfg *config.Config) (string, error) {
	data, err := os.ReadFile(cfg.Client.TokenFile)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func writeToken(cfg *config.Config, token string) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Client.TokenFile), 0o700); err != nil {
		return err
	}
	return os.WriteFile(cfg.Client.TokenFile, []byte(token+"\n"), 0o600)
}

// requireIdentity returns the configured viewer identity or an error
// telling the user how to set it.
func requireIdentity(cfg *config.Config) (string, error) {
	email := strings.TrimSpace(cfg.Client.Email)
	if email == "" {
		return "", fmt.Errorf("no identity configured: set client.email in the config file or RETREND_CLIENT_EMAIL")
	}
	return email, nil
}

package cmd

import (
	"fmt"
	"os"

	"github.com/burnlang/saplin/pkg/config"
	"github.com/burnlang/saplin/pkg/provider"
	"github.com/burnlang/saplin/pkg/runtime"
	"github.com/burnlang/saplin/pkg/saplin"
	"github.com/burnlang/saplin/pkg/value"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var configPath string
	var providerName string
	var apiKeyEnv string

	runCmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Run a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args[0], configPath, providerName, apiKeyEnv)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file (run options, provider settings)")
	runCmd.Flags().StringVar(&providerName, "provider", "noop", "prompt provider: noop, http")
	runCmd.Flags().StringVar(&apiKeyEnv, "api-key-env", "SAPLIN_API_KEY", "env var holding the HTTP provider's API key")

	return runCmd
}

func runRun(cmd *cobra.Command, path, configPath, providerName, apiKeyEnv string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", path, err)
	}

	opts := runtime.DefaultOptions()
	var providerConfig config.ProviderConfig
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		opts = runtime.Options{MaxToolRounds: cfg.Run.MaxToolRounds, MaxToolCalls: cfg.Run.MaxToolCalls}
		providerConfig = cfg.Provider
	}

	p, err := resolveProvider(providerName, apiKeyEnv, providerConfig)
	if err != nil {
		return err
	}

	if verbose {
		program, err := saplin.Check(string(source))
		if err != nil {
			printDiagnostic(cmd, path, string(source), err)
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), value.Repr(program))
	}

	if err := saplin.Run(string(source), p, &opts); err != nil {
		printDiagnostic(cmd, path, string(source), err)
		return err
	}
	return nil
}

func resolveProvider(name, apiKeyEnv string, cfg config.ProviderConfig) (provider.Provider, error) {
	switch name {
	case "noop", "":
		return provider.NoopProvider{}, nil
	case "http":
		envVar := apiKeyEnv
		if cfg.APIKeyEnv != "" {
			envVar = cfg.APIKeyEnv
		}
		httpCfg, err := provider.HTTPConfigFromEnv(envVar)
		if err != nil {
			return nil, err
		}
		if cfg.Model != "" {
			httpCfg.Model = cfg.Model
		}
		if cfg.BaseURL != "" {
			httpCfg.BaseURL = cfg.BaseURL
		}
		if cfg.Temperature != 0 {
			httpCfg.Temperature = cfg.Temperature
		}
		if cfg.Timeout != 0 {
			httpCfg.Timeout = cfg.Timeout
		}
		return provider.NewHTTPProvider(httpCfg)
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

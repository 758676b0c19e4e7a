package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/roomwise/roomwise/internal/config"
	"github.com/roomwise/roomwise/internal/designing"
	"github.com/roomwise/roomwise/internal/uploads"
	"github.com/roomwise/roomwise/internal/wizard"
	"github.com/spf13/cobra"
)

// app carries state shared by the subcommands once the root command has
// loaded configuration.
type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "roomwise",
		Short: "Interior design wizard with LLM-generated design plans",
		Long: `Roomwise walks you through photographing the four walls of a room,
describing your style, and reviewing your answers, then asks a
vision-capable LLM (Gemini, OpenAI or Ollama) for a design plan with wall
colors, furniture, a layout recommendation and a cost breakdown.

Configuration is read from roomwise.yml and ROOMWISE_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				if _, err := config.ParseLevel(a.logLevel); err != nil {
					return err
				}
				cfg.LogLevel = a.logLevel
			}
			slog.SetDefault(config.NewLogger(os.Stderr, cfg.LogLevel))
			a.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default ./roomwise.yml)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	// Add subcommands
	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newWizardCmd(a))
	cmd.AddCommand(newGenerateCmd(a))
	cmd.AddCommand(newOptionsCmd())

	return cmd
}

// applyProviderFlags overrides provider settings given on the command line.
func (a *app) applyProviderFlags(cmd *cobra.Command, provider, model string) {
	if cmd.Flags().Changed("provider") {
		a.cfg.Provider = provider
	}
	if cmd.Flags().Changed("model") {
		a.cfg.Model = model
	}
}

func (a *app) uploads() *uploads.Store {
	return uploads.New(a.cfg.UploadsDir, a.cfg.MaxUploadBytes)
}

func (a *app) requester(images designing.ImageReader) (wizard.PlanRequester, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	requester, err := designing.NewRequester(designing.Options{
		Provider:      a.cfg.Provider,
		Model:         a.cfg.Model,
		Temperature:   a.cfg.Temperature,
		GeminiAPIKey:  a.cfg.GeminiAPIKey,
		OpenAIAPIKey:  a.cfg.OpenAIAPIKey,
		OpenAIBaseURL: a.cfg.OpenAIBaseURL,
		OllamaURL:     a.cfg.OllamaURL,
		MockDelay:     a.cfg.MockDelay,
	}, images)
	if err != nil {
		return nil, fmt.Errorf("configuring plan generator: %w", err)
	}
	slog.Debug("Plan generator configured", "provider", a.cfg.Provider, "model", a.cfg.Model)
	return requester, nil
}

func addProviderFlags(cmd *cobra.Command, provider, model *string) {
	cmd.Flags().StringVar(provider, "provider", "", "Plan generator: mock, gemini, openai, ollama")
	cmd.Flags().StringVar(model, "model", "", "Model name (provider default when empty)")
}

package cmd

import (
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/roomwise/roomwise/internal/config"
	"github.com/roomwise/roomwise/internal/tui"
	"github.com/roomwise/roomwise/internal/wizard"
	"github.com/spf13/cobra"
)

func newWizardCmd(a *app) *cobra.Command {
	var provider, model string

	cmd := &cobra.Command{
		Use:   "wizard",
		Short: "Run the design wizard in the terminal",
		Long: `Runs the three-step design wizard interactively: enter paths to
photos of the four walls, choose your style preferences, review them and
generate a design plan.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyProviderFlags(cmd, provider, model)

			images := a.uploads()
			requester, err := a.requester(images)
			if err != nil {
				return err
			}

			// log output would corrupt the alt screen
			slog.SetDefault(config.NewLogger(io.Discard, a.cfg.LogLevel))

			session := wizard.NewSession(uuid.NewString(), requester, a.cfg.RequestTimeout)
			scoped, err := images.Scoped(session.ID)
			if err != nil {
				return err
			}
			defer removeUploads(images, session.ID)

			p := tea.NewProgram(
				tui.New(cmd.Context(), session, scoped),
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
			)
			final, err := p.Run()
			if err != nil {
				return fmt.Errorf("running wizard: %w", err)
			}

			if m, ok := final.(tui.Model); ok && m.Result() != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Design plan generated for %s (total $%.2f)\n",
					m.Result().Preferences.FullName, m.Result().Plan.TotalCost)
			}
			return nil
		},
	}

	addProviderFlags(cmd, &provider, &model)
	return cmd
}

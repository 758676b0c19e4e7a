package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/roomwise/roomwise/internal/models"
	"github.com/roomwise/roomwise/internal/planfile"
	"github.com/roomwise/roomwise/internal/uploads"
	"github.com/roomwise/roomwise/internal/wizard"
	"github.com/spf13/cobra"
)

func newGenerateCmd(a *app) *cobra.Command {
	var provider, model, output, format string

	cmd := &cobra.Command{
		Use:   "generate <request.yml>",
		Short: "Generate a design plan from a request file",
		Long: `Replays a YAML request file through the wizard (upload, preferences,
review) and generates a design plan without any interaction.

The request file lists the four wall photos, as paths relative to the
file or as URLs, and the preferences:

  images:
    wall-1: photos/front.jpg
    wall-2: photos/right.jpg
    wall-3: photos/back.jpg
    wall-4: https://example.com/left.jpg
  preferences:
    full_name: Jane Doe
    personality_type: Cozy & Warm
    room_type: Living Room
    favorite_colors: [sage-green, cream]
    budget_range: 5000`,
		Example: `  # Print the plan as YAML
  roomwise generate room.yml

  # Save a parquet cost sheet
  roomwise generate room.yml --format parquet --output plans/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyProviderFlags(cmd, provider, model)

			f, err := planfile.ParseFormat(format)
			if err != nil {
				return err
			}

			req, err := planfile.LoadRequest(args[0])
			if err != nil {
				return err
			}

			images := a.uploads()
			requester, err := a.requester(images)
			if err != nil {
				return err
			}

			session := wizard.NewSession(uuid.NewString(), requester, a.cfg.RequestTimeout)
			scoped, err := images.Scoped(session.ID)
			if err != nil {
				return err
			}
			defer removeUploads(images, session.ID)

			if err := fillSession(cmd.Context(), session, scoped, req); err != nil {
				return err
			}

			plan, err := runWizard(cmd.Context(), session)
			if err != nil {
				return err
			}

			doc := planfile.NewDocument(*plan, session.Store.Preferences())
			if output == "" {
				return planfile.Write(cmd.OutOrStdout(), f, doc)
			}
			path := output
			if filepath.Ext(output) == "" {
				path = filepath.Join(output, planfile.FileName(doc.Preferences.FullName, f))
			}
			if err := planfile.WriteFile(path, f, doc); err != nil {
				return err
			}
			slog.Info("Design plan written", "path", path, "format", f)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file or directory (stdout when empty)")
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: yaml, json, parquet")
	addProviderFlags(cmd, &provider, &model)
	return cmd
}

func removeUploads(images *uploads.Store, sessionID string) {
	if err := images.RemoveScope(sessionID); err != nil {
		slog.Warn("Unable to remove session uploads", "session_id", sessionID, "err", err)
	}
}

// fillSession stores the request's images and preferences.
func fillSession(ctx context.Context, session *wizard.Session, images *uploads.Store, req *planfile.Request) error {
	for _, wall := range models.WallSlots {
		ref := req.Images[string(wall)]
		if ref == "" {
			continue
		}
		var file *models.ImageFile
		var err error
		if planfile.IsURL(ref) {
			file, err = images.Download(ctx, ref)
		} else {
			file, err = images.SaveFile(ref)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", wall.Label(), err)
		}
		if err := session.Store.SetImage(wall, file); err != nil {
			return err
		}
	}

	prefs := req.Preferences
	rejected := session.Store.SetPreferences(map[string]any{
		wizard.FieldFullName:        prefs.FullName,
		wizard.FieldPersonalityType: prefs.PersonalityType,
		wizard.FieldRoomType:        prefs.RoomType,
		wizard.FieldBudgetRange:     prefs.BudgetRange,
		wizard.FieldFavoriteColors:  append([]string{}, prefs.FavoriteColors...),
	})
	if !rejected.Empty() {
		return fmt.Errorf("invalid preferences in request: %w", rejected)
	}
	return nil
}

// runWizard advances through every step and submits at review.
func runWizard(ctx context.Context, session *wizard.Session) (*models.DesignPlan, error) {
	for session.Controller.Step() != models.StepReview {
		step := session.Controller.Step()
		_, errs, err := session.Controller.Advance()
		if err != nil {
			return nil, err
		}
		if !errs.Empty() {
			return nil, fmt.Errorf("%s step: %w", step, errs)
		}
	}
	slog.Info("Generating design plan", "session_id", session.ID)
	return session.Controller.Submit(ctx)
}

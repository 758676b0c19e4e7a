package designing

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/roomwise/roomwise/internal/gemini"
	"github.com/roomwise/roomwise/internal/models"
	"github.com/roomwise/roomwise/internal/ollama"
	"github.com/roomwise/roomwise/internal/openai"
	"github.com/roomwise/roomwise/internal/providers"
	"github.com/roomwise/roomwise/internal/wizard"
)

//go:embed prompt.md
var designPrompt string

var promptTemplate = template.Must(template.New("design").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(designPrompt))

// ImageReader returns the stored bytes of an uploaded image.
type ImageReader interface {
	Open(file *models.ImageFile) ([]byte, error)
}

// Options selects and configures the plan generator.
type Options struct {
	Provider      string
	Model         string
	Temperature   float64
	GeminiAPIKey  string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OllamaURL     string
	MockDelay     time.Duration
}

// NewRequester returns the plan requester for the configured provider.
func NewRequester(opts Options, images ImageReader) (wizard.PlanRequester, error) {
	var provider providers.Provider
	switch opts.Provider {
	case "", "mock":
		return NewMock(opts.MockDelay), nil
	case "gemini":
		provider = gemini.New(opts.GeminiAPIKey)
	case "openai":
		provider = openai.New(opts.OpenAIAPIKey, opts.OpenAIBaseURL, nil)
	case "ollama":
		provider = ollama.New(opts.OllamaURL, nil)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", opts.Provider)
	}

	model := opts.Model
	if model == "" {
		model = DefaultModel(opts.Provider)
	}
	return NewService(provider, images, model, opts.Temperature), nil
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case "gemini":
		return "gemini-1.5-flash"
	case "openai":
		return "gpt-4o"
	case "ollama":
		return "mistral-small3.2:24b"
	default:
		return ""
	}
}

// Service generates design plans with a vision-capable LLM.
type Service struct {
	provider    providers.Provider
	images      ImageReader
	model       string
	temperature float64
}

func NewService(provider providers.Provider, images ImageReader, model string, temperature float64) *Service {
	return &Service{
		provider:    provider,
		images:      images,
		model:       model,
		temperature: temperature,
	}
}

// RequestPlan renders the prompt, attaches the wall photos and decodes the
// plan from the provider's response.
func (s *Service) RequestPlan(ctx context.Context, req models.DesignRequest) (*models.DesignPlan, error) {
	prompt, err := buildPrompt(req.Preferences)
	if err != nil {
		return nil, err
	}

	images := make([]providers.Image, 0, len(req.Images))
	for _, img := range req.Images {
		if !img.Filled() {
			continue
		}
		data, err := s.images.Open(img.File)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s image: %w", img.Wall.Label(), err)
		}
		images = append(images, providers.Image{
			Label:    img.Wall.Label(),
			MIMEType: img.File.ContentType,
			Data:     data,
		})
	}

	start := time.Now()
	resp, err := s.provider.GenerateText(ctx, providers.Config{
		Model:       s.model,
		Temperature: s.temperature,
		Prompt:      prompt,
		Images:      images,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call provider: %w", err)
	}

	plan, err := ParsePlan(resp)
	if err != nil {
		return nil, err
	}
	slog.Info("Generated design plan", "model", s.model, "images", len(images), "latency", time.Since(start))
	return plan, nil
}

type promptData struct {
	models.PersonalPreferences
	Colors    []string
	Budget    string
	BudgetMax int
}

func buildPrompt(prefs models.PersonalPreferences) (string, error) {
	data := promptData{PersonalPreferences: prefs, BudgetMax: prefs.BudgetRange}
	for _, c := range prefs.FavoriteColors {
		if opt, ok := models.LookupColor(c); ok {
			data.Colors = append(data.Colors, opt.Name)
		} else {
			data.Colors = append(data.Colors, c)
		}
	}
	if tier, ok := models.LookupBudget(prefs.BudgetRange); ok {
		data.Budget = tier.Label
	} else {
		data.Budget = fmt.Sprintf("up to $%d", prefs.BudgetRange)
	}

	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}

// ParsePlan extracts the JSON plan from a model response, tolerating
// markdown code fences and surrounding prose.
func ParsePlan(response string) (*models.DesignPlan, error) {
	raw := extractJSON(response)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var plan models.DesignPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return nil, fmt.Errorf("failed to parse design plan: %w", err)
	}
	if len(plan.WallColors) == 0 && len(plan.Furniture) == 0 {
		return nil, fmt.Errorf("design plan has no wall colors or furniture")
	}

	for i := range plan.Furniture {
		if plan.Furniture[i].ID == "" {
			plan.Furniture[i].ID = uuid.NewString()
		}
	}
	if sum := plan.CostBreakdown.Sum(); math.Abs(sum-plan.TotalCost) > 0.01 {
		slog.Warn("Design plan total does not match cost breakdown", "total", plan.TotalCost, "breakdown", sum)
	}
	return &plan, nil
}

func extractJSON(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end < start {
		return ""
	}
	return response[start : end+1]
}

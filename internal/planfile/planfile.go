package planfile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/parquet-go/parquet-go"
	"github.com/roomwise/roomwise/internal/models"
	"gopkg.in/yaml.v3"
)

// Format is a plan export format.
type Format string

const (
	FormatYAML    Format = "yaml"
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
)

// ParseFormat accepts a format name or file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "", "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "parquet":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: yaml, json, parquet)", s)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	default:
		return "application/yaml"
	}
}

// Document is an exported plan together with the preferences it was made for.
type Document struct {
	GeneratedAt time.Time                  `json:"generatedAt" yaml:"generated_at"`
	Preferences models.PersonalPreferences `json:"preferences" yaml:"preferences"`
	Plan        models.DesignPlan          `json:"plan" yaml:"plan"`
}

// NewDocument stamps a plan with the current time.
func NewDocument(plan models.DesignPlan, prefs models.PersonalPreferences) Document {
	return Document{GeneratedAt: time.Now().UTC(), Preferences: prefs, Plan: plan}
}

// CostLine is one row of the parquet export.
type CostLine struct {
	Category    string  `parquet:"category"`
	Name        string  `parquet:"name"`
	Type        string  `parquet:"type,optional"`
	Description string  `parquet:"description,optional"`
	Cost        float64 `parquet:"cost"`
}

// CostLines flattens a plan into furniture rows, the three breakdown rows
// and a closing total row.
func CostLines(plan models.DesignPlan) []CostLine {
	lines := make([]CostLine, 0, len(plan.Furniture)+4)
	for _, item := range plan.Furniture {
		lines = append(lines, CostLine{
			Category:    "item",
			Name:        item.Name,
			Type:        item.Type,
			Description: item.Description,
			Cost:        item.Cost,
		})
	}
	lines = append(lines,
		CostLine{Category: "breakdown", Name: "furniture", Cost: plan.CostBreakdown.Furniture},
		CostLine{Category: "breakdown", Name: "paint", Cost: plan.CostBreakdown.Paint},
		CostLine{Category: "breakdown", Name: "accessories", Cost: plan.CostBreakdown.Accessories},
		CostLine{Category: "total", Name: "total", Cost: plan.TotalCost},
	)
	return lines
}

// Write encodes the document in the given format.
func Write(w io.Writer, format Format, doc Document) error {
	switch format {
	case FormatYAML:
		return WriteYAML(w, doc)
	case FormatJSON:
		return WriteJSON(w, doc)
	case FormatParquet:
		return WriteParquet(w, doc.Plan)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func WriteYAML(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return enc.Close()
}

func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}

// WriteParquet writes the plan's cost lines as a parquet file.
func WriteParquet(w io.Writer, plan models.DesignPlan) error {
	writer := parquet.NewGenericWriter[CostLine](w)
	if _, err := writer.Write(CostLines(plan)); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// WriteFile writes the document to path, creating parent directories.
func WriteFile(path string, format Format, doc Document) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Write(f, format, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// FileName returns the download name for a plan, e.g.
// "jane-doe-design-plan.yaml".
func FileName(fullName string, format Format) string {
	name := slug.Make(fullName)
	if name == "" {
		return "design-plan." + string(format)
	}
	return name + "-design-plan." + string(format)
}

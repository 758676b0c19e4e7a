package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/roomwise/roomwise/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 6))))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func setupRequest(t *testing.T, prefs string) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("ROOMWISE_PROVIDER", "mock")
	t.Setenv("ROOMWISE_MOCK_DELAY", "0s")

	for _, wall := range models.WallSlots {
		writePNG(t, filepath.Join(dir, "photos", string(wall)+".png"))
	}
	content := `images:
  wall-1: photos/wall-1.png
  wall-2: photos/wall-2.png
  wall-3: photos/wall-3.png
  wall-4: photos/wall-4.png
preferences:
` + prefs
	path := filepath.Join(dir, "room.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestGenerate(t *testing.T) {
	path := setupRequest(t, `  full_name: Jane Doe
  personality_type: Cozy & Warm
  room_type: Living Room
  favorite_colors: [sage-green]
  budget_range: 5000
`)

	out, err := execute(t, "generate", path, "--format", "json")
	require.NoError(t, err, out)

	var doc struct {
		Preferences models.PersonalPreferences `json:"preferences"`
		Plan        models.DesignPlan          `json:"plan"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc), out)
	assert.Equal(t, "Jane Doe", doc.Preferences.FullName)
	assert.Equal(t, 2160.0, doc.Plan.TotalCost)
	assert.Contains(t, doc.Plan.LayoutRecommendation, "cozy & warm personality and living room space")

	entries, err := os.ReadDir("uploads")
	require.NoError(t, err)
	assert.Empty(t, entries, "session uploads are removed once the plan is written")

	_, err = execute(t, "generate", path, "--format", "parquet", "--output", "plans")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join("plans", "jane-doe-design-plan.parquet"))
	assert.NoError(t, err)
}

func TestGenerateValidationFailure(t *testing.T) {
	path := setupRequest(t, `  full_name: Jane Doe
  personality_type: Cozy & Warm
  room_type: Living Room
  budget_range: 5000
`)

	_, err := execute(t, "generate", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Please select at least one favorite color")
}

func TestOptions(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := execute(t, "options", "--json")
	require.NoError(t, err)

	var opts models.Options
	require.NoError(t, json.Unmarshal([]byte(out), &opts))
	assert.Len(t, opts.Walls, 4)
	assert.Equal(t, models.PersonalityTypes, opts.PersonalityTypes)
}

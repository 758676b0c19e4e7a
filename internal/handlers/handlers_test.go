package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/roomwise/roomwise/internal/designing"
	"github.com/roomwise/roomwise/internal/models"
	"github.com/roomwise/roomwise/internal/sessiontoken"
	"github.com/roomwise/roomwise/internal/uploads"
	"github.com/roomwise/roomwise/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t      *testing.T
	mux    *http.ServeMux
	h      *Handler
	dir    string
	cookie *http.Cookie
	// token is sent in the session header when set
	token string
}

func newHarness(t *testing.T, requester wizard.PlanRequester) *harness {
	t.Helper()
	signer, err := sessiontoken.New("test-secret", time.Hour)
	require.NoError(t, err)

	dir := t.TempDir()
	h := New(Config{
		Uploads:        uploads.New(dir, 0),
		Tokens:         signer,
		Requester:      requester,
		RequestTimeout: 5 * time.Second,
	})
	mux := http.NewServeMux()
	h.Register(mux)
	return &harness{t: t, mux: mux, h: h, dir: dir}
}

// client returns a harness for another browser against the same server.
func (hs *harness) client() *harness {
	return &harness{t: hs.t, mux: hs.mux, h: hs.h, dir: hs.dir}
}

func (hs *harness) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if hs.cookie != nil {
		req.AddCookie(hs.cookie)
	}
	if hs.token != "" {
		req.Header.Set(sessiontoken.HeaderName, hs.token)
	}
	rec := httptest.NewRecorder()
	hs.mux.ServeHTTP(rec, req)
	return rec
}

func (hs *harness) json(method, path string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(hs.t, err)
		r = bytes.NewReader(data)
	}
	return hs.do(method, path, r, "application/json")
}

func (hs *harness) createSession() sessionView {
	rec := hs.do(http.MethodPost, "/api/sessions", nil, "")
	require.Equal(hs.t, http.StatusCreated, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessiontoken.CookieName {
			hs.cookie = c
		}
	}
	require.NotNil(hs.t, hs.cookie, "session cookie not set")
	return decode[sessionView](hs.t, rec)
}

func (hs *harness) upload(wall models.WallSlot, data []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", string(wall)+".png")
	require.NoError(hs.t, err)
	_, err = fw.Write(data)
	require.NoError(hs.t, err)
	require.NoError(hs.t, mw.Close())
	return hs.do(http.MethodPut, "/api/sessions/current/images/"+string(wall), &body, mw.FormDataContentType())
}

func (hs *harness) fillWizard() {
	for _, wall := range models.WallSlots {
		require.Equal(hs.t, http.StatusOK, hs.upload(wall, pngBytes(hs.t)).Code)
	}
	require.Equal(hs.t, http.StatusOK, hs.do(http.MethodPost, "/api/sessions/current/advance", nil, "").Code)
	rec := hs.json(http.MethodPatch, "/api/sessions/current/preferences", map[string]any{
		"fullName":        "Jane Doe",
		"personalityType": "Cozy & Warm",
		"roomType":        "Living Room",
		"budgetRange":     5000,
		"favoriteColors":  []string{"sage-green"},
	})
	require.Equal(hs.t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(hs.t, http.StatusOK, hs.do(http.MethodPost, "/api/sessions/current/advance", nil, "").Code)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 3))))
	return buf.Bytes()
}

func mockRequester() wizard.PlanRequester {
	return designing.NewMock(0)
}

func TestNoSession(t *testing.T) {
	hs := newHarness(t, mockRequester())

	assert.Equal(t, http.StatusNotFound, hs.do(http.MethodGet, "/api/sessions/current", nil, "").Code)

	rec := hs.do(http.MethodGet, "/api/results", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "/design", body["redirect"])

	hs.cookie = &http.Cookie{Name: sessiontoken.CookieName, Value: "forged"}
	assert.Equal(t, http.StatusNotFound, hs.do(http.MethodGet, "/api/sessions/current", nil, "").Code)
}

func TestWizardFlow(t *testing.T) {
	hs := newHarness(t, mockRequester())
	view := hs.createSession()
	assert.Equal(t, models.StepUpload, view.State.Step)
	assert.Equal(t, 3, view.State.TotalSteps)

	rec := hs.do(http.MethodPost, "/api/sessions/current/advance", nil, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	view = decode[sessionView](t, rec)
	assert.Len(t, view.State.Errors, 4)
	assert.Equal(t, "Please upload an image for this wall", view.State.Errors["wall-3"])

	for _, wall := range models.WallSlots {
		rec := hs.upload(wall, pngBytes(t))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	view = decode[sessionView](t, hs.do(http.MethodGet, "/api/sessions/current", nil, ""))
	for _, img := range view.Images {
		require.NotNil(t, img.File)
		assert.True(t, strings.HasPrefix(img.Preview, "/uploads/"))
		assert.Equal(t, 4, img.File.Width)
	}

	preview := hs.do(http.MethodGet, view.Images[0].Preview, nil, "")
	assert.Equal(t, http.StatusOK, preview.Code)

	rec = hs.do(http.MethodPost, "/api/sessions/current/advance", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StepPreferences, decode[sessionView](t, rec).State.Step)

	rec = hs.json(http.MethodPatch, "/api/sessions/current/preferences", map[string]any{
		"fullName":        "Jane Doe",
		"personalityType": "cozy & warm",
		"roomType":        "Living Room",
		"budgetRange":     5000,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Cozy & Warm", decode[sessionView](t, rec).Preferences.PersonalityType)

	rec = hs.do(http.MethodPost, "/api/sessions/current/advance", nil, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	view = decode[sessionView](t, rec)
	assert.Equal(t, wizard.ValidationErrors{"favoriteColors": "Please select at least one favorite color"}, view.State.Errors)

	rec = hs.do(http.MethodPost, "/api/sessions/current/colors/sage-green", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"sage-green"}, decode[sessionView](t, rec).Preferences.FavoriteColors)

	rec = hs.do(http.MethodPost, "/api/sessions/current/advance", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StepReview, decode[sessionView](t, rec).State.Step)

	rec = hs.do(http.MethodPost, "/api/sessions/current/submit", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	submitted := decode[map[string]any](t, rec)
	assert.Equal(t, "/results", submitted["redirect"])

	rec = hs.do(http.MethodGet, "/api/results", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[struct {
		Plan        models.DesignPlan          `json:"designPlan"`
		Preferences models.PersonalPreferences `json:"userPreferences"`
	}](t, rec)
	assert.Equal(t, 2160.0, result.Plan.TotalCost)
	assert.Equal(t, "Jane Doe", result.Preferences.FullName)

	rec = hs.do(http.MethodGet, "/api/results/download?format=yaml", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="jane-doe-design-plan.yaml"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "total_cost: 2160")

	rec = hs.do(http.MethodGet, "/api/results/download?format=parquet", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PAR1")))

	assert.Equal(t, http.StatusBadRequest, hs.do(http.MethodGet, "/api/results/download?format=csv", nil, "").Code)

	// completed wizards refuse transitions until restarted
	assert.Equal(t, http.StatusConflict, hs.do(http.MethodPost, "/api/sessions/current/retreat", nil, "").Code)

	rec = hs.do(http.MethodDelete, "/api/results", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode[sessionView](t, rec)
	assert.Equal(t, models.StepUpload, view.State.Step)
	assert.Nil(t, view.Images[0].File)
	assert.Equal(t, http.StatusNotFound, hs.do(http.MethodGet, "/api/results", nil, "").Code)
}

func TestSubmitFailure(t *testing.T) {
	calls := 0
	hs := newHarness(t, wizard.PlanRequesterFunc(func(ctx context.Context, req models.DesignRequest) (*models.DesignPlan, error) {
		calls++
		return nil, errors.New("provider unavailable")
	}))
	hs.createSession()

	assert.Equal(t, http.StatusConflict, hs.do(http.MethodPost, "/api/sessions/current/submit", nil, "").Code)
	assert.Equal(t, 0, calls)

	hs.fillWizard()

	rec := hs.do(http.MethodPost, "/api/sessions/current/submit", nil, "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, true, body["retry"])
	assert.Equal(t, wizard.ErrPlanGeneration.Error(), body["error"])
	assert.Equal(t, 1, calls)

	view := decode[sessionView](t, hs.do(http.MethodGet, "/api/sessions/current", nil, ""))
	assert.Equal(t, models.StepReview, view.State.Step)
	assert.False(t, view.State.Pending)
	assert.True(t, view.State.CanRetry)
	assert.NotEmpty(t, view.State.LastFailure)

	assert.Equal(t, http.StatusNotFound, hs.do(http.MethodGet, "/api/results", nil, "").Code)
}

func TestMutationsWhilePending(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	hs := newHarness(t, wizard.PlanRequesterFunc(func(ctx context.Context, req models.DesignRequest) (*models.DesignPlan, error) {
		close(started)
		<-release
		return designing.MockPlan(req.Preferences), nil
	}))
	hs.createSession()
	hs.fillWizard()

	done := make(chan int)
	go func() {
		done <- hs.do(http.MethodPost, "/api/sessions/current/submit", nil, "").Code
	}()
	<-started

	assert.Equal(t, http.StatusConflict, hs.do(http.MethodPost, "/api/sessions/current/submit", nil, "").Code)
	assert.Equal(t, http.StatusConflict, hs.json(http.MethodPatch, "/api/sessions/current/preferences", map[string]any{"fullName": "X"}).Code)
	assert.Equal(t, http.StatusConflict, hs.do(http.MethodDelete, "/api/sessions/current/images/wall-1", nil, "").Code)
	assert.Equal(t, http.StatusConflict, hs.do(http.MethodPost, "/api/sessions/current/retreat", nil, "").Code)
	assert.Equal(t, http.StatusConflict, hs.do(http.MethodDelete, "/api/results", nil, "").Code)

	view := decode[sessionView](t, hs.do(http.MethodGet, "/api/sessions/current", nil, ""))
	assert.True(t, view.State.Pending)

	close(release)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestBadInput(t *testing.T) {
	hs := newHarness(t, mockRequester())
	hs.createSession()

	rec := hs.json(http.MethodPatch, "/api/sessions/current/preferences", map[string]any{
		"roomType":    "Garage",
		"budgetRange": 1234,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[map[string]any](t, rec)
	errs := body["errors"].(map[string]any)
	assert.Contains(t, errs, "roomType")
	assert.Contains(t, errs, "budgetRange")

	assert.Equal(t, http.StatusBadRequest, hs.json(http.MethodPatch, "/api/sessions/current/preferences", map[string]any{"favouriteColours": []string{}}).Code)
	assert.Equal(t, http.StatusBadRequest, hs.do(http.MethodPost, "/api/sessions/current/colors/neon-orange", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, hs.upload("ceiling", pngBytes(t)).Code)
	assert.Equal(t, http.StatusUnsupportedMediaType, hs.upload(models.WallFront, []byte("plain text, not a picture")).Code)
	assert.Equal(t, http.StatusBadRequest, hs.json(http.MethodPut, "/api/sessions/current/images/wall-1", map[string]any{}).Code)
}

func TestURLUpload(t *testing.T) {
	data := pngBytes(t)
	img := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(data)
	}))
	defer img.Close()

	hs := newHarness(t, mockRequester())
	hs.createSession()

	rec := hs.json(http.MethodPut, "/api/sessions/current/images/wall-2", map[string]string{"image_url": img.URL + "/right.png"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[sessionView](t, rec)
	require.NotNil(t, view.Images[1].File)
	assert.Nil(t, view.Images[0].File)

	rec = hs.do(http.MethodDelete, "/api/sessions/current/images/wall-2", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[sessionView](t, rec).Images[1].File)
}

func TestOptions(t *testing.T) {
	hs := newHarness(t, mockRequester())
	rec := hs.do(http.MethodGet, "/api/options", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	opts := decode[models.Options](t, rec)
	assert.Equal(t, models.RoomTypes, opts.RoomTypes)
	assert.Len(t, opts.Colors, 10)
}

func TestPreferencesPatchIsAtomic(t *testing.T) {
	hs := newHarness(t, mockRequester())
	hs.createSession()

	rec := hs.json(http.MethodPatch, "/api/sessions/current/preferences", map[string]any{
		"fullName": "Jane Doe",
		"roomType": "Bedrom",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errs := decode[map[string]any](t, rec)["errors"].(map[string]any)
	assert.Len(t, errs, 1)
	assert.Contains(t, errs["roomType"], "Bedroom")

	view := decode[sessionView](t, hs.do(http.MethodGet, "/api/sessions/current", nil, ""))
	assert.Empty(t, view.Preferences.FullName)
	assert.Empty(t, view.Preferences.RoomType)
}

func TestSessionHeaderKeepsTabsApart(t *testing.T) {
	hs := newHarness(t, mockRequester())

	first := hs.createSession()
	require.NotEmpty(t, first.Token)
	second := hs.createSession()
	require.NotEqual(t, first.ID, second.ID)

	// the cookie now names the second session; the header wins
	hs.token = first.Token
	rec := hs.json(http.MethodPatch, "/api/sessions/current/preferences", map[string]any{"fullName": "Alice"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[sessionView](t, rec)
	assert.Equal(t, first.ID, view.ID)
	assert.Empty(t, view.Token)

	hs.token = second.Token
	rec = hs.json(http.MethodPatch, "/api/sessions/current/preferences", map[string]any{"fullName": "Bob"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, second.ID, decode[sessionView](t, rec).ID)

	hs.token = first.Token
	view = decode[sessionView](t, hs.do(http.MethodGet, "/api/sessions/current", nil, ""))
	assert.Equal(t, "Alice", view.Preferences.FullName)

	hs.token = "forged"
	assert.Equal(t, http.StatusNotFound, hs.do(http.MethodGet, "/api/sessions/current", nil, "").Code)
}

func TestUploadsBelongToTheirSession(t *testing.T) {
	hs := newHarness(t, mockRequester())
	owner := hs.createSession()

	rec := hs.upload(models.WallFront, pngBytes(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	preview := decode[sessionView](t, rec).Images[0].Preview
	sessionDir := filepath.Join(hs.dir, owner.ID)
	_, err := os.Stat(sessionDir)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, hs.do(http.MethodGet, preview, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, hs.client().do(http.MethodGet, preview, nil, "").Code)

	other := hs.client()
	other.createSession()
	assert.Equal(t, http.StatusNotFound, other.do(http.MethodGet, preview, nil, "").Code)

	// starting over drops the images
	require.Equal(t, http.StatusOK, hs.do(http.MethodDelete, "/api/results", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, hs.do(http.MethodGet, preview, nil, "").Code)
	_, err = os.Stat(sessionDir)
	assert.True(t, os.IsNotExist(err))

	require.Equal(t, http.StatusOK, hs.upload(models.WallFront, pngBytes(t)).Code)
	assert.Equal(t, http.StatusOK, hs.do(http.MethodGet, preview, nil, "").Code)

	removed := hs.h.SweepSessions(time.Now().Add(2*time.Hour), time.Hour)
	assert.Contains(t, removed, owner.ID)
	_, err = os.Stat(sessionDir)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, http.StatusNotFound, hs.do(http.MethodGet, preview, nil, "").Code)
}

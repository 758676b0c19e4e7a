// Package tui is the terminal front end of the design wizard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/roomwise/roomwise/internal/handoff"
	"github.com/roomwise/roomwise/internal/models"
	"github.com/roomwise/roomwise/internal/wizard"
)

// ImageSaver stores a local image file for a wall slot.
type ImageSaver interface {
	SaveFile(path string) (*models.ImageFile, error)
}

// preference rows
const (
	rowName = iota
	rowPersonality
	rowRoom
	rowBudget
	rowColors
	prefRows
)

type planMsg struct {
	plan *models.DesignPlan
	err  error
}

// Model drives one wizard session in the terminal.
type Model struct {
	ctx     context.Context
	session *wizard.Session
	images  ImageSaver

	paths   [4]textinput.Model
	name    textinput.Model
	spinner spinner.Model

	row        int
	colorIdx   int
	submitting bool
	status     string
	failure    string
	result     *handoff.Result
	width      int
}

// New returns a Model over session. Images typed on the upload step are
// stored through images.
func New(ctx context.Context, session *wizard.Session, images ImageSaver) Model {
	m := Model{
		ctx:     ctx,
		session: session,
		images:  images,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		width:   80,
	}
	for i, wall := range models.WallSlots {
		ti := textinput.New()
		ti.Placeholder = "path to " + strings.ToLower(wall.Label()) + " photo"
		ti.Prompt = ""
		ti.CharLimit = 0
		m.paths[i] = ti
	}
	m.name = textinput.New()
	m.name.Placeholder = "Full name"
	m.name.Prompt = ""
	m.focusRow()
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case planMsg:
		return m.handlePlan(msg)
	case spinner.TickMsg:
		if !m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	}

	if m.submitting {
		return m, nil
	}
	if m.result != nil {
		return m.handleResultsKey(msg)
	}

	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "ctrl+n":
		return m.advance()
	case "ctrl+p":
		return m.retreat()
	case "tab", "down":
		m.row = (m.row + 1) % m.rows()
		m.focusRow()
		return m, nil
	case "shift+tab", "up":
		m.row = (m.row - 1 + m.rows()) % m.rows()
		m.focusRow()
		return m, nil
	}

	switch m.session.Controller.Step() {
	case models.StepUpload:
		return m.handleUploadKey(msg)
	case models.StepPreferences:
		return m.handlePreferencesKey(msg)
	case models.StepReview:
		if msg.String() == "enter" || msg.String() == "ctrl+s" {
			return m.submit()
		}
	}
	return m, nil
}

func (m Model) handleUploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		m.attach(m.row)
		return m, nil
	}
	var cmd tea.Cmd
	m.paths[m.row], cmd = m.paths[m.row].Update(msg)
	return m, cmd
}

// attach stores the typed path for a wall slot; an empty path clears it.
func (m *Model) attach(i int) {
	wall := models.WallSlots[i]
	path := strings.TrimSpace(m.paths[i].Value())
	if path == "" {
		m.setErr(m.session.Store.SetImage(wall, nil))
		m.status = wall.Label() + " cleared"
		return
	}
	file, err := m.images.SaveFile(path)
	if err != nil {
		m.status = ""
		m.failure = err.Error()
		return
	}
	m.setErr(m.session.Store.SetImage(wall, file))
	m.status = fmt.Sprintf("%s: %s (%dx%d)", wall.Label(), file.Filename, file.Width, file.Height)
}

func (m Model) handlePreferencesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	step := 0
	switch key {
	case "left":
		step = -1
	case "right":
		step = 1
	}

	switch m.row {
	case rowName:
		var cmd tea.Cmd
		m.name, cmd = m.name.Update(msg)
		m.setErr(m.session.Store.SetPreference(wizard.FieldFullName, m.name.Value()))
		return m, cmd
	case rowPersonality:
		if step != 0 {
			cur := m.session.Store.Preferences().PersonalityType
			m.setErr(m.session.Store.SetPreference(wizard.FieldPersonalityType, cycle(models.PersonalityTypes, cur, step)))
		}
	case rowRoom:
		if step != 0 {
			cur := m.session.Store.Preferences().RoomType
			m.setErr(m.session.Store.SetPreference(wizard.FieldRoomType, cycle(models.RoomTypes, cur, step)))
		}
	case rowBudget:
		if step != 0 {
			m.setErr(m.session.Store.SetPreference(wizard.FieldBudgetRange, cycleBudget(m.session.Store.Preferences().BudgetRange, step)))
		}
	case rowColors:
		switch key {
		case "left":
			m.colorIdx = (m.colorIdx - 1 + len(models.ColorOptions)) % len(models.ColorOptions)
		case "right":
			m.colorIdx = (m.colorIdx + 1) % len(models.ColorOptions)
		case " ", "enter":
			m.setErr(m.session.Store.ToggleFavoriteColor(models.ColorOptions[m.colorIdx].Value))
		}
	}
	return m, nil
}

func (m Model) advance() (tea.Model, tea.Cmd) {
	if m.session.Controller.Step() == models.StepUpload {
		for i := range m.paths {
			if m.paths[i].Value() != "" {
				if img, _ := m.session.Store.Image(models.WallSlots[i]); !img.Filled() {
					m.attach(i)
				}
			}
		}
	}
	before := m.session.Controller.Step()
	step, errs, err := m.session.Controller.Advance()
	if err != nil {
		m.failure = err.Error()
		return m, nil
	}
	m.failure = ""
	if !errs.Empty() {
		m.status = fmt.Sprintf("%d field(s) need attention", len(errs))
		return m, nil
	}
	m.status = ""
	if step != before {
		m.row = 0
		m.focusRow()
	}
	return m, nil
}

func (m Model) retreat() (tea.Model, tea.Cmd) {
	if _, err := m.session.Controller.Retreat(); err != nil {
		m.failure = err.Error()
		return m, nil
	}
	m.status, m.failure = "", ""
	m.row = 0
	m.focusRow()
	return m, nil
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	m.submitting = true
	m.status = "Generating your design plan..."
	m.failure = ""
	ctx, controller := m.ctx, m.session.Controller
	run := func() tea.Msg {
		plan, err := controller.Submit(ctx)
		return planMsg{plan: plan, err: err}
	}
	return m, tea.Batch(run, m.spinner.Tick)
}

func (m Model) handlePlan(msg planMsg) (tea.Model, tea.Cmd) {
	m.submitting = false
	if msg.err != nil {
		m.status = ""
		if errors.Is(msg.err, wizard.ErrPlanGeneration) {
			m.failure = wizard.ErrPlanGeneration.Error() + " (press enter to retry)"
		} else {
			m.failure = msg.err.Error()
		}
		return m, nil
	}
	result, err := m.session.Handoff.Retrieve()
	if err != nil {
		m.failure = err.Error()
		return m, nil
	}
	m.result = result
	m.status, m.failure = "", ""
	return m, nil
}

func (m Model) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "n":
		if err := m.session.Controller.Reset(); err != nil {
			m.failure = err.Error()
			return m, nil
		}
		fresh := New(m.ctx, m.session, m.images)
		fresh.width = m.width
		fresh.status = "Started a new design"
		return fresh, nil
	}
	return m, nil
}

func (m *Model) setErr(err error) {
	if err != nil {
		m.failure = err.Error()
		return
	}
	m.failure = ""
}

func (m Model) rows() int {
	switch m.session.Controller.Step() {
	case models.StepUpload:
		return len(m.paths)
	case models.StepPreferences:
		return prefRows
	default:
		return 1
	}
}

func (m *Model) focusRow() {
	for i := range m.paths {
		m.paths[i].Blur()
	}
	m.name.Blur()
	switch m.session.Controller.Step() {
	case models.StepUpload:
		m.paths[m.row].Focus()
	case models.StepPreferences:
		if m.row == rowName {
			m.name.Focus()
		}
	}
}

func cycle(options []string, current string, step int) string {
	idx := -1
	for i, opt := range options {
		if opt == current {
			idx = i
		}
	}
	if idx < 0 {
		if step > 0 {
			return options[0]
		}
		return options[len(options)-1]
	}
	return options[(idx+step+len(options))%len(options)]
}

func cycleBudget(current, step int) int {
	labels := make([]string, len(models.BudgetRanges))
	var cur string
	for i, b := range models.BudgetRanges {
		labels[i] = b.Label
		if b.Max == current {
			cur = b.Label
		}
	}
	next := cycle(labels, cur, step)
	for _, b := range models.BudgetRanges {
		if b.Label == next {
			return b.Max
		}
	}
	return 0
}

// Result returns the handed-off plan once the wizard has completed.
func (m Model) Result() *handoff.Result {
	return m.result
}

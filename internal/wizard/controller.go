package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roomwise/roomwise/internal/handoff"
	"github.com/roomwise/roomwise/internal/models"
)

// PlanRequester generates a design plan from a wizard snapshot.
type PlanRequester interface {
	RequestPlan(ctx context.Context, req models.DesignRequest) (*models.DesignPlan, error)
}

// PlanRequesterFunc adapts a function to PlanRequester.
type PlanRequesterFunc func(ctx context.Context, req models.DesignRequest) (*models.DesignPlan, error)

// RequestPlan calls f.
func (f PlanRequesterFunc) RequestPlan(ctx context.Context, req models.DesignRequest) (*models.DesignPlan, error) {
	return f(ctx, req)
}

// State is a point-in-time view of the controller.
type State struct {
	Step        models.WizardStep `json:"step"`
	StepIndex   int               `json:"stepIndex"`
	TotalSteps  int               `json:"totalSteps"`
	Pending     bool              `json:"pending"`
	Complete    bool              `json:"complete"`
	Errors      ValidationErrors  `json:"errors"`
	LastFailure string            `json:"lastFailure,omitempty"`
	CanRetry    bool              `json:"canRetry"`
}

// Controller sequences the wizard steps, gated by Validate, and performs
// the single plan request on submit.
type Controller struct {
	mu        sync.Mutex
	store     *Store
	requester PlanRequester
	handoff   *handoff.Handoff
	timeout   time.Duration

	index       int
	pending     bool
	complete    bool
	errors      ValidationErrors
	lastFailure error
}

// NewController creates a controller at the upload step. A zero timeout
// waits for the requester without a deadline.
func NewController(store *Store, requester PlanRequester, h *handoff.Handoff, timeout time.Duration) *Controller {
	return &Controller{
		store:     store,
		requester: requester,
		handoff:   h,
		timeout:   timeout,
		errors:    ValidationErrors{},
	}
}

// Step returns the active step.
func (c *Controller) Step() models.WizardStep {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.WizardSteps[c.index]
}

// Pending reports whether a plan request is outstanding.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Complete reports whether a plan was generated and handed off.
func (c *Controller) Complete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.complete
}

// State returns the current controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := State{
		Step:       models.WizardSteps[c.index],
		StepIndex:  c.index,
		TotalSteps: len(models.WizardSteps),
		Pending:    c.pending,
		Complete:   c.complete,
		Errors:     c.errors.clone(),
	}
	if c.lastFailure != nil {
		s.LastFailure = c.lastFailure.Error()
		s.CanRetry = !c.pending && !c.complete
	}
	return s
}

// Advance validates the current step and moves to the next one when it is
// clean. At the last step a clean validation is a no-op.
func (c *Controller) Advance() (models.WizardStep, ValidationErrors, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkInteractive(); err != nil {
		return models.WizardSteps[c.index], nil, err
	}

	step := models.WizardSteps[c.index]
	errs := Validate(step, c.store.Snapshot())
	c.errors = errs
	if !errs.Empty() {
		slog.Debug("Step validation failed", "step", step, "errors", len(errs))
		return step, errs.clone(), nil
	}
	if c.index < len(models.WizardSteps)-1 {
		c.index++
	}
	return models.WizardSteps[c.index], ValidationErrors{}, nil
}

// Retreat moves to the previous step without validation. At the first step
// it is a no-op.
func (c *Controller) Retreat() (models.WizardStep, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkInteractive(); err != nil {
		return models.WizardSteps[c.index], err
	}
	if c.index > 0 {
		c.index--
	}
	c.errors = ValidationErrors{}
	return models.WizardSteps[c.index], nil
}

// Submit requests a plan for the current store contents. It must be called
// on the last step and refuses while another request is outstanding. On
// success the plan and preferences are stored in the handoff and the
// controller completes; on failure it stays on the review step and returns
// an error wrapping ErrPlanGeneration.
func (c *Controller) Submit(ctx context.Context) (*models.DesignPlan, error) {
	c.mu.Lock()
	if err := c.checkInteractive(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if c.index != len(models.WizardSteps)-1 {
		c.mu.Unlock()
		return nil, ErrNotAtReview
	}

	snapshot := c.store.Snapshot()
	errs := Validate(models.StepReview, snapshot)
	c.errors = errs
	if !errs.Empty() {
		c.mu.Unlock()
		return nil, errs.clone()
	}
	c.pending = true
	c.lastFailure = nil
	c.mu.Unlock()

	plan, err := c.request(ctx, snapshot)
	if err == nil {
		err = c.handoff.Store(plan, snapshot.Preferences)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = false
	if err != nil {
		slog.Error("Failed to generate design plan", "err", err)
		c.lastFailure = fmt.Errorf("%w: %w", ErrPlanGeneration, err)
		return nil, c.lastFailure
	}
	c.complete = true
	slog.Info("Design plan generated", "furniture_items", len(plan.Furniture), "total_cost", plan.TotalCost)
	return plan, nil
}

// Reset clears the store and returns to the upload step so the user can
// start a new design. It refuses while a request is outstanding.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending {
		return ErrSubmissionPending
	}
	fresh := NewStore()
	c.store.mu.Lock()
	c.store.images = fresh.images
	c.store.preferences = fresh.preferences
	c.store.mu.Unlock()

	c.index = 0
	c.complete = false
	c.errors = ValidationErrors{}
	c.lastFailure = nil
	c.handoff.Clear()
	return nil
}

func (c *Controller) request(ctx context.Context, req models.DesignRequest) (*models.DesignPlan, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	plan, err := c.requester.RequestPlan(ctx, req)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("plan requester returned no plan")
	}
	return plan, nil
}

// checkInteractive must be called with c.mu held.
func (c *Controller) checkInteractive() error {
	if c.complete {
		return ErrComplete
	}
	if c.pending {
		return ErrSubmissionPending
	}
	return nil
}

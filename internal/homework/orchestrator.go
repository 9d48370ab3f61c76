// Package homework validates, submits and interprets AI-helper requests.
package homework

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aihelper/aihelper-cli/internal/api"
	"github.com/aihelper/aihelper-cli/internal/notify"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	MsgMissingInput   = "Please provide both study content and a prompt."
	MsgNotConfigured  = "Backend URL is not configured. Please set BACKEND_URL environment variable."
	MsgProcessing     = "Processing your request..."
	msgGenericFailure = "Failed to get a response from the AI backend."
)

var (
	ErrMissingInput = errors.New("study content and prompt are required")
	ErrInFlight     = errors.New("a request is already in flight")
)

// Variant is the downstream AI provider the backend should use.
type Variant string

const (
	VariantGemini Variant = "gemini"
	VariantLlama  Variant = "llama"
)

// Variants lists the selectable variants, default first.
var Variants = []Variant{VariantGemini, VariantLlama}

func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return VariantGemini, nil
	case VariantGemini, VariantLlama:
		return v, nil
	default:
		return "", fmt.Errorf("unknown api %q (expected gemini|llama)", s)
	}
}

func (v Variant) Label() string {
	switch v {
	case VariantLlama:
		return "Llama"
	default:
		return "Gemini"
	}
}

type Kind int

const (
	Idle Kind = iota
	Submitting
	Succeeded
	Failed
)

func (k Kind) String() string {
	switch k {
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// State is the view-scoped request state. Output is set when Succeeded,
// Message when Failed.
type State struct {
	Kind    Kind
	Output  string
	Message string
}

type Input struct {
	StudyContent string
	Prompt       string
	Variant      Variant
}

// Processor is the backend call.
type Processor interface {
	Configured() bool
	ProcessHomework(ctx context.Context, req api.ProcessRequest) (api.ProcessResponse, error)
}

type Orchestrator struct {
	backend Processor
	notes   notify.Notifier
	log     *zap.Logger
	slot    *semaphore.Weighted

	mu       sync.Mutex
	state    State
	lastErr  error
	onChange []func(State)
}

func New(backend Processor, notes notify.Notifier, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		backend: backend,
		notes:   notes,
		log:     log,
		slot:    semaphore.NewWeighted(1),
	}
}

// OnChange registers fn for every state transition, in order.
func (o *Orchestrator) OnChange(fn func(State)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onChange = append(o.onChange, fn)
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Busy reports whether a submission is in flight; the trigger is disabled then.
func (o *Orchestrator) Busy() bool {
	return o.State().Kind == Submitting
}

// Start validates in and moves to Submitting. Validation and configuration
// failures move to Failed and raise a notification without any network call.
// On success the caller must follow with Finish.
func (o *Orchestrator) Start(in Input) (api.ProcessRequest, error) {
	if strings.TrimSpace(in.StudyContent) == "" || strings.TrimSpace(in.Prompt) == "" {
		if o.Busy() {
			return api.ProcessRequest{}, ErrInFlight
		}
		o.fail(MsgMissingInput, MsgMissingInput, ErrMissingInput)
		return api.ProcessRequest{}, ErrMissingInput
	}
	if o.backend == nil || !o.backend.Configured() {
		if o.Busy() {
			return api.ProcessRequest{}, ErrInFlight
		}
		o.fail(MsgNotConfigured, MsgNotConfigured, api.ErrNotConfigured)
		return api.ProcessRequest{}, api.ErrNotConfigured
	}
	if !o.slot.TryAcquire(1) {
		return api.ProcessRequest{}, ErrInFlight
	}

	variant := in.Variant
	if variant == "" {
		variant = VariantGemini
	}
	o.mu.Lock()
	o.lastErr = nil
	o.mu.Unlock()
	o.set(State{Kind: Submitting})
	return api.ProcessRequest{
		StudyContent: in.StudyContent,
		Prompt:       in.Prompt,
		APIChoice:    string(variant),
	}, nil
}

// Finish performs the call started by Start and settles the state.
func (o *Orchestrator) Finish(ctx context.Context, req api.ProcessRequest) State {
	defer o.slot.Release(1)

	resp, err := o.backend.ProcessHomework(ctx, req)
	if err == nil {
		st := State{Kind: Succeeded, Output: resp.Output}
		o.set(st)
		return st
	}

	o.log.Warn("homework request failed",
		zap.String("module", "homework"),
		zap.String("api_choice", req.APIChoice),
		zap.Error(err))

	var se *api.StatusError
	switch {
	case errors.As(err, &se):
		detail := strings.TrimSpace(se.Detail)
		stateMsg, noteMsg := detail, detail
		if detail == "" {
			stateMsg = msgGenericFailure
			noteMsg = "Unknown error"
		}
		return o.fail("Error: "+stateMsg, "Error from AI backend: "+noteMsg, err)
	case errors.Is(err, api.ErrMalformedResponse):
		msg := "Malformed response from AI backend: " + strings.TrimPrefix(err.Error(), api.ErrMalformedResponse.Error()+": ")
		return o.fail(msg, msg, err)
	default:
		return o.fail(
			"Network error: Failed to connect to the AI backend. Please check your internet connection and the backend server. Error: "+err.Error(),
			"Network error: "+err.Error(),
			err,
		)
	}
}

// Submit is Start followed by Finish. Input errors are reflected in the
// returned state.
func (o *Orchestrator) Submit(ctx context.Context, in Input) State {
	req, err := o.Start(in)
	if err != nil {
		return o.State()
	}
	return o.Finish(ctx, req)
}

// Err is the cause of the last Failed transition, or nil.
func (o *Orchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

func (o *Orchestrator) fail(stateMsg, noteMsg string, cause error) State {
	st := State{Kind: Failed, Message: stateMsg}
	o.mu.Lock()
	o.lastErr = cause
	o.mu.Unlock()
	o.set(st)
	if o.notes != nil {
		o.notes.Show(noteMsg)
	}
	return st
}

func (o *Orchestrator) set(st State) {
	o.mu.Lock()
	o.state = st
	fns := append([]func(State){}, o.onChange...)
	o.mu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

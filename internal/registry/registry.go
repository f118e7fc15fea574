package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go-screenshot-inspector/internal/backend"
	apperrors "go-screenshot-inspector/internal/errors"
	"go-screenshot-inspector/internal/logger"
)

// State is the lifecycle state of one backend.
type State string

const (
	StateNotLoaded State = "not_loaded"
	StateLoading   State = "loading"
	StateLoaded    State = "loaded"
	StateFailed    State = "failed"
)

// ModelStatus is the externally visible load record for one backend.
// Records are replaced whole; readers never see a half-updated entry.
type ModelStatus struct {
	State     State   `json:"state"`
	Loaded    bool    `json:"loaded"`
	Error     string  `json:"error,omitempty"`
	ElapsedMS float64 `json:"elapsed_ms"`
	Skipped   bool    `json:"skipped,omitempty"`
}

// Options controls the load policy.
type Options struct {
	// Headless combined with MockInHeadless skips real loads unless ForceLoad
	// overrides the skip.
	Headless       bool
	MockInHeadless bool
	ForceLoad      bool
}

// Registry tracks detection backends and their load state. Loads are not
// cancelled once started, and concurrent Load calls on the same name are
// not serialized internally; callers that need exclusion must provide it.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]backend.Backend
	status   map[string]ModelStatus

	probe backend.Probe
	opts  Options
}

func New(probe backend.Probe, opts Options) *Registry {
	return &Registry{
		backends: make(map[string]backend.Backend),
		status:   make(map[string]ModelStatus),
		probe:    probe,
		opts:     opts,
	}
}

// Register adds a backend under its own name, starting as not loaded.
func (r *Registry) Register(b backend.Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[b.Name()] = b
	r.status[b.Name()] = ModelStatus{State: StateNotLoaded}
}

// Load initializes and self-tests the named backend, recording the outcome.
// Loading an already loaded backend runs the full load again; that is the
// refresh path after transient failures.
func (r *Registry) Load(ctx context.Context, name string) error {
	return r.load(ctx, name, false)
}

// LoadForced loads the named backend even when the headless policy would
// skip it, giving callers the same override ForceLoad provides at
// construction time.
func (r *Registry) LoadForced(ctx context.Context, name string) error {
	return r.load(ctx, name, true)
}

func (r *Registry) load(ctx context.Context, name string, force bool) error {
	r.mu.Lock()
	b, ok := r.backends[name]
	if !ok {
		r.mu.Unlock()
		return apperrors.NewBackendUnavailableError(fmt.Sprintf("unknown backend: %s", name), nil)
	}

	if r.skipsLoads(force) {
		r.status[name] = ModelStatus{State: StateLoaded, Loaded: true, Skipped: true}
		r.mu.Unlock()
		logger.WithField("backend", name).Info("headless mode, backend load skipped")
		return nil
	}

	if !r.probe.Supports(name) {
		err := apperrors.NewBackendUnavailableError(
			fmt.Sprintf("backend %s is not available in this build or environment", name), nil)
		r.status[name] = ModelStatus{State: StateFailed, Error: err.Message}
		r.mu.Unlock()
		return err
	}

	r.status[name] = ModelStatus{State: StateLoading}
	r.mu.Unlock()

	start := time.Now()
	err := b.Init(ctx)
	if err == nil {
		err = b.SelfTest(ctx)
	}
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0

	r.mu.Lock()
	if err != nil {
		r.status[name] = ModelStatus{State: StateFailed, Error: err.Error(), ElapsedMS: elapsed}
	} else {
		r.status[name] = ModelStatus{State: StateLoaded, Loaded: true, ElapsedMS: elapsed}
	}
	r.mu.Unlock()

	if err != nil {
		logger.WithFields(logrus.Fields{
			"backend":    name,
			"elapsed_ms": elapsed,
		}).WithError(err).Error("backend load failed")
		if _, ok := err.(*apperrors.AppError); ok {
			return err
		}
		return apperrors.NewBackendLoadError(fmt.Sprintf("failed to load backend %s", name), err)
	}

	logger.WithFields(logrus.Fields{
		"backend":    name,
		"elapsed_ms": elapsed,
	}).Info("backend loaded")
	return nil
}

// LoadAll loads the given backends strictly sequentially. An empty name
// list means every registered backend in the canonical order. The first
// failure is remembered but the remaining backends still load; the call
// succeeds only when all of them did.
func (r *Registry) LoadAll(ctx context.Context, names ...string) error {
	return r.loadAll(ctx, false, names...)
}

// LoadAllForced is LoadAll with the headless skip bypassed for every
// named backend.
func (r *Registry) LoadAllForced(ctx context.Context, names ...string) error {
	return r.loadAll(ctx, true, names...)
}

func (r *Registry) loadAll(ctx context.Context, force bool, names ...string) error {
	if len(names) == 0 {
		names = r.registeredInOrder()
	}

	var firstErr error
	for _, name := range names {
		if err := r.load(ctx, name, force); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// registeredInOrder returns the registered subset of the canonical order,
// followed by any backends registered outside it.
func (r *Registry) registeredInOrder() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool, len(r.backends))
	names := make([]string, 0, len(r.backends))
	for _, name := range backend.LoadOrder {
		if _, ok := r.backends[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}
	for name := range r.backends {
		if !seen[name] {
			names = append(names, name)
		}
	}
	return names
}

// Status returns a snapshot copy of all load records.
func (r *Registry) Status() map[string]ModelStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(map[string]ModelStatus, len(r.status))
	for name, st := range r.status {
		snapshot[name] = st
	}
	return snapshot
}

// IsLoaded reports whether the named backend finished a successful load.
func (r *Registry) IsLoaded(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status[name].Loaded
}

// Detector resolves a loaded object detector by name.
func (r *Registry) Detector(name string) (backend.ObjectDetector, error) {
	b, err := r.loadedBackend(name)
	if err != nil {
		return nil, err
	}
	detector, ok := b.(backend.ObjectDetector)
	if !ok {
		return nil, apperrors.NewBackendUnavailableError(
			fmt.Sprintf("backend %s does not detect objects", name), nil)
	}
	return detector, nil
}

// Recognizer resolves a loaded text recognizer by name.
func (r *Registry) Recognizer(name string) (backend.TextRecognizer, error) {
	b, err := r.loadedBackend(name)
	if err != nil {
		return nil, err
	}
	recognizer, ok := b.(backend.TextRecognizer)
	if !ok {
		return nil, apperrors.NewBackendUnavailableError(
			fmt.Sprintf("backend %s does not recognize text", name), nil)
	}
	return recognizer, nil
}

func (r *Registry) loadedBackend(name string) (backend.Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.backends[name]
	if !ok {
		return nil, apperrors.NewBackendUnavailableError(fmt.Sprintf("unknown backend: %s", name), nil)
	}
	if !r.status[name].Loaded {
		return nil, apperrors.NewBackendLoadError(fmt.Sprintf("backend %s is not loaded", name), nil)
	}
	return b, nil
}

// Close shuts every backend down and resets the load records.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, b := range r.backends {
		if err := b.Close(); err != nil {
			logger.WithField("backend", name).WithError(err).Warn("backend close failed")
		}
		r.status[name] = ModelStatus{State: StateNotLoaded}
	}
}

func (r *Registry) skipsLoads(force bool) bool {
	return r.opts.Headless && r.opts.MockInHeadless && !r.opts.ForceLoad && !force
}

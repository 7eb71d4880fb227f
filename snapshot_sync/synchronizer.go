package snapshot_sync

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meysamhadeli/focussync/snapshot_sync/contracts"
	"github.com/meysamhadeli/focussync/snapshot_sync/models"
	"github.com/meysamhadeli/focussync/token_management"
	tokencontracts "github.com/meysamhadeli/focussync/token_management/contracts"
	"github.com/meysamhadeli/focussync/utils"
	"github.com/pterm/pterm"
)

const (
	DefaultInterval   = time.Second
	DefaultJSONIndent = 2
)

// ErrNothingToReport means no document or folder is active; nothing is written.
var ErrNothingToReport = errors.New("no active document or folder")

// Options configures a Synchronizer. Zero values fall back to defaults.
type Options struct {
	ContextPath        string
	TempSuffix         string
	DebounceWindow     time.Duration
	Interval           time.Duration
	Limits             models.TreeLimits
	MaxSelectionLength int
	JSONIndent         int
	Clock              Clock
	Logger             *pterm.Logger
	Metrics            *Metrics
	TokenManager       tokencontracts.ITokenManagement
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	return Options{
		ContextPath:        DefaultContextPath,
		TempSuffix:         DefaultTempSuffix,
		DebounceWindow:     DefaultDebounceWindow,
		Interval:           DefaultInterval,
		Limits:             DefaultTreeLimits,
		MaxSelectionLength: DefaultMaxSelectionLength,
		JSONIndent:         DefaultJSONIndent,
	}
}

// RunOutcome describes one pipeline run.
type RunOutcome struct {
	Snapshot   *models.Snapshot
	Serialized []byte
	Write      WriteResult
}

// Synchronizer keeps the persisted snapshot in step with host state. It owns
// the resolution cache and the writer fingerprint; nothing else touches them.
type Synchronizer struct {
	id        string
	opts      Options
	assembler *Assembler
	writer    *AtomicWriter
	trigger   *CoalescingTrigger
	events    contracts.IEventSource
	cleanup   contracts.ICleanupRegistry
	logger    *pterm.Logger
	stats     *SyncStats
	metrics   *Metrics
	tokens    tokencontracts.ITokenManagement

	runMu sync.Mutex
	cache ResolutionCache

	lifeMu      sync.Mutex
	started     bool
	stopped     bool
	ticker      Timer
	unsubscribe []func()
}

// NewSynchronizer wires the pipeline over host. events and cleanup may be nil.
func NewSynchronizer(host Host, events contracts.IEventSource, cleanup contracts.ICleanupRegistry, opts Options) *Synchronizer {
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = DefaultDebounceWindow
	}
	if opts.Limits == (models.TreeLimits{}) {
		opts.Limits = DefaultTreeLimits
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}
	if opts.TokenManager == nil {
		opts.TokenManager = token_management.NewTokenManager()
	}

	s := &Synchronizer{
		id:      uuid.NewString(),
		opts:    opts,
		events:  events,
		cleanup: cleanup,
		logger:  utils.OrDiscard(opts.Logger),
		stats:   newSyncStats(),
		metrics: opts.Metrics,
		tokens:  opts.TokenManager,
	}
	s.assembler = NewAssembler(host, opts.Clock, opts.Limits, opts.MaxSelectionLength)
	s.writer = NewAtomicWriter(host.Storage, opts.ContextPath, opts.TempSuffix, s.logger)
	s.trigger = NewCoalescingTrigger(opts.Clock, opts.DebounceWindow, s.tick)
	return s
}

// ID identifies this synchronizer in logs.
func (s *Synchronizer) ID() string { return s.id }

// Assembler exposes the snapshot assembler.
func (s *Synchronizer) Assembler() *Assembler { return s.assembler }

// Writer exposes the artifact writer.
func (s *Synchronizer) Writer() *AtomicWriter { return s.writer }

// Start subscribes to host events, starts the periodic fallback and schedules
// a first refresh. Stop is registered with the cleanup registry.
func (s *Synchronizer) Start() {
	s.lifeMu.Lock()
	if s.started || s.stopped {
		s.lifeMu.Unlock()
		return
	}
	s.started = true
	if s.events != nil {
		for _, kind := range models.SyncEvents {
			s.unsubscribe = append(s.unsubscribe, s.events.On(kind, s.Trigger))
		}
	}
	if s.opts.Interval > 0 {
		s.ticker = s.opts.Clock.Every(s.opts.Interval, s.tick)
	}
	if s.cleanup != nil {
		s.cleanup.Register(s.Stop)
	}
	s.lifeMu.Unlock()

	s.logger.Debug("snapshot synchronizer started", s.logger.Args(
		"sync_id", s.id,
		"path", s.writer.Path(),
		"debounce", s.opts.DebounceWindow.String(),
		"interval", s.opts.Interval.String(),
	))
	s.Trigger()
}

// Stop cancels the pending refresh and the periodic timer and unsubscribes
// from host events. A write already in progress is allowed to finish.
func (s *Synchronizer) Stop() {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	s.trigger.Cancel()
	if s.ticker != nil {
		s.ticker.Stop()
	}
	for _, unsubscribe := range s.unsubscribe {
		if unsubscribe != nil {
			unsubscribe()
		}
	}
	s.unsubscribe = nil
	s.logger.Debug("snapshot synchronizer stopped", s.logger.Args("sync_id", s.id))
}

// Trigger schedules a coalesced refresh. It never panics into the caller.
func (s *Synchronizer) Trigger() {
	s.barrier("trigger", s.trigger.Trigger)
}

// Refresh forgets the last written fingerprint and schedules a run, so the
// artifact is written again even if the snapshot did not change. Used when
// the artifact was removed behind the writer's back.
func (s *Synchronizer) Refresh() {
	s.writer.Reset()
	s.Trigger()
}

// tick runs the pipeline from a timer.
func (s *Synchronizer) tick() {
	s.barrier("pipeline", func() {
		if _, err := s.run(); err != nil && !errors.Is(err, ErrNothingToReport) {
			s.logger.Error("snapshot pipeline failed", s.logger.Args("sync_id", s.id, "error", err))
		}
	})
}

// SyncNow runs the pipeline immediately. Panics are converted into errors.
func (s *Synchronizer) SyncNow() (outcome RunOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.recordPanic("sync", r)
			err = fmt.Errorf("snapshot pipeline panicked: %v", r)
		}
	}()
	return s.run()
}

// barrier runs fn and logs any panic instead of propagating it.
func (s *Synchronizer) barrier(stage string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.recordPanic(stage, r)
		}
	}()
	fn()
}

func (s *Synchronizer) recordPanic(stage string, r interface{}) {
	s.stats.recordPanic()
	s.metrics.Panics.Inc()
	s.logger.Error("snapshot pipeline panicked", s.logger.Args(
		"sync_id", s.id,
		"stage", stage,
		"panic", fmt.Sprint(r),
	))
}

func (s *Synchronizer) run() (RunOutcome, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	started := time.Now()
	defer func() { s.metrics.PipelineDuration.Observe(time.Since(started).Seconds()) }()
	s.stats.recordRun()
	s.metrics.Runs.Inc()

	snapshot, next, ok := s.assembler.Assemble(s.cache)
	if !ok {
		s.stats.recordEmpty()
		s.metrics.Empty.Inc()
		return RunOutcome{}, ErrNothingToReport
	}

	serialized, err := Serialize(snapshot, s.opts.JSONIndent)
	if err != nil {
		return RunOutcome{}, fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	if next.FolderPath != nil {
		rebuilt := s.cache.FolderPath == nil || *s.cache.FolderPath != *next.FolderPath
		s.stats.recordResolution(rebuilt)
		if rebuilt {
			s.metrics.TreeRebuilds.Inc()
		}
	}
	s.cache = next

	outcome := RunOutcome{Snapshot: snapshot, Serialized: serialized}
	outcome.Write = s.writer.Write(serialized)
	s.metrics.Writes.WithLabelValues(outcome.Write.String()).Inc()

	tokens := 0
	if outcome.Write == WriteAtomic || outcome.Write == WriteFallback {
		tokens = s.tokens.TrackArtifact(serialized)
		s.metrics.ArtifactBytes.Set(float64(len(serialized)))
		s.logger.Trace("snapshot written", s.logger.Args(
			"sync_id", s.id,
			"path", s.writer.Path(),
			"bytes", len(serialized),
			"mode", outcome.Write.String(),
		))
	}
	s.stats.recordWrite(outcome.Write, tokens)
	return outcome, nil
}

// Cache returns the current resolution cache.
func (s *Synchronizer) Cache() ResolutionCache {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.cache
}

// Stats returns pipeline counters.
func (s *Synchronizer) Stats() map[string]interface{} {
	stats := s.stats.snapshot()
	stats["sync_id"] = s.id
	stats["context_path"] = s.writer.Path()
	stats["fingerprint"] = s.writer.LastFingerprint()
	return stats
}

// ResetStats zeroes the counters.
func (s *Synchronizer) ResetStats() {
	s.stats.reset()
}

// Serialize renders a snapshot as JSON indented by indent spaces. A
// non-positive indent produces compact output.
func Serialize(snapshot *models.Snapshot, indent int) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", indent))
	}
	if err := enc.Encode(snapshot); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

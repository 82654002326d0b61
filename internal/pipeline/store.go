package pipeline

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ppiankov/slopscore/internal/model"
)

// ErrStoreClosed is returned by Dispatch after Close
var ErrStoreClosed = errors.New("store closed")

// Observer receives every snapshot the store publishes. Observers run on the
// store's writer goroutine and must not call Dispatch.
type Observer func(model.Snapshot)

// Event is a change to the analysis state
type Event interface {
	apply(st *storeState) error
}

// storeState is owned by the writer goroutine
type storeState struct {
	machine   *StageMachine
	runID     string
	report    *model.Report
	err       *string
	observers []Observer
}

type envelope struct {
	event Event
	ack   chan error
}

// Store owns the report. Events are applied one at a time by a single
// goroutine; readers only ever see deep-copied snapshots.
type Store struct {
	events  chan envelope
	done    chan struct{}
	closed  atomic.Bool
	current atomic.Pointer[model.Snapshot]
	now     func() time.Time
}

// NewStore creates a store in IDLE and starts its writer goroutine
func NewStore() (*Store, error) {
	machine, err := NewStageMachine()
	if err != nil {
		return nil, err
	}

	s := &Store{
		events: make(chan envelope),
		done:   make(chan struct{}),
		now:    time.Now,
	}
	st := &storeState{machine: machine}
	s.publish(st)

	go s.loop(st)
	return s, nil
}

func (s *Store) loop(st *storeState) {
	for {
		select {
		case env := <-s.events:
			err := env.event.apply(st)
			if err == nil {
				snap := s.publish(st)
				if sub, ok := env.event.(subscribe); ok {
					sub.observer(snap)
				} else {
					for _, o := range st.observers {
						o(snap)
					}
				}
			}
			env.ack <- err
		case <-s.done:
			return
		}
	}
}

func (s *Store) publish(st *storeState) model.Snapshot {
	snap := model.Snapshot{
		RunID:     st.runID,
		Stage:     st.machine.Current(),
		UpdatedAt: s.now().UTC(),
	}
	if st.report != nil {
		r := st.report.Clone()
		snap.Report = &r
	}
	if st.err != nil {
		msg := *st.err
		snap.Error = &msg
	}
	s.current.Store(&snap)
	return snap
}

// Dispatch applies ev and blocks until it is visible to readers and observers
func (s *Store) Dispatch(ev Event) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	ack := make(chan error, 1)
	select {
	case s.events <- envelope{event: ev, ack: ack}:
	case <-s.done:
		return ErrStoreClosed
	}
	return <-ack
}

// Snapshot returns the latest published snapshot
func (s *Store) Snapshot() model.Snapshot {
	return *s.current.Load()
}

// Subscribe registers an observer. It is called immediately with the current snapshot.
func (s *Store) Subscribe(o Observer) error {
	return s.Dispatch(subscribe{observer: o})
}

// Close stops the writer goroutine
func (s *Store) Close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.done)
	}
}

type subscribe struct {
	observer Observer
}

func (e subscribe) apply(st *storeState) error {
	st.observers = append(st.observers, e.observer)
	return nil
}

// RunStarted begins a new run, clearing the previous report and error
type RunStarted struct {
	RunID   string
	RepoURL string
}

func (e RunStarted) apply(st *storeState) error {
	if st.machine.Current().IsRunning() {
		return model.NewError(model.KindBusy, "an analysis is already in progress")
	}
	if _, err := st.machine.Fire(EventSubmit); err != nil {
		return err
	}
	st.runID = e.RunID
	st.report = nil
	st.err = nil
	return nil
}

// ReportCreated installs the report with every feature PENDING
type ReportCreated struct {
	Report model.Report
}

func (e ReportCreated) apply(st *storeState) error {
	if _, err := st.machine.Fire(EventExtracted); err != nil {
		return err
	}
	r := e.Report.Clone()
	st.report = &r
	return nil
}

// WarningRaised records a non-fatal issue on the report
type WarningRaised struct {
	Message string
}

func (e WarningRaised) apply(st *storeState) error {
	if st.report == nil {
		return fmt.Errorf("warning %q: no report", e.Message)
	}
	st.report.Warnings = append(st.report.Warnings, e.Message)
	return nil
}

// FeatureVerifying marks one feature as in flight
type FeatureVerifying struct {
	Index int
}

func (e FeatureVerifying) apply(st *storeState) error {
	f, err := st.feature(e.Index)
	if err != nil {
		return err
	}
	f.Verdict = model.VerdictVerifying
	return nil
}

// FeatureVerified applies a terminal verification result to one feature
type FeatureVerified struct {
	Index  int
	Result model.Verification
}

func (e FeatureVerified) apply(st *storeState) error {
	if !e.Result.Verdict.IsTerminal() {
		return fmt.Errorf("feature %d: verdict %q is not terminal", e.Index, e.Result.Verdict)
	}
	f, err := st.feature(e.Index)
	if err != nil {
		return err
	}
	e.Result.Apply(f)
	return nil
}

// RunCompleted finishes the run with its score
type RunCompleted struct {
	Score model.Score
}

func (e RunCompleted) apply(st *storeState) error {
	if _, err := st.machine.Fire(EventFinish); err != nil {
		return err
	}
	if st.report != nil {
		sc := e.Score.Clone()
		st.report.Score = &sc
	}
	return nil
}

// RunFailed moves the run to ERROR. Results already applied are kept.
type RunFailed struct {
	Message string
}

func (e RunFailed) apply(st *storeState) error {
	if _, err := st.machine.Fire(EventFail); err != nil {
		return err
	}
	msg := e.Message
	st.err = &msg
	return nil
}

func (st *storeState) feature(i int) (*model.Feature, error) {
	if st.machine.Current() != model.StageVerifying {
		return nil, fmt.Errorf("feature %d: stage is %s", i, st.machine.Current())
	}
	if st.report == nil || i < 0 || i >= len(st.report.Features) {
		return nil, fmt.Errorf("feature %d: out of range", i)
	}
	return &st.report.Features[i], nil
}

package pipeline

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"

	"github.com/ppiankov/slopscore/internal/model"
)

// Stage machine events
const (
	EventSubmit    = "submit"
	EventExtracted = "extracted"
	EventFinish    = "finish"
	EventFail      = "fail"
)

type stageContext struct{}

// StageMachine tracks the analysis stage and rejects transitions the run lifecycle does not allow
type StageMachine struct {
	interpreter *statekit.Interpreter[stageContext]
}

// NewStageMachine creates a machine in IDLE
func NewStageMachine() (*StageMachine, error) {
	builder := statekit.NewMachine[stageContext]("analysis-stage").
		WithInitial(statekit.StateID(model.StageIdle)).
		WithContext(stageContext{})

	builder.State(statekit.StateID(model.StageIdle)).
		On(EventSubmit).Target(statekit.StateID(model.StageExtractingFeatures)).
		Done()

	builder.State(statekit.StateID(model.StageExtractingFeatures)).
		On(EventExtracted).Target(statekit.StateID(model.StageVerifying)).
		On(EventFail).Target(statekit.StateID(model.StageError)).
		Done()

	builder.State(statekit.StateID(model.StageVerifying)).
		On(EventFinish).Target(statekit.StateID(model.StageComplete)).
		On(EventFail).Target(statekit.StateID(model.StageError)).
		Done()

	builder.State(statekit.StateID(model.StageComplete)).
		On(EventSubmit).Target(statekit.StateID(model.StageExtractingFeatures)).
		Done()

	builder.State(statekit.StateID(model.StageError)).
		On(EventSubmit).Target(statekit.StateID(model.StageExtractingFeatures)).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build stage machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &StageMachine{interpreter: interpreter}, nil
}

// Fire sends event and returns the new stage. No transition leaves a stage
// unchanged, so an unchanged stage means the event was not allowed.
func (m *StageMachine) Fire(event string) (model.Stage, error) {
	before := m.Current()
	m.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	after := m.Current()

	if before == after {
		return before, fmt.Errorf("event %q is not allowed in stage %s", event, before)
	}
	return after, nil
}

// Current returns the current stage
func (m *StageMachine) Current() model.Stage {
	return model.Stage(m.interpreter.State().Value)
}

package gpgpu

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockResource1 struct {
	name string
}
type MockResource2 struct {
	name string
}

func NewMockResource1(name string) *MockResource1 {
	return &MockResource1{name: name}
}
func NewMockResource2(name string) *MockResource2 {
	return &MockResource2{name: name}
}

func TestApp_changeState(t *testing.T) {
	app := &App{
		stateful:     true,
		initialState: 1,
		state:        1,
		finalState:   2,
	}

	app.changeState(2)
	assert.Equal(t, State(2), app.nextState)
	assert.True(t, app.stateTransitioning)

	app.executeChangeState(2)
	assert.Equal(t, State(2), app.state)
}

func TestApp_addResources(t *testing.T) {
	app := &App{
		resources: make(map[reflect.Type]any),
	}

	resource1 := NewMockResource1("Resource1")
	app.addResources(resource1)
	assert.Contains(t, app.resources, reflect.TypeOf(resource1).Elem())

	require.PanicsWithValue(t, fmt.Sprintf("%s is already in resources", reflect.TypeOf(resource1)), func() {
		app.addResources(resource1)
	})

	resource2 := NewMockResource2("Resource2")
	app.addResources(resource2)
	assert.Contains(t, app.resources, reflect.TypeOf(resource2).Elem())

	assert.Panics(t, func() { app.addResources(MockResource2{}) }, "resources are pointers")
}

func TestResource(t *testing.T) {
	app := newApp()
	app.addResources(NewMockResource1("r"))

	r, ok := Resource[MockResource1](app)
	require.True(t, ok)
	assert.Equal(t, "r", r.name)

	_, ok = Resource[MockResource2](app)
	assert.False(t, ok)
}

func TestApp_SystemInjection(t *testing.T) {
	app := NewAppBuilder().Build()
	app.addResources(NewMockResource1("a"), NewMockResource2("b"))

	var got string
	app.UseSystem(System(func(r1 *MockResource1, cmd *Commands, r2 *MockResource2) {
		require.NotNil(t, cmd)
		got = r1.name + r2.name
	}))

	assert.True(t, app.Step())
	assert.Equal(t, "ab", got)
}

func TestApp_UnresolvedDependencyPanics(t *testing.T) {
	app := NewAppBuilder().Build()
	app.UseSystem(System(func(*MockResource1) {}))
	assert.Panics(t, func() { app.Step() })
}

func TestApp_StageOrder(t *testing.T) {
	app := NewAppBuilder().Build()
	var order []string
	for _, stage := range []Stage{Finale, Render, Prelude, PreRender, Update} {
		name := stage.Name
		app.UseSystem(System(func() { order = append(order, name) }).InStage(stage))
	}
	app.Step()
	assert.Equal(t, []string{"Prelude", "Update", "PreRender", "Render", "Finale"}, order)
}

func TestApp_StatefulLifecycle(t *testing.T) {
	app := NewAppBuilder().UseStates(StateStartup, StateExit).Build()

	var events []string
	record := func(e string) func() {
		return func() { events = append(events, e) }
	}
	app.UseSystem(System(record("enter startup")).InState(OnEnter(StateStartup)))
	app.UseSystem(System(func(cmd *Commands) {
		events = append(events, "startup chooses running")
		cmd.ChangeState(StateRunning)
	}).InState(OnEnter(StateStartup)))
	app.UseSystem(System(record("exit startup")).InState(OnExit(StateStartup)))
	app.UseSystem(System(record("enter running")).InState(OnEnter(StateRunning)))

	frames := 0
	app.UseSystem(System(func(cmd *Commands) {
		frames++
		events = append(events, "running")
		if frames == 2 {
			cmd.ChangeState(StateExit)
		}
	}).InState(OnExecute(StateRunning)))
	app.UseSystem(System(record("exit running")).InState(OnExit(StateRunning)))
	app.UseSystem(System(record("enter exit")).InState(OnEnter(StateExit)))
	app.UseSystem(System(record("exit exit")).InState(OnExit(StateExit)))

	app.Run()

	assert.Equal(t, []string{
		"enter startup",
		"startup chooses running",
		"exit startup",
		"enter running",
		"running",
		"running",
		"exit running",
		"enter exit",
		"exit exit",
	}, events)
	assert.Equal(t, StateExit, app.State())
	assert.False(t, app.Step(), "a finished app does not step again")
}

func TestApp_RunAlwaysIgnoresState(t *testing.T) {
	app := NewAppBuilder().UseStates(StateStartup, StateExit).Build()
	calls := 0
	app.UseSystem(System(func() { calls++ }).InState(OnExecute(StateRunning)).RunAlways())

	app.Start()
	app.Step()
	app.Step()
	assert.Equal(t, 2, calls)
	assert.Equal(t, StateStartup, app.State())
}

func TestApp_StatefulSystemInStatelessAppPanics(t *testing.T) {
	app := NewAppBuilder().Build()
	assert.Panics(t, func() {
		app.UseSystem(System(func() {}).InState(OnEnter(StateRunning)))
	})
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "Running", StateRunning.String())
	assert.Equal(t, "Unsupported", StateUnsupported.String())
	assert.Equal(t, "State(9)", State(9).String())
}

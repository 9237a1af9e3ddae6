package dispatch

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/opdispatch/internal/dispatchkey"
	"github.com/vk/opdispatch/internal/opschema"
)

// recordingListener appends one line per event so tests can assert exact
// ordering.
type recordingListener struct {
	tag    string
	events []string
}

func (l *recordingListener) OnOperatorRegistered(op OperatorHandle) {
	l.events = append(l.events, fmt.Sprintf("%s:registered:%s", l.tag, op.Name()))
}

func (l *recordingListener) OnOperatorDeregistered(op OperatorHandle) {
	l.events = append(l.events, fmt.Sprintf("%s:deregistered:%s", l.tag, op.Name()))
}

func registerNamedSchema(t *testing.T, d *Dispatcher, base string) *Registration {
	t.Helper()
	s := addSchema()
	s.Name = opschema.NewName(base, "")
	reg, err := d.RegisterSchema(s)
	require.NoError(t, err)
	return reg
}

func TestListenerLiveNotifications(t *testing.T) {
	d := New()
	listener := &recordingListener{tag: "a"}
	d.AddListener(listener)

	reg := registerNamedSchema(t, d, "add")
	assert.Equal(t, []string{"a:registered:add"}, listener.events)

	reg.Deregister()
	assert.Equal(t, []string{"a:registered:add", "a:deregistered:add"}, listener.events)
}

func TestListenerReplayOnAttach(t *testing.T) {
	d := New()
	reg1 := registerNamedSchema(t, d, "add")
	defer reg1.Deregister()
	reg2 := registerNamedSchema(t, d, "sub")
	defer reg2.Deregister()
	reg3 := registerNamedSchema(t, d, "mul")
	defer reg3.Deregister()

	listener := &recordingListener{tag: "late"}
	d.AddListener(listener)

	// Exactly one replay call per live operator, in store order.
	assert.Equal(t, []string{
		"late:registered:add",
		"late:registered:sub",
		"late:registered:mul",
	}, listener.events)

	// Subsequent live notifications follow the replay.
	reg4 := registerNamedSchema(t, d, "div")
	defer reg4.Deregister()
	assert.Equal(t, "late:registered:div", listener.events[len(listener.events)-1])
}

func TestListenerNotifiedOncePerStrongTransition(t *testing.T) {
	d := New()
	listener := &recordingListener{tag: "a"}
	d.AddListener(listener)

	// Two schema registrations, one notification: only the 0->1 strong
	// transition announces the operator.
	reg1 := registerNamedSchema(t, d, "add")
	reg2 := registerNamedSchema(t, d, "add")
	assert.Len(t, listener.events, 1)

	// The 1->0 strong transition announces deregistration exactly once,
	// while the entry is still findable.
	reg2.Deregister()
	assert.Len(t, listener.events, 1)
	reg1.Deregister()
	assert.Len(t, listener.events, 2)
	assert.Equal(t, "a:deregistered:add", listener.events[1])
}

func TestKernelOnlyRegistrationDoesNotNotify(t *testing.T) {
	d := New()
	listener := &recordingListener{tag: "a"}
	d.AddListener(listener)

	reg, err := d.RegisterKernel(opschema.NewName("add", ""), keyPtr(dispatchkey.CPU), labelKernel("cpu-impl"))
	require.NoError(t, err)
	assert.Empty(t, listener.events, "kernel-only registrations do not define the operator")

	reg.Deregister()
	assert.Empty(t, listener.events)
}

func TestListenersNotifiedInAttachmentOrder(t *testing.T) {
	d := New()
	first := &recordingListener{tag: "first"}
	second := &recordingListener{tag: "second"}

	var order []string
	d.AddListener(newListenerFunc(func(op OperatorHandle) {
		first.OnOperatorRegistered(op)
		order = append(order, "first")
	}, func(op OperatorHandle) {
		first.OnOperatorDeregistered(op)
		order = append(order, "first")
	}))
	d.AddListener(newListenerFunc(func(op OperatorHandle) {
		second.OnOperatorRegistered(op)
		order = append(order, "second")
	}, func(op OperatorHandle) {
		second.OnOperatorDeregistered(op)
		order = append(order, "second")
	}))

	reg := registerNamedSchema(t, d, "add")
	reg.Deregister()

	assert.Equal(t, []string{"first", "second", "first", "second"}, order)
}

// listenerFunc adapts two closures into a Listener.
type listenerFunc struct {
	onRegistered   func(OperatorHandle)
	onDeregistered func(OperatorHandle)
}

func (l listenerFunc) OnOperatorRegistered(op OperatorHandle)   { l.onRegistered(op) }
func (l listenerFunc) OnOperatorDeregistered(op OperatorHandle) { l.onDeregistered(op) }

func TestRegisteredNotificationSeesQueryableOperator(t *testing.T) {
	d := New()

	var foundDuringCallback bool
	var schemaDuringCallback bool
	d.AddListener(newListenerFunc(func(op OperatorHandle) {
		_, foundDuringCallback = d.Find(op.Name())
		schemaDuringCallback = op.HasSchema()
	}, func(op OperatorHandle) {
		// Deregistration fires before removal: still findable here.
		_, found := d.Find(op.Name())
		assert.True(t, found)
	}))

	reg := registerNamedSchema(t, d, "add")
	assert.True(t, foundDuringCallback, "operator must be findable inside the registered callback")
	assert.True(t, schemaDuringCallback)
	reg.Deregister()
}

func newListenerFunc(reg, dereg func(OperatorHandle)) Listener {
	return listenerFunc{onRegistered: reg, onDeregistered: dereg}
}

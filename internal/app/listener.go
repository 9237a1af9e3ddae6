package app

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/vk/opdispatch/internal/dispatch"
	"github.com/vk/opdispatch/internal/opschema"
)

// logListener logs every operator lifecycle event. Attached before any
// manifest registration runs, so the log stream covers the full history.
type logListener struct {
	logger *slog.Logger
}

func (l *logListener) OnOperatorRegistered(op dispatch.OperatorHandle) {
	l.logger.Info("Operator registered.", "operator", op.Name().String(), "keys", op.Keys().String())
}

func (l *logListener) OnOperatorDeregistered(op dispatch.OperatorHandle) {
	l.logger.Info("Operator deregistered.", "operator", op.Name().String())
}

// operatorSummary is the diagnostic view of one live operator.
type operatorSummary struct {
	Name     string `json:"name"`
	Schema   string `json:"schema,omitempty"`
	Keys     string `json:"keys"`
	CatchAll bool   `json:"catch_all"`
}

// inventoryListener tracks the live operator set for the inventory printout
// and the /operators endpoint. The replay performed by AddListener seeds it
// with every operator registered before attachment.
type inventoryListener struct {
	mu   sync.Mutex
	live map[opschema.Name]dispatch.OperatorHandle
}

func newInventoryListener() *inventoryListener {
	return &inventoryListener{live: make(map[opschema.Name]dispatch.OperatorHandle)}
}

func (l *inventoryListener) OnOperatorRegistered(op dispatch.OperatorHandle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.live[op.Name()] = op
}

func (l *inventoryListener) OnOperatorDeregistered(op dispatch.OperatorHandle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.live, op.Name())
}

// snapshot returns summaries of the live operators, sorted by name.
func (l *inventoryListener) snapshot() []operatorSummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]operatorSummary, 0, len(l.live))
	for name, op := range l.live {
		summary := operatorSummary{
			Name:     name.String(),
			Keys:     op.Keys().String(),
			CatchAll: op.HasCatchAll(),
		}
		if op.HasSchema() {
			summary.Schema = op.Schema().String()
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

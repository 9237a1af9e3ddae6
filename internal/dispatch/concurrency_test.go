package dispatch

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/opdispatch/internal/opschema"
)

// TestConcurrentFindDuringWrites hammers the lookup table with readers
// while writers register and deregister unrelated operators. Readers must
// always resolve the stable operator and never observe a torn table. Run
// with -race to verify the publish discipline.
func TestConcurrentFindDuringWrites(t *testing.T) {
	d := New()

	stable := addSchema()
	stableReg, err := d.RegisterSchema(stable)
	require.NoError(t, err)
	defer stableReg.Deregister()

	const (
		writers       = 4
		readers       = 8
		opsPerWriter  = 200
		findsPerGo    = 2000
		stableName    = "add"
		stableArgSize = 2
	)

	var wg sync.WaitGroup

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < opsPerWriter; i++ {
				s := addSchema()
				s.Name = opschema.NewName(fmt.Sprintf("churn_%d_%d", w, i), "")
				reg, err := d.RegisterSchema(s)
				if err != nil {
					t.Errorf("writer %d: %v", w, err)
					return
				}
				reg.Deregister()
			}
		}(w)
	}

	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := opschema.NewName(stableName, "")
			for i := 0; i < findsPerGo; i++ {
				op, ok := d.Find(name)
				if !ok {
					t.Error("stable operator disappeared during unrelated writes")
					return
				}
				if got := op.Name().Base; got != stableName {
					t.Errorf("handle resolved to wrong operator: %q", got)
					return
				}
				if got := len(op.Schema().Args); got != stableArgSize {
					t.Errorf("schema torn: %d args", got)
					return
				}
			}
		}()
	}

	wg.Wait()

	// All churn operators are gone; only the stable one remains.
	assert.Equal(t, 1, d.OperatorCount())
}

// TestConcurrentRegistrationsOfSameName checks that racing registrations of
// one name agree on a single entry and that the last disposal erases it.
func TestConcurrentRegistrationsOfSameName(t *testing.T) {
	d := New()

	const goroutines = 16
	regs := make([]*Registration, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reg, err := d.RegisterSchema(addSchema())
			if err != nil {
				t.Errorf("goroutine %d: %v", i, err)
				return
			}
			regs[i] = reg
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, d.OperatorCount())

	var dwg sync.WaitGroup
	for _, reg := range regs {
		require.NotNil(t, reg)
		dwg.Add(1)
		go func(reg *Registration) {
			defer dwg.Done()
			reg.Deregister()
		}(reg)
	}
	dwg.Wait()

	_, ok := d.Find(opschema.NewName("add", ""))
	assert.False(t, ok)
	assert.Equal(t, 0, d.OperatorCount())
}

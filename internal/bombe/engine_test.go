package bombe

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollux/enigma/internal/enigma"
)

type progressLog struct {
	mu   sync.Mutex
	msgs []Progress
}

func (l *progressLog) sink(p Progress) {
	l.mu.Lock()
	l.msgs = append(l.msgs, p)
	l.mu.Unlock()
}

func (l *progressLog) kinds(k ProgressKind) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, p := range l.msgs {
		if p.Kind == k {
			out = append(out, p.Message)
		}
	}
	return out
}

func candidateKey(c Candidate) string {
	return c.RotorString() + "/" + c.PositionString() + "/" + strings.Join(c.Pairs(), " ")
}

func TestNewEngine_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want error
	}{
		{"empty crib", Options{Crib: "12 -", Ciphertext: "ABC"}, ErrEmptyCrib},
		{"crib too long", Options{Crib: "ABCD", Ciphertext: "XYZ"}, ErrCribTooLong},
		{"unknown rotor", Options{Crib: "A", Ciphertext: "B", RotorTypes: []string{"I", "II", "IX"}}, enigma.ErrUnknownRotor},
		{"unknown reflector", Options{Crib: "A", Ciphertext: "B", Reflector: "D"}, enigma.ErrUnknownReflector},
		{"two rotors", Options{Crib: "A", Ciphertext: "B", RotorTypes: []string{"I", "II"}}, ErrRotorCount},
		{"repeated rotor", Options{Crib: "A", Ciphertext: "B", RotorTypes: []string{"I", "I", "II"}}, ErrRotorReused},
		{"repeated rotor in pool", Options{Crib: "A", Ciphertext: "B", RotorTypes: []string{"I", "I", "II", "III"}, AllOrders: true}, ErrRotorReused},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			if opts.RotorTypes == nil {
				opts.RotorTypes = []string{"I", "II", "III"}
			}
			if opts.Reflector == "" {
				opts.Reflector = "B"
			}
			_, err := NewEngine(opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestNewEngine_Normalises(t *testing.T) {
	e := newTestEngine(t, Options{Crib: "wetter vor", Ciphertext: "ab-cd ef gh ij k", Workers: 3})
	assert.Equal(t, "WETTERVOR", e.cribText)
	assert.Equal(t, "ABCDEFGHIJK", e.cipherText)
	assert.Equal(t, 3, e.offsets())
	assert.Equal(t, int64(3*PositionsPerOrder), e.TotalTasks())
	assert.Equal(t, 3, e.Workers())
	assert.NotEmpty(t, e.RunID())
	assert.Equal(t, [][3]string{{"I", "II", "III"}}, e.Orders())
}

func TestNewEngine_DefaultWorkers(t *testing.T) {
	e, err := NewEngine(Options{
		Crib: "A", Ciphertext: "B",
		RotorTypes: []string{"I", "II", "III"}, Reflector: "B",
		WorkerFraction: 0.5,
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, e.Workers(), 1)
}

func TestAttack_FindsTrueSetting(t *testing.T) {
	m, err := enigma.New(enigma.Settings{
		Rotors:    [3]string{"I", "II", "III"},
		Reflector: "B",
		Positions: [3]int{2, 5, 10},
		Plugboard: []string{"AB", "CD", "EF"},
	})
	require.NoError(t, err)
	cipher := m.Encrypt("B")
	require.Equal(t, "Z", cipher)

	e := newTestEngine(t, Options{Crib: "B", Ciphertext: cipher, Workers: 4})
	var log progressLog
	found := e.Attack(context.Background(), log.sink)

	assert.Equal(t, e.TotalTasks(), e.Tested())
	assert.Equal(t, len(found), e.Found())
	require.NotEmpty(t, found)

	var hit *Candidate
	for i := range found {
		if found[i].Positions == [3]int{2, 5, 10} {
			hit = &found[i]
			break
		}
	}
	require.NotNil(t, hit)
	assert.Equal(t, 100-2*float64(hit.PlugboardPairs), hit.Score)
	assert.Equal(t, cipher, reencrypt(t, *hit, "B"))

	for i := 1; i < len(found); i++ {
		assert.LessOrEqual(t, compareCandidates(found[i-1], found[i]), 0)
	}
}

func TestAttack_Deterministic(t *testing.T) {
	run := func(workers int) []string {
		e := newTestEngine(t, Options{Crib: "B", Ciphertext: "Z", Workers: workers})
		var keys []string
		for _, c := range e.Attack(context.Background(), nil) {
			keys = append(keys, candidateKey(c))
		}
		return keys
	}
	assert.Equal(t, run(1), run(4))
}

func TestAttack_NothingFound(t *testing.T) {
	e := newTestEngine(t, Options{Crib: "A", Ciphertext: "A"})
	var log progressLog
	found := e.Attack(context.Background(), log.sink)

	assert.NotNil(t, found)
	assert.Empty(t, found)
	assert.Contains(t, log.kinds(ProgressDone), "Found 0 candidates")
}

func TestAttack_Progress(t *testing.T) {
	e := newTestEngine(t, Options{Crib: "B", Ciphertext: "Z"})
	var log progressLog
	e.Attack(context.Background(), log.sink)

	require.NotEmpty(t, log.msgs)
	first, last := log.msgs[0], log.msgs[len(log.msgs)-1]
	assert.Equal(t, ProgressSummary, first.Kind)
	assert.Equal(t, "Total combinations: 17576 (positions: 17576, orders: 1, offsets: 1)", first.Message)
	assert.Equal(t, int64(PositionsPerOrder), first.Total)
	assert.Equal(t, ProgressDone, last.Kind)
	assert.True(t, strings.HasPrefix(last.Message, "Processing time: "), last.Message)

	assert.Contains(t, log.kinds(ProgressMode), "Test all rotor orders: false")
	assert.Contains(t, log.kinds(ProgressMode), "Search without plugboard: false")
	assert.Contains(t, log.kinds(ProgressMenu), "No loops found in menu at offset 0")

	ticks := log.kinds(ProgressTick)
	assert.Len(t, ticks, PositionsPerOrder/ProgressInterval)
	assert.Contains(t, ticks, "Progress: 5000/17576 (28.4%)")
}

func TestAttack_MenuLoopsAnnounced(t *testing.T) {
	e := newTestEngine(t, Options{Crib: "ABC", Ciphertext: "BCA"})
	var log progressLog
	e.Stop()
	e.Attack(context.Background(), log.sink)

	menu := log.kinds(ProgressMenu)
	require.Len(t, menu, 2)
	assert.Equal(t, "Found 1 loops in menu at offset 0", menu[0])
	assert.Equal(t, "  Loop: A -> B -> C", menu[1])
}

func TestMenuHeadline(t *testing.T) {
	assert.Equal(t, "No loops found in menu at offset 0", menuHeadline(0))
	assert.Equal(t, "Found 3 loops in menu at offset 0", menuHeadline(3))
	assert.Equal(t, "Found at least 64 loops in menu at offset 0", menuHeadline(menuLoopLimit))
}

func TestAttack_StopBeforeStart(t *testing.T) {
	e := newTestEngine(t, Options{Crib: "B", Ciphertext: "Z"})
	e.Stop()
	found := e.Attack(context.Background(), nil)

	assert.NotNil(t, found)
	assert.Empty(t, found)
	assert.Zero(t, e.Tested())
}

func TestAttack_StopWhileRunning(t *testing.T) {
	full := map[string]bool{}
	for _, c := range newTestEngine(t, Options{Crib: "B", Ciphertext: "Z"}).Attack(context.Background(), nil) {
		full[candidateKey(c)] = true
	}

	e := newTestEngine(t, Options{Crib: "B", Ciphertext: "Z"})
	found := e.Attack(context.Background(), func(p Progress) {
		if p.Kind == ProgressTick {
			e.Stop()
		}
	})

	assert.Less(t, e.Tested(), e.TotalTasks())
	assert.Less(t, len(found), len(full))
	for _, c := range found {
		assert.True(t, full[candidateKey(c)], "candidate %s not in full run", candidateKey(c))
	}
}

func TestAttack_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := newTestEngine(t, Options{Crib: "B", Ciphertext: "Z"})
	found := e.Attack(ctx, nil)

	assert.NotNil(t, found)
	assert.Less(t, e.Tested(), e.TotalTasks())
}

func TestAttack_AllOrders(t *testing.T) {
	e := newTestEngine(t, Options{
		Crib: "B", Ciphertext: "Z",
		RotorTypes: []string{"I", "II", "III", "IV"},
		AllOrders:  true,
	})
	assert.Len(t, e.Orders(), 24)
	assert.Equal(t, int64(24*PositionsPerOrder), e.TotalTasks())

	var log progressLog
	e.Stop()
	e.Attack(context.Background(), log.sink)
	assert.Contains(t, log.kinds(ProgressSummary), "Rotor combinations: 24 (from 4 rotors)")
	assert.Contains(t, log.kinds(ProgressMode), "Test all rotor orders: true")
}

func TestRun_FaultIsConfined(t *testing.T) {
	e := newTestEngine(t, Options{Crib: "B", Ciphertext: "Z"})
	var log progressLog
	var counts taskCounts
	s := newSolver(e)

	// A negative offset slices the ciphertext out of range.
	e.run(s, task{offset: -1}, &counts, newReporter(log.sink))
	e.run(s, task{positions: [3]int{2, 5, 10}}, &counts, newReporter(log.sink))

	assert.Equal(t, int64(1), e.faults.Load())
	assert.Equal(t, int64(1), counts[outcomeFault])
	assert.Equal(t, 1, e.Found())
	faults := log.kinds(ProgressFault)
	require.Len(t, faults, 1)
	assert.Contains(t, faults[0], "I-II-III AAA offset -1 failed")
}

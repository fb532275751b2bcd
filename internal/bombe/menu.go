package bombe

import (
	"slices"
	"strconv"
	"strings"
)

// maxMenuVisits bounds the loop search on long, densely connected menus.
const maxMenuVisits = 200000

type menuEdge struct {
	to  byte
	pos int
}

// Loop is a closed chain of letters in the menu, with the crib positions of
// the links used.
type Loop struct {
	Letters   []byte
	Positions []int
}

func (l Loop) String() string {
	parts := make([]string, len(l.Letters))
	for i, c := range l.Letters {
		parts[i] = string(c)
	}
	return strings.Join(parts, " -> ")
}

// FindLoops builds the menu, the graph linking each crib letter to the
// cipher letter at the same position, and returns up to limit loops in
// it. Every crib position is used at most once per loop; loops that differ
// only by starting letter or direction are reported once. crib and cipher
// are expected to be aligned upper-case letters.
func FindLoops(crib, cipher string, limit int) []Loop {
	n := min(len(crib), len(cipher))
	adj := make(map[byte][]menuEdge)
	for i := 0; i < n; i++ {
		a, b := crib[i], cipher[i]
		if a == b {
			continue
		}
		adj[a] = append(adj[a], menuEdge{to: b, pos: i})
		adj[b] = append(adj[b], menuEdge{to: a, pos: i})
	}

	starts := make([]byte, 0, len(adj))
	for c := range adj {
		starts = append(starts, c)
	}
	slices.Sort(starts)

	f := &loopFinder{
		adj:   adj,
		limit: limit,
		seen:  make(map[string]bool),
		used:  make(map[int]bool),
		on:    make(map[byte]bool),
	}
	for _, s := range starts {
		if f.full() {
			break
		}
		f.start = s
		f.on[s] = true
		f.walk(s, []byte{s}, nil)
		f.on[s] = false
	}
	return f.loops
}

type loopFinder struct {
	adj    map[byte][]menuEdge
	limit  int
	start  byte
	seen   map[string]bool
	used   map[int]bool
	on     map[byte]bool
	loops  []Loop
	visits int
}

func (f *loopFinder) full() bool {
	return len(f.loops) >= f.limit || f.visits >= maxMenuVisits
}

func (f *loopFinder) walk(cur byte, path []byte, positions []int) {
	f.visits++
	for _, e := range f.adj[cur] {
		if f.full() {
			return
		}
		if f.used[e.pos] {
			continue
		}
		if e.to == f.start && len(path) >= 2 {
			f.record(path, append(slices.Clone(positions), e.pos))
			continue
		}
		if f.on[e.to] {
			continue
		}
		f.used[e.pos] = true
		f.on[e.to] = true
		f.walk(e.to, append(path, e.to), append(positions, e.pos))
		f.on[e.to] = false
		f.used[e.pos] = false
	}
}

func (f *loopFinder) record(path []byte, positions []int) {
	letters := slices.Clone(path)
	slices.Sort(letters)
	pos := slices.Clone(positions)
	slices.Sort(pos)

	var key strings.Builder
	key.Write(letters)
	for _, p := range pos {
		key.WriteByte(':')
		key.WriteString(strconv.Itoa(p))
	}
	if f.seen[key.String()] {
		return
	}
	f.seen[key.String()] = true
	f.loops = append(f.loops, Loop{Letters: slices.Clone(path), Positions: positions})
}

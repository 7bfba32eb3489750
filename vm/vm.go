// Package vm executes a compiled Program against a path, producing a
// two-bit MatchResult. The matcher is a pure, single-threaded,
// re-entrant function: it allocates its own state per invocation and never
// shares mutable state across calls.
package vm

import (
	"github.com/coregx/pathglob/ast"
	"github.com/coregx/pathglob/compile"
	"github.com/coregx/pathglob/internal/pathsyntax"
)

// MatchResult is the matcher's output. Both bits are
// independently well-defined; once a bit is set it is never cleared, and
// both may be true or false simultaneously.
type MatchResult struct {
	// Prefix reports whether the given path could be extended (by adding
	// further components) to reach a full match.
	Prefix bool
	// Complete reports whether the given path is a full match as-is.
	Complete bool
}

func (r MatchResult) done() bool { return r.Prefix && r.Complete }

// state is one machine state: a program counter, a position
// in the path's component list, a byte cursor within the current
// component, the fresh-boundary flag, and the Repeat counters. It is
// cloned (not aliased) whenever Alternative pushes a backtrack snapshot.
type state struct {
	pc      int
	compIdx int
	byteOff int
	fresh   bool
	counters []uint32
}

func (s state) clone() state {
	c := s
	c.counters = append([]uint32(nil), s.counters...)
	return c
}

// Match executes prog against path and returns the resulting MatchResult.
// It never panics or returns an error: an impossible opcode/state
// combination is simply treated as a failed step and triggers backtracking.
func Match(path string, prog *compile.Program) MatchResult {
	comps := pathsyntax.Components(path)

	cur := state{fresh: true, counters: make([]uint32, prog.CounterCount)}
	var stack []state
	var result MatchResult

	for !result.done() {
		if cur.pc < 0 || cur.pc >= len(prog.Instrs) {
			if !pop(&stack, &cur) {
				break
			}
			continue
		}

		ok, exhausted, jumped := step(&cur, prog.Instrs[cur.pc], comps, &result, &stack)
		if !ok {
			if exhausted {
				result.Prefix = true
			}
			if !pop(&stack, &cur) {
				break
			}
			continue
		}
		if !jumped {
			cur.pc++
		}
	}
	return result
}

func pop(stack *[]state, cur *state) bool {
	if len(*stack) == 0 {
		return false
	}
	n := len(*stack)
	*cur = (*stack)[n-1]
	*stack = (*stack)[:n-1]
	return true
}

// step executes one instruction. It returns whether the step succeeded,
// whether a failure was specifically due to running out of path (as
// opposed to a structural/byte mismatch), and whether cur.pc was already
// updated to a jump target (so the caller should not additionally advance
// it).
func step(cur *state, in compile.Instr, comps []pathsyntax.Component, result *MatchResult, stack *[]state) (ok, exhausted, jumped bool) {
	switch in.Op {
	case compile.OpSeparator:
		return stepSeparator(cur, comps)
	case compile.OpPrefix:
		return stepAtomic(cur, comps, pathsyntax.KindPrefix, in.Text)
	case compile.OpRootDir:
		return stepAtomic(cur, comps, pathsyntax.KindRoot, "")
	case compile.OpCurDir:
		return stepAtomic(cur, comps, pathsyntax.KindCurDir, "")
	case compile.OpParentDir:
		return stepAtomic(cur, comps, pathsyntax.KindParentDir, "")

	case compile.OpLiteralString:
		return stepLiteral(cur, comps, in.Text)
	case compile.OpAnyCharacter:
		return stepAnyCharacter(cur, comps)
	case compile.OpAnyString:
		return stepAnyString(cur, comps)
	case compile.OpCharacters:
		return stepCharacters(cur, comps, in.Classes)
	case compile.OpLiteralSet:
		return stepLiteralSet(cur, comps, in)

	case compile.OpJump:
		cur.pc = in.Target
		return true, false, true

	case compile.OpAlternative:
		snap := cur.clone()
		snap.pc = in.Target
		*stack = append(*stack, snap)
		return true, false, false

	case compile.OpIncrement:
		cur.counters[in.Counter]++
		return true, false, false

	case compile.OpBranchIfLessThan:
		if cur.counters[in.Counter] < in.Value {
			cur.pc = in.Target
			return true, false, true
		}
		return true, false, false

	case compile.OpComplete:
		if bytesEmpty(*cur, comps) && pathExhausted(*cur, comps) {
			result.Complete = true
		}
		// Always backtrack from Complete: either it just accepted and we
		// keep searching for a prefix-only accept, or it failed outright.
		return false, false, false
	}
	return false, false, false
}

// bytesEmpty reports whether the current component's byte cursor has
// nothing pending: either no component is bound yet (fresh boundary) or
// the bound component's bytes are fully consumed.
func bytesEmpty(s state, comps []pathsyntax.Component) bool {
	if s.fresh {
		return true
	}
	return s.byteOff >= len(comps[s.compIdx].Text)
}

// pathExhausted reports whether the component iterator has nothing left:
// either every component has been crossed, or the currently bound
// component is the last one and its bytes are fully consumed.
func pathExhausted(s state, comps []pathsyntax.Component) bool {
	if s.fresh {
		return s.compIdx >= len(comps)
	}
	if s.compIdx >= len(comps) {
		return true
	}
	if s.byteOff < len(comps[s.compIdx].Text) {
		return false
	}
	return s.compIdx == len(comps)-1
}

// stepSeparator consumes a component boundary. A Separator reached while
// already at a fresh boundary is a no-op — needed because Recurse's loop
// can match zero components, leaving two Separator instructions to run
// back to back.
func stepSeparator(cur *state, comps []pathsyntax.Component) (ok, exhausted, jumped bool) {
	if cur.fresh {
		return true, false, false
	}
	if cur.byteOff == len(comps[cur.compIdx].Text) {
		cur.compIdx++
		cur.fresh = true
		cur.byteOff = 0
		return true, false, false
	}
	return false, false, false // mid-component: structural mismatch, not exhaustion
}

// stepAtomic consumes one whole non-Normal component of the given kind
// (RootDir/CurDir/ParentDir/Prefix), which is only valid at a fresh
// component boundary.
func stepAtomic(cur *state, comps []pathsyntax.Component, kind pathsyntax.Kind, text string) (ok, exhausted, jumped bool) {
	if !cur.fresh {
		return false, false, false // impossible state: treated as failure
	}
	if cur.compIdx >= len(comps) {
		return false, true, false
	}
	c := comps[cur.compIdx]
	if c.Kind != kind {
		return false, false, false
	}
	if kind == pathsyntax.KindPrefix && c.Text != text {
		return false, false, false
	}
	cur.compIdx++
	return true, false, false
}

// bindNormal lazily binds the byte cursor to the next Normal component,
// the shared first step of every byte-level opcode.
func bindNormal(cur *state, comps []pathsyntax.Component) (ok, exhausted bool) {
	if !cur.fresh {
		return true, false
	}
	if cur.compIdx >= len(comps) {
		return false, true
	}
	if comps[cur.compIdx].Kind != pathsyntax.KindNormal {
		return false, false
	}
	cur.fresh = false
	cur.byteOff = 0
	return true, false
}

// stepLiteral and the other byte-level steps below only ever report
// exhaustion through bindNormal's own check (no Normal component left in
// the iterator at all). Running out of bytes within an already-bound,
// terminal component is a plain mismatch: the walker can never fix a
// too-short filename by descending into a subdirectory, so that failure
// must not set Prefix.
func stepLiteral(cur *state, comps []pathsyntax.Component, text string) (ok, exhausted, jumped bool) {
	if bok, bexh := bindNormal(cur, comps); !bok {
		return false, bexh, false
	}
	remaining := comps[cur.compIdx].Text[cur.byteOff:]
	if len(remaining) < len(text) || remaining[:len(text)] != text {
		return false, false, false
	}
	cur.byteOff += len(text)
	return true, false, false
}

func stepAnyCharacter(cur *state, comps []pathsyntax.Component) (ok, exhausted, jumped bool) {
	if bok, bexh := bindNormal(cur, comps); !bok {
		return false, bexh, false
	}
	remaining := comps[cur.compIdx].Text[cur.byteOff:]
	if len(remaining) == 0 {
		return false, false, false
	}
	_, size := pathsyntax.DecodeRune([]byte(remaining))
	cur.byteOff += size
	return true, false, false
}

func stepAnyString(cur *state, comps []pathsyntax.Component) (ok, exhausted, jumped bool) {
	if bok, bexh := bindNormal(cur, comps); !bok {
		return false, bexh, false
	}
	cur.byteOff = len(comps[cur.compIdx].Text)
	return true, false, false
}

func stepCharacters(cur *state, comps []pathsyntax.Component, classes []ast.CharRange) (ok, exhausted, jumped bool) {
	if bok, bexh := bindNormal(cur, comps); !bok {
		return false, bexh, false
	}
	remaining := comps[cur.compIdx].Text[cur.byteOff:]
	if len(remaining) == 0 {
		return false, false, false
	}
	r, size := pathsyntax.DecodeRune([]byte(remaining))
	for _, c := range classes {
		if r >= c.Lo && r <= c.Hi {
			cur.byteOff += size
			return true, false, false
		}
	}
	return false, false, false
}

func stepLiteralSet(cur *state, comps []pathsyntax.Component, in compile.Instr) (ok, exhausted, jumped bool) {
	if bok, bexh := bindNormal(cur, comps); !bok {
		return false, bexh, false
	}
	remaining := comps[cur.compIdx].Text[cur.byteOff:]
	if m := in.Literal.Automaton.Find([]byte(remaining), 0); m != nil && m.Start == 0 {
		cur.byteOff += m.End
		cur.pc = in.Target
		return true, false, true
	}
	return false, false, false
}

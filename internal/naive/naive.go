// Package naive is a direct recursive interpreter over an ast.Pattern,
// used only by tests as a reference to cross-check package vm's bytecode
// interpreter against. It shares no matching logic with package vm or
// package compile (from vm it uses only the MatchResult type); any
// divergence between the two implementations is a genuine bug in one of
// them.
package naive

import (
	"github.com/coregx/pathglob/ast"
	"github.com/coregx/pathglob/internal/pathsyntax"
	"github.com/coregx/pathglob/vm"
)

// Match interprets p against path directly, without compiling to
// bytecode, and returns the same two-bit result package vm.Match would.
func Match(p ast.Pattern, path string) vm.MatchResult {
	m := &matcher{comps: pathsyntax.Components(path)}
	m.matchSeq(p, 0, 0, true, m.accept)
	return m.result
}

type cont func(compIdx, byteOff int, fresh bool)

type matcher struct {
	comps  []pathsyntax.Component
	result vm.MatchResult
}

func (m *matcher) done() bool { return m.result.Complete && m.result.Prefix }

// matchSeq matches pattern p in full starting from the given machine
// position, invoking k at every point p is fully consumed. It explores
// every alternative rather than stopping at the first success, so both
// result bits converge to their true values (mirroring package vm's
// exhaustive backtracking).
func (m *matcher) matchSeq(p ast.Pattern, compIdx, byteOff int, fresh bool, k cont) {
	if m.done() {
		return
	}
	if len(p) == 0 {
		k(compIdx, byteOff, fresh)
		return
	}
	n, rest := p[0], p[1:]

	switch n.Kind {
	case ast.Separator:
		if fresh {
			m.matchSeq(rest, compIdx, byteOff, true, k)
			return
		}
		if byteOff == len(m.comps[compIdx].Text) {
			m.matchSeq(rest, compIdx+1, 0, true, k)
		}

	case ast.Prefix, ast.RootDir, ast.CurDir, ast.ParentDir:
		if !fresh {
			return
		}
		if compIdx >= len(m.comps) {
			m.result.Prefix = true
			return
		}
		c := m.comps[compIdx]
		if c.Kind != kindFor(n.Kind) {
			return
		}
		if n.Kind == ast.Prefix && c.Text != n.Text {
			return
		}
		m.matchSeq(rest, compIdx+1, 0, true, k)

	case ast.LiteralString:
		ci, bo, ok := m.bind(compIdx, byteOff, fresh)
		if !ok {
			return
		}
		remaining := m.comps[ci].Text[bo:]
		if len(remaining) < len(n.Text) || remaining[:len(n.Text)] != n.Text {
			return
		}
		m.matchSeq(rest, ci, bo+len(n.Text), false, k)

	case ast.AnyCharacter:
		ci, bo, ok := m.bind(compIdx, byteOff, fresh)
		if !ok {
			return
		}
		remaining := m.comps[ci].Text[bo:]
		if len(remaining) == 0 {
			return
		}
		_, size := pathsyntax.DecodeRune([]byte(remaining))
		m.matchSeq(rest, ci, bo+size, false, k)

	case ast.Characters:
		ci, bo, ok := m.bind(compIdx, byteOff, fresh)
		if !ok {
			return
		}
		remaining := m.comps[ci].Text[bo:]
		if len(remaining) == 0 {
			return
		}
		r, size := pathsyntax.DecodeRune([]byte(remaining))
		for _, c := range n.Classes {
			if r >= c.Lo && r <= c.Hi {
				m.matchSeq(rest, ci, bo+size, false, k)
				return
			}
		}

	case ast.Wildcard:
		ci, start, ok := m.bind(compIdx, byteOff, fresh)
		if !ok {
			if fresh {
				// No Normal component at all: the zero-width expansion is
				// still available at a fresh boundary.
				m.matchSeq(rest, compIdx, 0, true, k)
			}
			return
		}
		text := m.comps[ci].Text
		for off := start; ; {
			m.matchSeq(rest, ci, off, false, k)
			if m.done() || off >= len(text) {
				break
			}
			_, size := pathsyntax.DecodeRune([]byte(text[off:]))
			off += size
		}

	case ast.Recurse:
		m.matchRecurse(rest, compIdx, fresh, k)

	case ast.Alternatives:
		for _, choice := range n.Choices {
			m.matchSeq(choice, compIdx, byteOff, fresh, func(ci, bo int, fr bool) {
				m.matchSeq(rest, ci, bo, fr, k)
			})
			if m.done() {
				return
			}
		}

	case ast.Repeat:
		m.matchRepeat(n.Repeat, 0, compIdx, byteOff, fresh, rest, k)
	}
}

// bind resolves the component a byte-level opcode should operate on,
// lazily binding a fresh boundary to the next Normal component. ok is
// false both when there is no component left at all (which also sets
// Prefix) and when the bound component is the wrong kind.
func (m *matcher) bind(compIdx, byteOff int, fresh bool) (ci, bo int, ok bool) {
	if !fresh {
		return compIdx, byteOff, true
	}
	if compIdx >= len(m.comps) {
		m.result.Prefix = true
		return compIdx, 0, false
	}
	if m.comps[compIdx].Kind != pathsyntax.KindNormal {
		return compIdx, 0, false
	}
	return compIdx, 0, true
}

// matchRecurse matches zero or more whole Normal components, trying zero first and then one more directory at a time.
func (m *matcher) matchRecurse(rest ast.Pattern, compIdx int, fresh bool, k cont) {
	if m.done() || !fresh {
		return
	}
	m.matchSeq(rest, compIdx, 0, true, k)
	if m.done() {
		return
	}
	if compIdx >= len(m.comps) {
		m.result.Prefix = true
		return
	}
	if m.comps[compIdx].Kind != pathsyntax.KindNormal {
		return
	}
	m.matchRecurse(rest, compIdx+1, true, k)
}

// matchRepeat matches spec.Body between spec.Min and spec.Max times, then
// continues with rest.
func (m *matcher) matchRepeat(spec ast.RepeatSpec, count uint32, compIdx, byteOff int, fresh bool, rest ast.Pattern, k cont) {
	if m.done() {
		return
	}
	if count >= spec.Min {
		m.matchSeq(rest, compIdx, byteOff, fresh, k)
		if m.done() || count >= spec.Max {
			return
		}
	}
	m.matchSeq(spec.Body, compIdx, byteOff, fresh, func(ci, bo int, fr bool) {
		m.matchRepeat(spec, count+1, ci, bo, fr, rest, k)
	})
}

// accept is the top-level continuation: it fires whenever a full walk of
// the pattern is exhausted, and sets Complete iff the path is also
// exhausted at that same point.
func (m *matcher) accept(compIdx, byteOff int, fresh bool) {
	var bytesEmpty, exhausted bool
	switch {
	case fresh:
		bytesEmpty = true
		exhausted = compIdx >= len(m.comps)
	case compIdx >= len(m.comps):
		bytesEmpty = true
		exhausted = true
	default:
		text := m.comps[compIdx].Text
		bytesEmpty = byteOff >= len(text)
		exhausted = bytesEmpty && compIdx == len(m.comps)-1
	}
	if bytesEmpty && exhausted {
		m.result.Complete = true
	}
}

func kindFor(k ast.Kind) pathsyntax.Kind {
	switch k {
	case ast.Prefix:
		return pathsyntax.KindPrefix
	case ast.RootDir:
		return pathsyntax.KindRoot
	case ast.CurDir:
		return pathsyntax.KindCurDir
	case ast.ParentDir:
		return pathsyntax.KindParentDir
	default:
		return pathsyntax.KindNormal
	}
}

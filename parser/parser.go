// Package parser translates glob pattern text into an ast.Pattern.
//
// Parsing is total: every byte string produces a Pattern, never an error.
// Unrecognized or malformed constructs degrade to a LiteralString, because
// glob users expect an unclosed "[" or "{" to be matched literally rather
// than rejected outright.
package parser

import (
	"strconv"

	"github.com/coregx/pathglob/ast"
	"github.com/coregx/pathglob/internal/conv"
	"github.com/coregx/pathglob/internal/pathsyntax"
)

// metaBytes stops a greedy LiteralString run. '\\' is reserved (no escape
// mechanism exists yet) but still terminates a literal run so a future
// escape scheme can be added without changing existing pattern semantics.
const metaBytes = "*?[]{}<>,:/\\"

func isMeta(b byte) bool {
	for i := 0; i < len(metaBytes); i++ {
		if metaBytes[i] == b {
			return true
		}
	}
	return false
}

// state is the parser's mutable cursor and output buffer. Recognizers
// thread it through a chain of fallible attempts; on failure the buffer is
// truncated back to a mark captured at entry and the cursor is restored, so
// a failed nested parse leaves no trace.
type state struct {
	input []byte
	pos   int
	out   ast.Pattern

	// atStart is the component-boundary status inherited from the
	// enclosing parse when this state begins with an empty out (e.g. the
	// first item of an Alternatives choice or a Repeat body): "{.,bar}"
	// immediately after a Separator must still see "." as a boundary, but
	// "foo{.,bar}" must not.
	atStart bool
}

func (s *state) eof() bool { return s.pos >= len(s.input) }

func (s *state) peek() byte {
	if s.eof() {
		return 0
	}
	return s.input[s.pos]
}

// mark/restore capture and roll back (pos, len(out)) around a fallible
// recognizer attempt.
type mark struct {
	pos    int
	outLen int
}

func (s *state) mark() mark { return mark{pos: s.pos, outLen: len(s.out)} }

func (s *state) restore(m mark) {
	s.pos = m.pos
	s.out = s.out[:m.outLen]
}

// atBoundary reports whether the cursor sits at a component boundary: the
// very start of the pattern, or immediately after a Separator, RootDir or
// Prefix node.
func (s *state) atBoundary() bool {
	if len(s.out) == 0 {
		return s.atStart
	}
	switch s.out[len(s.out)-1].Kind {
	case ast.Separator, ast.RootDir, ast.Prefix:
		return true
	default:
		return false
	}
}

// Parse parses glob pattern text into an ast.Pattern. It never fails.
func Parse(pattern string) ast.Pattern {
	s := &state{input: []byte(pattern), atStart: true}

	// Phase 1: component framing — peel a platform prefix/root off the front.
	prefix, hasRoot, rest := pathsyntax.SplitPrefixRoot(pattern)
	if prefix != "" {
		s.out = append(s.out, ast.Node{Kind: ast.Prefix, Text: prefix})
	}
	if hasRoot {
		s.out = append(s.out, ast.Node{Kind: ast.RootDir})
	}
	s.input = []byte(rest)
	s.pos = 0

	// Phase 2: node recognition over the remainder, stopping at nothing.
	parseNodes(s, "")

	return mergeLiterals(s.out)
}

// mergeLiterals coalesces runs of adjacent LiteralString nodes produced
// when recognizeLiteral falls back to consuming one unclaimed meta byte at
// a time (e.g. an unclosed "[abc" parses as "[" then "abc"). It recurses
// into Alternatives choices and Repeat bodies so every nesting level reads
// the same way a single greedy literal run would.
func mergeLiterals(p ast.Pattern) ast.Pattern {
	if len(p) == 0 {
		return p
	}
	out := make(ast.Pattern, 0, len(p))
	for _, n := range p {
		switch n.Kind {
		case ast.Alternatives:
			choices := make([]ast.Pattern, len(n.Choices))
			for i, c := range n.Choices {
				choices[i] = mergeLiterals(c)
			}
			n.Choices = choices
		case ast.Repeat:
			n.Repeat.Body = mergeLiterals(n.Repeat.Body)
		}

		if n.Kind == ast.LiteralString && len(out) > 0 && out[len(out)-1].Kind == ast.LiteralString {
			out[len(out)-1].Text += n.Text
			continue
		}
		out = append(out, n)
	}
	return out
}

// parseNodes repeatedly applies recognizers in fixed precedence until EOF or
// a byte in stopSet is reached (used by nested parses: Alternatives choices
// stop at ',' or '}'; Repeat's inner pattern stops at ':').
func parseNodes(s *state, stopSet string) {
	for !s.eof() {
		if stopSet != "" && containsByte(stopSet, s.peek()) {
			return
		}
		recognizeOne(s)
	}
}

func containsByte(set string, b byte) bool {
	for i := 0; i < len(set); i++ {
		if set[i] == b {
			return true
		}
	}
	return false
}

// recognizeOne applies the fixed-precedence recognizer chain once,
// guaranteeing forward progress: literalString always consumes at least one
// byte, so it is the total fallback.
func recognizeOne(s *state) {
	if recognizeSeparator(s) {
		return
	}
	if recognizeAnyCharacter(s) {
		return
	}
	if recognizeRecurse(s) {
		return
	}
	if recognizeWildcard(s) {
		return
	}
	if recognizeAlternatives(s) {
		return
	}
	if recognizeCharacters(s) {
		return
	}
	if recognizeRepeat(s) {
		return
	}
	if recognizeDotComponent(s) {
		return
	}
	recognizeLiteral(s)
}

func recognizeSeparator(s *state) bool {
	if !pathsyntax.IsSeparator(s.peek()) {
		return false
	}
	s.pos++
	s.out = append(s.out, ast.Node{Kind: ast.Separator})
	return true
}

func recognizeAnyCharacter(s *state) bool {
	if s.peek() != '?' {
		return false
	}
	s.pos++
	s.out = append(s.out, ast.Node{Kind: ast.AnyCharacter})
	return true
}

// recognizeRecurse matches the two-byte sequence "**". "**" is
// recursive-descent only when isolated at a component boundary; outside
// one it decays to two Wildcard nodes instead.
func recognizeRecurse(s *state) bool {
	if s.peek() != '*' || s.pos+1 >= len(s.input) || s.input[s.pos+1] != '*' {
		return false
	}
	s.pos += 2
	if s.atBoundary() {
		s.out = append(s.out, ast.Node{Kind: ast.Recurse})
	} else {
		s.out = append(s.out, ast.Node{Kind: ast.Wildcard}, ast.Node{Kind: ast.Wildcard})
	}
	return true
}

func recognizeWildcard(s *state) bool {
	if s.peek() != '*' {
		return false
	}
	s.pos++
	s.out = append(s.out, ast.Node{Kind: ast.Wildcard})
	return true
}

// recognizeAlternatives parses "{ choice (, choice)* }". On unmatched '{',
// the whole attempt is rejected and the state rolled back so '{' falls
// through to recognizeLiteral.
func recognizeAlternatives(s *state) bool {
	if s.peek() != '{' {
		return false
	}
	m := s.mark()
	boundary := s.atBoundary()
	s.pos++ // consume '{'

	var choices []ast.Pattern
	for {
		choice := &state{input: s.input, pos: s.pos, atStart: boundary}
		parseNodes(choice, ",}")
		choices = append(choices, choice.out)
		s.pos = choice.pos

		if s.eof() {
			s.restore(m)
			return false
		}
		switch s.peek() {
		case ',':
			s.pos++
			continue
		case '}':
			s.pos++
			s.out = append(s.out, ast.Node{Kind: ast.Alternatives, Choices: choices})
			return true
		}
	}
}

// recognizeCharacters parses "[ item+ ]" where each item is a single UTF-8
// scalar or an inclusive "a-b" range. Malformed input rejects and rolls
// back the whole construct.
func recognizeCharacters(s *state) bool {
	if s.peek() != '[' {
		return false
	}
	m := s.mark()
	s.pos++ // consume '['

	var classes []ast.CharRange
	for {
		if s.eof() || s.peek() == ']' {
			break
		}
		lo, ok := decodeRune(s)
		if !ok {
			s.restore(m)
			return false
		}
		hi := lo
		if s.peek() == '-' && s.pos+1 < len(s.input) && s.input[s.pos+1] != ']' {
			s.pos++ // consume '-'
			r, ok := decodeRune(s)
			if !ok {
				s.restore(m)
				return false
			}
			hi = r
		}
		classes = append(classes, ast.CharRange{Lo: lo, Hi: hi})
	}

	if len(classes) == 0 || s.eof() || s.peek() != ']' {
		s.restore(m)
		return false
	}
	s.pos++ // consume ']'
	s.out = append(s.out, ast.Node{Kind: ast.Characters, Classes: classes})
	return true
}

func decodeRune(s *state) (rune, bool) {
	if s.eof() {
		return 0, false
	}
	r, size := pathsyntax.DecodeRune(s.input[s.pos:])
	if size == 0 {
		return 0, false
	}
	s.pos += size
	return r, true
}

// recognizeRepeat parses "< inner-pattern : count-spec >" where count-spec
// is "N" (both bounds equal N) or "M,N". Malformed input rejects and rolls
// back to the leading '<'.
func recognizeRepeat(s *state) bool {
	if s.peek() != '<' {
		return false
	}
	m := s.mark()
	boundary := s.atBoundary()
	s.pos++ // consume '<'

	inner := &state{input: s.input, pos: s.pos, atStart: boundary}
	parseNodes(inner, ":")
	s.pos = inner.pos

	if s.eof() || s.peek() != ':' {
		s.restore(m)
		return false
	}
	s.pos++ // consume ':'

	min, max, ok := parseCountSpec(s)
	if !ok || s.eof() || s.peek() != '>' {
		s.restore(m)
		return false
	}
	s.pos++ // consume '>'

	if min > max {
		s.restore(m)
		return false
	}
	s.out = append(s.out, ast.Node{Kind: ast.Repeat, Repeat: ast.RepeatSpec{Min: min, Max: max, Body: inner.out}})
	return true
}

// parseCountSpec parses "N" or "M,N" as ASCII decimal u32 up to the '>'.
func parseCountSpec(s *state) (min, max uint32, ok bool) {
	start := s.pos
	for !s.eof() && s.peek() != '>' && s.peek() != ',' {
		s.pos++
	}
	firstStr := string(s.input[start:s.pos])
	first, err := strconv.ParseUint(firstStr, 10, 32)
	if err != nil {
		return 0, 0, false
	}

	if s.eof() || s.peek() != ',' {
		n := conv.Uint64ToUint32(first)
		return n, n, true
	}
	s.pos++ // consume ','

	start = s.pos
	for !s.eof() && s.peek() != '>' {
		s.pos++
	}
	secondStr := string(s.input[start:s.pos])
	second, err := strconv.ParseUint(secondStr, 10, 32)
	if err != nil {
		return 0, 0, false
	}
	return conv.Uint64ToUint32(first), conv.Uint64ToUint32(second), true
}

// recognizeDotComponent matches "." or ".." as an isolated component: only
// at a component boundary and only when followed by end-of-input or a
// separator. Otherwise ".hidden" would mis-parse as CurDir + "hidden".
func recognizeDotComponent(s *state) bool {
	if s.peek() != '.' || !s.atBoundary() {
		return false
	}

	n := 1
	for s.pos+n < len(s.input) && s.input[s.pos+n] == '.' {
		n++
	}
	if n > 2 {
		return false
	}
	end := s.pos + n
	if end < len(s.input) && !pathsyntax.IsSeparator(s.input[end]) {
		return false
	}

	s.pos = end
	if n == 1 {
		s.out = append(s.out, ast.Node{Kind: ast.CurDir})
	} else {
		s.out = append(s.out, ast.Node{Kind: ast.ParentDir})
	}
	return true
}

// recognizeLiteral is the total fallback: a greedy run of non-meta bytes,
// or exactly one byte if the cursor already sits on an unclaimed meta byte.
// It always consumes at least one byte.
func recognizeLiteral(s *state) bool {
	start := s.pos
	for !s.eof() && !isMeta(s.peek()) {
		s.pos++
	}
	if s.pos == start {
		s.pos++ // unclaimed meta byte: consume it as a one-byte literal
	}
	s.out = append(s.out, ast.Node{Kind: ast.LiteralString, Text: string(s.input[start:s.pos])})
	return true
}

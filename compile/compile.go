// Package compile lowers an ast.Pattern into a linear Program of bytecode
// instructions executed by package vm.
package compile

import (
	"strings"

	"github.com/coregx/ahocorasick"
	"github.com/coregx/pathglob/ast"
	"github.com/coregx/pathglob/internal/conv"
)

// Program is the compiled, immutable form of a Pattern. Once built it may
// be shared by concurrent matchers.
type Program struct {
	Instrs []Instr

	// CounterCount is the number of Repeat counters this Program uses,
	// dense in [0, CounterCount).
	CounterCount int

	// AbsolutePrefix is non-nil iff the pattern begins with Prefix and/or
	// RootDir; it holds the concrete path those leading instructions will
	// match, letting a walker start there instead of the working directory.
	AbsolutePrefix *string

	// WantsParent is true iff the pattern contains a ParentDir node
	// anywhere, gating the walker's synthetic ".." entry.
	WantsParent bool
}

// builder accumulates instructions. Every gadget below computes its jump
// targets from instruction indices known at emission time (the gadgets have
// either fixed shape or are patched once their variable-length body is
// known) — no multi-pass fixup pass is needed.
type builder struct {
	instrs   []Instr
	counters int
}

func (b *builder) here() int { return len(b.instrs) }

func (b *builder) emit(in Instr) int {
	b.instrs = append(b.instrs, in)
	return len(b.instrs) - 1
}

// allocCounter hands out the next dense counter index, narrowing it via
// internal/conv to the uint16 slot a BranchIfLessThan/Increment
// instruction actually carries.
func (b *builder) allocCounter() (uint16, error) {
	if b.counters >= MaxCounters {
		return 0, &Error{Counter: b.counters, Err: ErrCounterBudget}
	}
	c := b.counters
	b.counters++
	return conv.IntToUint16(c), nil
}

// Compile lowers a Pattern into a Program, or returns an error if the
// Repeat counter budget is exhausted.
func Compile(p ast.Pattern) (*Program, error) {
	b := &builder{}
	if err := compileSeq(b, p); err != nil {
		return nil, err
	}
	b.emit(Instr{Op: OpComplete})

	prog := &Program{
		Instrs:       b.instrs,
		CounterCount: b.counters,
		WantsParent:  p.HasParentDir(),
	}
	prog.AbsolutePrefix = absolutePrefix(p)
	return prog, nil
}

// absolutePrefix populates Program.AbsolutePrefix iff the AST begins with
// Prefix and/or RootDir.
func absolutePrefix(p ast.Pattern) *string {
	if len(p) == 0 {
		return nil
	}
	i := 0
	s := ""
	if p[i].Kind == ast.Prefix {
		s += p[i].Text
		i++
	}
	if i < len(p) && p[i].Kind == ast.RootDir {
		s += "/"
		i++
	}
	if i == 0 {
		return nil
	}
	return &s
}

func compileSeq(b *builder, p ast.Pattern) error {
	for _, n := range p {
		if err := compileNode(b, n); err != nil {
			return err
		}
	}
	return nil
}

func compileNode(b *builder, n ast.Node) error {
	switch n.Kind {
	case ast.Separator:
		b.emit(Instr{Op: OpSeparator})
	case ast.Prefix:
		b.emit(Instr{Op: OpPrefix, Text: n.Text})
	case ast.RootDir:
		b.emit(Instr{Op: OpRootDir})
	case ast.CurDir:
		b.emit(Instr{Op: OpCurDir})
	case ast.ParentDir:
		b.emit(Instr{Op: OpParentDir})
	case ast.LiteralString:
		b.emit(Instr{Op: OpLiteralString, Text: n.Text})
	case ast.AnyCharacter:
		b.emit(Instr{Op: OpAnyCharacter})
	case ast.Characters:
		b.emit(Instr{Op: OpCharacters, Classes: n.Classes})
	case ast.Wildcard:
		compileStarGadget(b, func() { b.emit(Instr{Op: OpAnyCharacter}) })
	case ast.Recurse:
		compileStarGadget(b, func() {
			b.emit(Instr{Op: OpAnyString})
			b.emit(Instr{Op: OpSeparator})
		})
	case ast.Alternatives:
		return compileAlternatives(b, n.Choices)
	case ast.Repeat:
		return compileRepeat(b, n.Repeat)
	}
	return nil
}

// compileStarGadget emits the "zero or more" loop shared by Wildcard and
// Recurse:
//
//	L0: Alternative(L0+2)   ; fork: exit branch falls through, loop branch at L0+2
//	L1: Jump(after loop)    ; exit branch
//	L2: <body>              ; consumes one unit (a character, or a whole component)
//	    Jump(L0)             ; retry from the fork
//	 :  continuation
func compileStarGadget(b *builder, body func()) {
	l0 := b.here()
	altIdx := b.emit(Instr{}) // patched below once body length is known
	exitIdx := b.emit(Instr{Op: OpJump})
	body()
	b.emit(Instr{Op: OpJump, Target: l0})

	b.instrs[altIdx] = Instr{Op: OpAlternative, Target: l0 + 2}
	b.instrs[exitIdx].Target = b.here()
}

// compileAlternatives emits the N-ary Alternative/Jump gadget. When every choice is a single LiteralString node and no branch
// text is a prefix of another, it instead emits one OpLiteralSet backed by an
// Aho-Corasick automaton.
func compileAlternatives(b *builder, choices []ast.Pattern) error {
	if branches, ok := allLiteralChoices(choices); ok {
		return compileLiteralSet(b, branches)
	}
	return compileAlternativesChain(b, choices)
}

// allLiteralChoices reports whether every choice is exactly one
// LiteralString node and no branch text is a prefix of another (so at most
// one branch can match at a given cursor), returning their texts in order.
func allLiteralChoices(choices []ast.Pattern) ([]string, bool) {
	branches := make([]string, len(choices))
	for i, choice := range choices {
		if len(choice) != 1 || choice[0].Kind != ast.LiteralString {
			return nil, false
		}
		branches[i] = choice[0].Text
	}
	for i, a := range branches {
		for j, b := range branches {
			if i != j && strings.HasPrefix(b, a) {
				return nil, false
			}
		}
	}
	return branches, true
}

func compileLiteralSet(b *builder, branches []string) error {
	ac := ahocorasick.NewBuilder()
	for _, br := range branches {
		ac.AddPattern([]byte(br))
	}
	auto, err := ac.Build()
	if err != nil {
		// Falls back to the ordinary Alternative chain: the automaton is a
		// pure optimization, never a correctness requirement.
		choices := make([]ast.Pattern, len(branches))
		for i, br := range branches {
			choices[i] = ast.Pattern{{Kind: ast.LiteralString, Text: br}}
		}
		return compileAlternativesChain(b, choices)
	}

	idx := b.emit(Instr{})
	end := b.here()
	b.instrs[idx] = Instr{
		Op:      OpLiteralSet,
		Literal: &LiteralSet{Branches: branches, Automaton: auto},
		Target:  end,
	}
	return nil
}

// compileAlternativesChain is the ordinary N-ary gadget, used for every
// group that does not qualify for OpLiteralSet, and as a fallback when
// Aho-Corasick automaton construction fails.
func compileAlternativesChain(b *builder, choices []ast.Pattern) error {
	n := len(choices)
	altIdx := make([]int, n-1)
	for i := range altIdx {
		altIdx[i] = b.emit(Instr{})
	}
	var jumpIdx []int
	for i, choice := range choices {
		start := b.here()
		if i > 0 {
			b.instrs[altIdx[i-1]] = Instr{Op: OpAlternative, Target: start}
		}
		if err := compileSeq(b, choice); err != nil {
			return err
		}
		jumpIdx = append(jumpIdx, b.emit(Instr{Op: OpJump}))
	}
	end := b.here()
	for _, j := range jumpIdx {
		b.instrs[j].Target = end
	}
	return nil
}

// compileRepeat emits the bounded-repetition gadget:
//
//	LS: Increment(c)
//	    <body>
//	    BranchIfLessThan(LS, c, min)
//	    [if max > min:
//	       BranchIfLessThan(LN, c, max)   ; LN = index of the Alternative below
//	       Jump(LE)
//	       Alternative(LS)
//	     ]
//	LE: ...
func compileRepeat(b *builder, spec ast.RepeatSpec) error {
	counter, err := b.allocCounter()
	if err != nil {
		return err
	}

	ls := b.here()
	b.emit(Instr{Op: OpIncrement, Counter: counter})
	if err := compileSeq(b, spec.Body); err != nil {
		return err
	}
	b.emit(Instr{Op: OpBranchIfLessThan, Target: ls, Counter: counter, Value: spec.Min})

	if spec.Max > spec.Min {
		blIdx := b.here()
		b.emit(Instr{Op: OpBranchIfLessThan, Target: blIdx + 2, Counter: counter, Value: spec.Max})
		b.emit(Instr{Op: OpJump, Target: blIdx + 3})
		b.emit(Instr{Op: OpAlternative, Target: ls})
	}
	return nil
}

package compile

import (
	"testing"

	"github.com/coregx/pathglob/ast"
)

func lit(s string) ast.Node { return ast.Node{Kind: ast.LiteralString, Text: s} }

func TestCompile_LiteralSequence(t *testing.T) {
	p := ast.Pattern{lit("foo"), {Kind: ast.Separator}, lit("bar")}
	prog, err := Compile(p)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	wantOps := []Op{OpLiteralString, OpSeparator, OpLiteralString, OpComplete}
	if len(prog.Instrs) != len(wantOps) {
		t.Fatalf("got %d instrs, want %d: %v", len(prog.Instrs), len(wantOps), prog.Instrs)
	}
	for i, op := range wantOps {
		if prog.Instrs[i].Op != op {
			t.Errorf("instr %d: got %s, want %s", i, prog.Instrs[i].Op, op)
		}
	}
	if prog.CounterCount != 0 {
		t.Errorf("CounterCount = %d, want 0", prog.CounterCount)
	}
	if prog.WantsParent {
		t.Errorf("WantsParent = true, want false")
	}
	if prog.AbsolutePrefix != nil {
		t.Errorf("AbsolutePrefix = %v, want nil", *prog.AbsolutePrefix)
	}
}

func TestCompile_AbsolutePrefix(t *testing.T) {
	tests := []struct {
		name string
		p    ast.Pattern
		want *string
	}{
		{"none", ast.Pattern{lit("foo")}, nil},
		{"root only", ast.Pattern{{Kind: ast.RootDir}, lit("foo")}, strPtr("/")},
		{"prefix+root", ast.Pattern{{Kind: ast.Prefix, Text: "C:"}, {Kind: ast.RootDir}, lit("foo")}, strPtr("C:/")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := Compile(tt.p)
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			switch {
			case tt.want == nil && prog.AbsolutePrefix != nil:
				t.Errorf("got %q, want nil", *prog.AbsolutePrefix)
			case tt.want != nil && prog.AbsolutePrefix == nil:
				t.Errorf("got nil, want %q", *tt.want)
			case tt.want != nil && *prog.AbsolutePrefix != *tt.want:
				t.Errorf("got %q, want %q", *prog.AbsolutePrefix, *tt.want)
			}
		})
	}
}

func strPtr(s string) *string { return &s }

func TestCompile_WantsParent(t *testing.T) {
	p := ast.Pattern{lit("foo"), {Kind: ast.Separator}, {Kind: ast.ParentDir}}
	prog, err := Compile(p)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !prog.WantsParent {
		t.Errorf("WantsParent = false, want true")
	}
}

func TestCompile_WildcardGadget(t *testing.T) {
	p := ast.Pattern{{Kind: ast.Wildcard}}
	prog, err := Compile(p)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	wantOps := []Op{OpAlternative, OpJump, OpAnyCharacter, OpJump, OpComplete}
	if len(prog.Instrs) != len(wantOps) {
		t.Fatalf("got %d instrs, want %d: %v", len(prog.Instrs), len(wantOps), prog.Instrs)
	}
	for i, op := range wantOps {
		if prog.Instrs[i].Op != op {
			t.Errorf("instr %d: got %s, want %s", i, prog.Instrs[i].Op, op)
		}
	}
	if prog.Instrs[0].Target != 2 {
		t.Errorf("Alternative target = %d, want 2", prog.Instrs[0].Target)
	}
	if prog.Instrs[1].Target != 4 {
		t.Errorf("exit Jump target = %d, want 4", prog.Instrs[1].Target)
	}
	if prog.Instrs[3].Target != 0 {
		t.Errorf("loop Jump target = %d, want 0", prog.Instrs[3].Target)
	}
}

func TestCompile_RecurseGadget(t *testing.T) {
	p := ast.Pattern{{Kind: ast.Recurse}}
	prog, err := Compile(p)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	wantOps := []Op{OpAlternative, OpJump, OpAnyString, OpSeparator, OpJump, OpComplete}
	if len(prog.Instrs) != len(wantOps) {
		t.Fatalf("got %d instrs, want %d: %v", len(prog.Instrs), len(wantOps), prog.Instrs)
	}
	for i, op := range wantOps {
		if prog.Instrs[i].Op != op {
			t.Errorf("instr %d: got %s, want %s", i, prog.Instrs[i].Op, op)
		}
	}
}

func TestCompile_AlternativesLiteralAccelerated(t *testing.T) {
	p := ast.Pattern{{
		Kind:    ast.Alternatives,
		Choices: []ast.Pattern{{lit("foo")}, {lit("bar")}, {lit("baz")}},
	}}
	prog, err := Compile(p)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if prog.Instrs[0].Op != OpLiteralSet {
		t.Fatalf("instr 0 = %s, want OpLiteralSet", prog.Instrs[0].Op)
	}
	got := prog.Instrs[0].Literal.Branches
	want := []string{"foo", "bar", "baz"}
	if len(got) != len(want) {
		t.Fatalf("branches = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("branch %d = %q, want %q", i, got[i], want[i])
		}
	}
	if prog.Instrs[0].Literal.Automaton == nil {
		t.Errorf("Automaton is nil")
	}
	if prog.Instrs[0].Target != 1 {
		t.Errorf("Target = %d, want 1", prog.Instrs[0].Target)
	}
}

func TestCompile_AlternativesMixedChain(t *testing.T) {
	p := ast.Pattern{{
		Kind: ast.Alternatives,
		Choices: []ast.Pattern{
			{lit("foo")},
			{{Kind: ast.Wildcard}},
		},
	}}
	prog, err := Compile(p)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	// Mixed choices (one has a Wildcard, not a bare literal) must fall
	// through to the ordinary Alternative/Jump chain, never OpLiteralSet.
	for i, in := range prog.Instrs {
		if in.Op == OpLiteralSet {
			t.Fatalf("instr %d is OpLiteralSet, want chain gadget", i)
		}
	}
	if prog.Instrs[0].Op != OpAlternative {
		t.Errorf("instr 0 = %s, want OpAlternative", prog.Instrs[0].Op)
	}
}

func TestCompile_RepeatMinEqualsMax(t *testing.T) {
	p := ast.Pattern{{
		Kind:   ast.Repeat,
		Repeat: ast.RepeatSpec{Min: 3, Max: 3, Body: ast.Pattern{{Kind: ast.AnyCharacter}}},
	}}
	prog, err := Compile(p)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	wantOps := []Op{OpIncrement, OpAnyCharacter, OpBranchIfLessThan, OpComplete}
	if len(prog.Instrs) != len(wantOps) {
		t.Fatalf("got %d instrs, want %d: %v", len(prog.Instrs), len(wantOps), prog.Instrs)
	}
	for i, op := range wantOps {
		if prog.Instrs[i].Op != op {
			t.Errorf("instr %d: got %s, want %s", i, prog.Instrs[i].Op, op)
		}
	}
	if prog.CounterCount != 1 {
		t.Errorf("CounterCount = %d, want 1", prog.CounterCount)
	}
	if prog.Instrs[2].Value != 3 {
		t.Errorf("BranchIfLessThan value = %d, want 3", prog.Instrs[2].Value)
	}
}

func TestCompile_RepeatMinLessThanMax(t *testing.T) {
	p := ast.Pattern{{
		Kind:   ast.Repeat,
		Repeat: ast.RepeatSpec{Min: 1, Max: 3, Body: ast.Pattern{{Kind: ast.AnyCharacter}}},
	}}
	prog, err := Compile(p)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	wantOps := []Op{
		OpIncrement, OpAnyCharacter, OpBranchIfLessThan,
		OpBranchIfLessThan, OpJump, OpAlternative, OpComplete,
	}
	if len(prog.Instrs) != len(wantOps) {
		t.Fatalf("got %d instrs, want %d: %v", len(prog.Instrs), len(wantOps), prog.Instrs)
	}
	for i, op := range wantOps {
		if prog.Instrs[i].Op != op {
			t.Errorf("instr %d: got %s, want %s", i, prog.Instrs[i].Op, op)
		}
	}
	if prog.Instrs[2].Target != 0 {
		t.Errorf("min BranchIfLessThan target = %d, want 0 (loop start)", prog.Instrs[2].Target)
	}
	if prog.Instrs[3].Value != 3 {
		t.Errorf("max BranchIfLessThan value = %d, want 3", prog.Instrs[3].Value)
	}
	if prog.Instrs[3].Target != 5 {
		t.Errorf("max BranchIfLessThan target = %d, want 5 (Alternative)", prog.Instrs[3].Target)
	}
	if prog.Instrs[4].Target != 6 {
		t.Errorf("exit Jump target = %d, want 6", prog.Instrs[4].Target)
	}
	if prog.Instrs[5].Target != 0 {
		t.Errorf("Alternative target = %d, want 0 (loop start)", prog.Instrs[5].Target)
	}
}

func TestCompile_CounterBudgetExhausted(t *testing.T) {
	b := &builder{counters: MaxCounters}
	_, err := b.allocCounter()
	if err == nil {
		t.Fatalf("allocCounter: got nil error, want ErrCounterBudget")
	}
	var cerr *Error
	if !asError(err, &cerr) {
		t.Fatalf("error is not *Error: %v", err)
	}
	if cerr.Err != ErrCounterBudget {
		t.Errorf("wrapped err = %v, want ErrCounterBudget", cerr.Err)
	}
}

func asError(err error, target **Error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	*target = e
	return true
}

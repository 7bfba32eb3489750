package vm_test

import (
	"testing"

	"github.com/coregx/pathglob/compile"
	"github.com/coregx/pathglob/internal/naive"
	"github.com/coregx/pathglob/parser"
	"github.com/coregx/pathglob/vm"
)

// TestMatch_AgreesWithNaiveInterpreter checks, for a broad cross product
// of patterns and paths, that the compiled bytecode VM and a direct
// recursive AST interpreter (package naive) always produce the same
// MatchResult. The two share no code, so any disagreement points at a
// real bug in one of them rather than a shared blind spot.
func TestMatch_AgreesWithNaiveInterpreter(t *testing.T) {
	patterns := []string{
		"", ".", "..", "foo", "foo/bar", "*.go", "**", "foo/**/bar",
		"{foo,bar,baz}", "{foo,*.txt}", "<a:2,3>", "[abc].txt",
		"a{b,c{d,e}}f", "**/*.go", "foo/**", "*/*",
	}
	paths := []string{
		"", ".", "..", "foo", "foo/bar", "main.go", "main.txt",
		"a", "aa", "aaa", "aaaa", "a.txt", "d.txt", "foo/a/b/bar",
		"dir/main.go", "abf", "acdf", "acef", "x/main.go", "x/y",
	}

	for _, pat := range patterns {
		ast := parser.Parse(pat)
		prog, err := compile.Compile(ast)
		if err != nil {
			t.Fatalf("Compile(%q): %v", pat, err)
		}
		for _, path := range paths {
			got := vm.Match(path, prog)
			want := naive.Match(ast, path)
			if got != want {
				t.Errorf("pattern %q, path %q: vm.Match = %+v, naive.Match = %+v", pat, path, got, want)
			}
		}
	}
}

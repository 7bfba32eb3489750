package walk_test

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/pathglob/compile"
	"github.com/coregx/pathglob/parser"
	"github.com/coregx/pathglob/walk"
)

func buildTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range files {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("x"), 0o644))
	}
	return root
}

func collect(t *testing.T, ctx context.Context, root string, prog *compile.Program, opts walk.Options) ([]string, []error) {
	t.Helper()
	results, err := walk.Walk(ctx, root, prog, opts)
	require.NoError(t, err)

	var paths []string
	var errs []error
	for r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
			continue
		}
		paths = append(paths, r.Path)
	}
	sort.Strings(paths)
	return paths, errs
}

func TestWalk_MatchesNestedLiterals(t *testing.T) {
	root := buildTree(t,
		"src/main.go",
		"src/util.go",
		"src/readme.txt",
		"vendor/lib/pkg.go",
	)
	prog, err := compile.Compile(parser.Parse("src/*.go"))
	require.NoError(t, err)

	paths, errs := collect(t, context.Background(), root, prog, walk.Options{})
	assert.Empty(t, errs)
	assert.Equal(t, []string{"src/main.go", "src/util.go"}, paths)
}

func TestWalk_RecurseWildcard(t *testing.T) {
	root := buildTree(t,
		"a/b/c/target.txt",
		"a/other.txt",
		"elsewhere/target.txt",
	)
	prog, err := compile.Compile(parser.Parse("a/**/target.txt"))
	require.NoError(t, err)

	paths, errs := collect(t, context.Background(), root, prog, walk.Options{Workers: 2})
	assert.Empty(t, errs)
	assert.Equal(t, []string{"a/b/c/target.txt"}, paths)
}

func TestWalk_NoMatchesIsEmptyNotNil(t *testing.T) {
	root := buildTree(t, "a/b.txt")
	prog, err := compile.Compile(parser.Parse("*.go"))
	require.NoError(t, err)

	paths, errs := collect(t, context.Background(), root, prog, walk.Options{})
	assert.Empty(t, errs)
	assert.Empty(t, paths)
}

func TestWalk_UnreadableDirectoryReportsErrorNotFatal(t *testing.T) {
	root := buildTree(t, "ok/a.go", "blocked/b.go")
	require.NoError(t, os.Chmod(filepath.Join(root, "blocked"), 0o000))
	t.Cleanup(func() { _ = os.Chmod(filepath.Join(root, "blocked"), 0o755) })

	prog, err := compile.Compile(parser.Parse("**/*.go"))
	require.NoError(t, err)

	paths, errs := collect(t, context.Background(), root, prog, walk.Options{})
	assert.Contains(t, paths, "ok/a.go")
	assert.NotEmpty(t, errs)
	assert.ErrorIs(t, errs[0], walk.ErrReadDir)
}

func TestWalk_ParentDirSynthesis(t *testing.T) {
	root := buildTree(t, "a/b/marker.txt")
	prog, err := compile.Compile(parser.Parse("a/b/.."))
	require.NoError(t, err)

	paths, errs := collect(t, context.Background(), root, prog, walk.Options{})
	assert.Empty(t, errs)
	assert.Equal(t, []string{"a/b/.."}, paths)
}

func TestWalk_ParentDirSynthesisAtRoot(t *testing.T) {
	root := buildTree(t, "top.txt")
	prog, err := compile.Compile(parser.Parse(".."))
	require.NoError(t, err)

	paths, errs := collect(t, context.Background(), root, prog, walk.Options{})
	assert.Empty(t, errs)
	assert.Equal(t, []string{".."}, paths)
}

func TestWalk_RejectsNonDirectoryRoot(t *testing.T) {
	root := buildTree(t, "a.go")
	prog, err := compile.Compile(parser.Parse("*.go"))
	require.NoError(t, err)

	_, err = walk.Walk(context.Background(), filepath.Join(root, "a.go"), prog, walk.Options{})
	assert.Error(t, err)
}

func TestWalk_CancelStopsPromptly(t *testing.T) {
	root := buildTree(t, "a/b/c/d/e/f/g.go")
	prog, err := compile.Compile(parser.Parse("*/*/*/*/*/*/*.go"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		collect(t, ctx, root, prog, walk.Options{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("walk did not stop after cancellation")
	}
}

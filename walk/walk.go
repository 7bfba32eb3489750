// Package walk drives a parallel, pruned filesystem traversal from a
// compiled Program: directories are only descended into when the matcher
// reports the candidate path could still become a match.
package walk

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/coregx/pathglob/compile"
	"github.com/coregx/pathglob/vm"
)

// ErrReadDir wraps every os.ReadDir failure encountered during a walk.
var ErrReadDir = errors.New("walk: read directory")

// Result is one item sent on a Walk's result channel: either a matched
// path, or a non-fatal error encountered while reading a directory.
type Result struct {
	Path string
	Err  error
}

// Options configures a Walk. The zero value is valid: Workers defaults to
// runtime.GOMAXPROCS(0) and QueueSize to 64.
type Options struct {
	Workers   int
	QueueSize int
	Logger    *logrus.Logger
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 64
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	return o
}

// workItem is one directory queued for listing, named by its path
// relative to root ("" for root itself).
type workItem struct {
	relDir string
}

// Walk starts a bounded worker pool that lists directories under root,
// matching every entry's path against prog, and returns a channel of
// Results. The channel is closed once the whole subtree has been explored
// or ctx is canceled.
//
// If prog.AbsolutePrefix is set, traversal starts there instead of root and
// matched/emitted paths carry that absolute prefix rather than being
// relativized to root; otherwise traversal starts at root and paths are
// relative to it.
func Walk(ctx context.Context, root string, prog *compile.Program, opts Options) (<-chan Result, error) {
	opts = opts.withDefaults()

	startDir := root
	var prefix string
	absolute := prog.AbsolutePrefix != nil
	if absolute {
		startDir = *prog.AbsolutePrefix
		prefix = *prog.AbsolutePrefix
	}

	if info, err := os.Stat(startDir); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrReadDir, startDir)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("walk: root is not a directory: %s", startDir)
	}

	results := make(chan Result, opts.QueueSize)
	queue := make(chan workItem, opts.QueueSize)

	// pending counts directories that still need to be listed: one Add per
	// directory discovered (root, or a subdirectory found while listing a
	// parent), one Done once that directory's listing is fully processed —
	// never when it is merely handed to the bounded queue, since a worker
	// may not pick it up for a while.
	var pending sync.WaitGroup

	g, gctx := errgroup.WithContext(ctx)

	// enqueue hands item to the bounded queue on its own goroutine so it
	// never blocks the caller (a worker deep in processDir) even when the
	// queue is momentarily full. Only the fixed worker pool below runs
	// under the errgroup; these short-lived feeders do not. If the
	// walk is canceled before delivery, the item is dropped and its
	// pending count released rather than processed.
	enqueue := func(item workItem) {
		pending.Add(1)
		go func() {
			select {
			case queue <- item:
			case <-gctx.Done():
				pending.Done()
			}
		}()
	}

	send := func(r Result) {
		select {
		case results <- r:
		case <-gctx.Done():
		}
	}

	enqueue(workItem{relDir: ""})

	go func() {
		pending.Wait()
		close(queue)
	}()

	for i := 0; i < opts.Workers; i++ {
		g.Go(func() error {
			for {
				select {
				case item, ok := <-queue:
					if !ok {
						return nil
					}
					processDir(gctx, startDir, prefix, absolute, item, prog, opts, send, enqueue)
					pending.Done()
				case <-gctx.Done():
					return nil
				}
			}
		})
	}

	go func() {
		_ = g.Wait()
		close(results)
	}()

	return results, nil
}

// processDir lists one directory, matches each entry (and, when
// prog.WantsParent, a synthetic ".." entry treated as a directory), reports
// complete matches, and enqueues subdirectories whose candidate path is
// still a prefix.
//
// item.relDir and the paths enqueued for further listing are always
// relative to startDir, regardless of absolute. Only the path handed to
// vm.Match and reported in a Result carries the absolute prefix, per
// Walk's contract.
func processDir(ctx context.Context, startDir, prefix string, absolute bool, item workItem, prog *compile.Program, opts Options, send func(Result), enqueue func(workItem)) {
	diskDir := filepath.Join(startDir, item.relDir)
	entries, err := os.ReadDir(diskDir)
	if err != nil {
		opts.Logger.WithError(err).WithField("dir", diskDir).Warn("walk: read directory failed")
		send(Result{Err: fmt.Errorf("%w: %s", ErrReadDir, diskDir)})
		return
	}

	matchPath := func(rel string) string {
		if absolute {
			return joinRaw(prefix, rel)
		}
		return rel
	}

	if prog.WantsParent {
		rel := joinRaw(item.relDir, "..")
		checkCandidate(matchPath(rel), true, prog, send, func() {
			enqueue(workItem{relDir: rel})
		})
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return
		default:
		}

		rel := joinRaw(item.relDir, entry.Name())
		checkCandidate(matchPath(rel), entry.IsDir(), prog, send, func() {
			enqueue(workItem{relDir: rel})
		})
	}
}

// checkCandidate matches one path against prog and acts on the result:
// reporting a Complete match, and recursing into isDir directories whose
// Prefix bit is set.
func checkCandidate(candidate string, isDir bool, prog *compile.Program, send func(Result), recurse func()) {
	result := vm.Match(candidate, prog)
	if result.Complete {
		send(Result{Path: candidate})
	}
	if isDir && result.Prefix {
		recurse()
	}
}

// joinRaw concatenates a root-relative path with a new component by plain
// string concatenation rather than filepath.Join, which runs its result
// through filepath.Clean and would silently collapse a literal ".."
// component (e.g. "a/b/.." -> "a").
func joinRaw(base, part string) string {
	if base == "" {
		return part
	}
	if part == "" {
		return base
	}
	if strings.HasSuffix(base, "/") {
		return base + part
	}
	return base + "/" + part
}

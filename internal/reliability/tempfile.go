package reliability

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
)

// TempFileGuard is a process-scoped registry of temp files created for
// request bodies and embedding batches. Every path is removed on
// explicit Release, on normal process exit, and on SIGINT/SIGTERM
// (spec §4.E Temp-file guard).
type TempFileGuard struct {
	mu    sync.Mutex
	paths map[string]bool

	once   sync.Once
	cancel chan struct{}
}

// NewTempFileGuard constructs a guard and wires its signal handler. The
// handler is idempotent: calling Close multiple times, or receiving
// multiple signals, never double-removes a path.
func NewTempFileGuard() *TempFileGuard {
	g := &TempFileGuard{
		paths:  make(map[string]bool),
		cancel: make(chan struct{}),
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			g.cleanupAll()
		case <-g.cancel:
		}
	}()
	return g
}

// Create opens a new exclusively-created file under the OS temp
// directory with the given name prefix, registers it, and returns the
// open file handle and its path.
func (g *TempFileGuard) Create(prefix string) (*os.File, string, error) {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("%s-%d-%d", prefix, os.Getpid(), randSuffix()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		return nil, "", err
	}
	g.mu.Lock()
	g.paths[path] = true
	g.mu.Unlock()
	return f, path, nil
}

// Release removes path immediately and deregisters it. Safe to call more
// than once for the same path.
func (g *TempFileGuard) Release(path string) error {
	g.mu.Lock()
	_, ok := g.paths[path]
	delete(g.paths, path)
	g.mu.Unlock()
	if !ok {
		return nil
	}
	return os.Remove(path)
}

// Close stops the signal handler and removes every remaining registered
// path; call on normal process shutdown.
func (g *TempFileGuard) Close() {
	g.once.Do(func() { close(g.cancel) })
	g.cleanupAll()
}

func (g *TempFileGuard) cleanupAll() {
	g.mu.Lock()
	paths := make([]string, 0, len(g.paths))
	for p := range g.paths {
		paths = append(paths, p)
	}
	g.paths = make(map[string]bool)
	g.mu.Unlock()

	for _, p := range paths {
		_ = os.Remove(p)
	}
}

var suffixCounter uint64
var suffixMu sync.Mutex

// randSuffix is a process-local monotonic counter, not a PRNG: it only
// needs to avoid collisions between concurrent Create calls within this
// process, and O_EXCL already guards against any remaining race.
func randSuffix() uint64 {
	suffixMu.Lock()
	defer suffixMu.Unlock()
	suffixCounter++
	return suffixCounter
}

// Package registry tracks running dev-server processes. The table is the
// single source of truth: a key that is absent means "not running".
package registry

import (
	"os"
	"sync"
	"time"
)

// Key identifies one dev-server instance: a project directory plus the
// service label running inside it ("frontend", "backend", ...).
type Key struct {
	ProjectPath string
	Service     string
}

func (k Key) String() string { return k.ProjectPath + ":" + k.Service }

// Handle is the in-memory record of a spawned OS process.
type Handle struct {
	Key       Key
	PID       int
	Command   string
	WorkDir   string
	StartedAt time.Time

	proc      *os.Process
	outCloser interface{ Close() error }
	errCloser interface{ Close() error }
}

// NewHandle binds a started OS process to its launch parameters.
func NewHandle(key Key, proc *os.Process, command string) *Handle {
	return &Handle{
		Key:       key,
		PID:       proc.Pid,
		Command:   command,
		WorkDir:   key.ProjectPath,
		StartedAt: time.Now(),
		proc:      proc,
	}
}

// Process returns the underlying OS process, nil for a reservation that was
// never committed.
func (h *Handle) Process() *os.Process { return h.proc }

// SetClosers records the child's log writers so they can be released when
// the process is reaped.
func (h *Handle) SetClosers(stdout, stderr interface{ Close() error }) {
	h.outCloser = stdout
	h.errCloser = stderr
}

// CloseWriters releases the child's log writers, best-effort.
func (h *Handle) CloseWriters() {
	if h.outCloser != nil {
		_ = h.outCloser.Close()
		h.outCloser = nil
	}
	if h.errCloser != nil {
		_ = h.errCloser.Close()
		h.errCloser = nil
	}
}

// Info is a read-only copy of a registry entry for status listings.
type Info struct {
	ProjectPath string    `json:"project_path"`
	Service     string    `json:"service"`
	PID         int       `json:"pid"`
	Command     string    `json:"command"`
	StartedAt   time.Time `json:"started_at"`
}

// Registry is a concurrency-safe table of running processes. One coarse
// mutex guards the whole map; entries are only touched inside it and no
// I/O happens while it is held.
type Registry struct {
	mu      sync.Mutex
	entries map[Key]*Handle
}

func New() *Registry {
	return &Registry{entries: make(map[Key]*Handle)}
}

// Contains reports whether a process (or an in-flight reservation) is
// tracked under key.
func (r *Registry) Contains(key Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[key]
	return ok
}

// Reserve atomically checks absence and inserts a placeholder under one
// lock acquisition. It returns false when the key is already taken, so two
// concurrent starts for the same key can never both proceed to spawn.
func (r *Registry) Reserve(key Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[key]; ok {
		return false
	}
	r.entries[key] = &Handle{Key: key, WorkDir: key.ProjectPath}
	return true
}

// Commit replaces the reservation for key with a live handle. The caller
// must hold a successful Reserve for the key.
func (r *Registry) Commit(key Key, h *Handle) {
	r.mu.Lock()
	r.entries[key] = h
	r.mu.Unlock()
}

// Release drops a reservation whose spawn failed.
func (r *Registry) Release(key Key) {
	r.mu.Lock()
	delete(r.entries, key)
	r.mu.Unlock()
}

// Remove deletes and returns the committed handle for key, or nil if not
// tracked. A reservation (PID 0) belongs to the start that placed it and
// is left alone: the key does not count as running until Commit, so a
// concurrent stop must see "not running" rather than steal the
// placeholder and let the in-flight start re-enter the table afterwards.
func (r *Registry) Remove(key Key) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.entries[key]
	if !ok || h.PID == 0 {
		return nil
	}
	delete(r.entries, key)
	return h
}

// Len returns the number of tracked entries, reservations included.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Snapshot lists committed entries. Reservations (PID 0) are skipped since
// their start has not completed yet.
func (r *Registry) Snapshot() []Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Info, 0, len(r.entries))
	for _, h := range r.entries {
		if h.PID == 0 {
			continue
		}
		out = append(out, Info{
			ProjectPath: h.Key.ProjectPath,
			Service:     h.Key.Service,
			PID:         h.PID,
			Command:     h.Command,
			StartedAt:   h.StartedAt,
		})
	}
	return out
}

package service

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/mkerrs/stackmate/internal/detect"
	"github.com/mkerrs/stackmate/internal/history"
	"github.com/mkerrs/stackmate/internal/registry"
)

// stubLauncher stands in for the platform launcher so lifecycle semantics
// can be tested without spawning real processes.
type stubLauncher struct {
	mu         sync.Mutex
	spawns     int
	terminated []int
	spawnErr   error
	delay      time.Duration
}

func (s *stubLauncher) Spawn(req SpawnRequest) (*registry.Handle, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spawnErr != nil {
		return nil, s.spawnErr
	}
	s.spawns++
	return &registry.Handle{
		Key:       req.Key,
		PID:       1000 + s.spawns,
		Command:   req.Command,
		WorkDir:   req.Key.ProjectPath,
		StartedAt: time.Now(),
	}, nil
}

func (s *stubLauncher) Terminate(h *registry.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terminated = append(s.terminated, h.PID)
	return nil
}

func (s *stubLauncher) spawnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spawns
}

// memorySink collects history events in memory.
type memorySink struct {
	mu     sync.Mutex
	events []history.Event
}

func (m *memorySink) Send(_ context.Context, e history.Event) error {
	m.mu.Lock()
	m.events = append(m.events, e)
	m.mu.Unlock()
	return nil
}

func (m *memorySink) Close() error { return nil }

func newTestController(t *testing.T, l Launcher, opts ...Option) (*Controller, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	opts = append([]Option{WithLauncher(l)}, opts...)
	return NewController(reg, opts...), reg
}

func TestStartThenDoubleStart(t *testing.T) {
	stub := &stubLauncher{}
	ctrl, reg := newTestController(t, stub)
	dir := t.TempDir()
	ctx := context.Background()

	info, err := ctrl.Start(ctx, "frontend", dir, "npm run dev")
	if err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if info.PID == 0 {
		t.Fatalf("start must report a PID")
	}
	if want := "frontend started with PID " + strconv.Itoa(info.PID); info.String() != want {
		t.Fatalf("StartedInfo = %q, want %q", info.String(), want)
	}

	_, err = ctrl.Start(ctx, "frontend", dir, "npm run dev")
	var ar *AlreadyRunningError
	if !errors.As(err, &ar) {
		t.Fatalf("second Start should fail with AlreadyRunningError, got %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("registry must hold exactly one entry, len=%d", reg.Len())
	}
	if stub.spawnCount() != 1 {
		t.Fatalf("second Start must not touch the OS, spawns=%d", stub.spawnCount())
	}
}

func TestStartPathNotFound(t *testing.T) {
	ctrl, reg := newTestController(t, &stubLauncher{})
	missing := filepath.Join(t.TempDir(), "missing")

	_, err := ctrl.Start(context.Background(), "backend", missing, "uvicorn main:app")
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected path-not-found error, got %v", err)
	}
	if reg.Len() != 0 {
		t.Fatalf("failed precondition must not leave registry entries")
	}
}

func TestStopNotRunning(t *testing.T) {
	ctrl, reg := newTestController(t, &stubLauncher{})

	_, err := ctrl.Stop(context.Background(), "backend", "/tmp/nowhere")
	var nr *NotRunningError
	if !errors.As(err, &nr) {
		t.Fatalf("expected NotRunningError, got %v", err)
	}
	if reg.Len() != 0 {
		t.Fatalf("failed stop must leave registry unchanged")
	}
}

func TestStartStopStartCycle(t *testing.T) {
	stub := &stubLauncher{}
	ctrl, reg := newTestController(t, stub)
	dir := t.TempDir()
	ctx := context.Background()

	first, err := ctrl.Start(ctx, "backend", dir, "uvicorn main:app")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	stopped, err := ctrl.Stop(ctx, "backend", dir)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if stopped.String() != "backend stopped" {
		t.Fatalf("StoppedInfo = %q", stopped.String())
	}
	if reg.Len() != 0 {
		t.Fatalf("registry should be empty after stop")
	}
	second, err := ctrl.Start(ctx, "backend", dir, "uvicorn main:app")
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if second.PID == first.PID {
		t.Fatalf("stub should hand out a fresh PID per spawn")
	}
	if len(stub.terminated) != 1 || stub.terminated[0] != first.PID {
		t.Fatalf("first process should have been terminated, got %v", stub.terminated)
	}
}

func TestSpawnFailureReleasesReservation(t *testing.T) {
	stub := &stubLauncher{spawnErr: errors.New("interpreter unavailable")}
	ctrl, reg := newTestController(t, stub)
	dir := t.TempDir()
	ctx := context.Background()

	_, err := ctrl.Start(ctx, "frontend", dir, "npm run dev")
	var se *SpawnError
	if !errors.As(err, &se) {
		t.Fatalf("expected SpawnError, got %v", err)
	}
	if se.Service != "frontend" || !errors.Is(err, stub.spawnErr) {
		t.Fatalf("SpawnError should carry service and OS error: %v", err)
	}
	if reg.Len() != 0 {
		t.Fatalf("failed spawn must release the reservation")
	}

	stub.mu.Lock()
	stub.spawnErr = nil
	stub.mu.Unlock()
	if _, err := ctrl.Start(ctx, "frontend", dir, "npm run dev"); err != nil {
		t.Fatalf("Start after released reservation: %v", err)
	}
}

func TestStopDuringStartReportsNotRunning(t *testing.T) {
	stub := &stubLauncher{delay: 50 * time.Millisecond}
	ctrl, reg := newTestController(t, stub)
	dir := t.TempDir()
	ctx := context.Background()

	startErr := make(chan error, 1)
	go func() {
		_, err := ctrl.Start(ctx, "frontend", dir, "npm run dev")
		startErr <- err
	}()

	// Hit the window between Reserve and Commit: the key must not count
	// as running yet, and the stop must not disturb the reservation.
	time.Sleep(10 * time.Millisecond)
	_, err := ctrl.Stop(ctx, "frontend", dir)
	var nr *NotRunningError
	if !errors.As(err, &nr) {
		t.Fatalf("mid-start Stop should report NotRunningError, got %v", err)
	}

	if err := <-startErr; err != nil {
		t.Fatalf("in-flight Start must still complete: %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("registry should hold the started entry, len=%d", reg.Len())
	}
	if _, err := ctrl.Stop(ctx, "frontend", dir); err != nil {
		t.Fatalf("Stop after committed start: %v", err)
	}
	if reg.Len() != 0 {
		t.Fatalf("registry must be empty after stop, len=%d", reg.Len())
	}
}

func TestStartStatFailureIsNotMappedToNotFound(t *testing.T) {
	ctrl, reg := newTestController(t, &stubLauncher{})
	dir := t.TempDir()
	// A path routed through a regular file fails stat with ENOTDIR, which
	// is a distinct failure from the path not existing.
	file := filepath.Join(dir, "plain")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := ctrl.Start(context.Background(), "backend", filepath.Join(file, "sub"), "uvicorn main:app")
	if err == nil {
		t.Fatalf("expected stat error")
	}
	var nf *detect.NotFoundError
	if errors.As(err, &nf) {
		t.Fatalf("non-ENOENT stat failure must not report NotFoundError: %v", err)
	}
	if reg.Len() != 0 {
		t.Fatalf("failed precondition must not leave registry entries")
	}
}

func TestConcurrentStartSameKey(t *testing.T) {
	stub := &stubLauncher{delay: 20 * time.Millisecond}
	ctrl, reg := newTestController(t, stub)
	dir := t.TempDir()

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ctrl.Start(context.Background(), "frontend", dir, "npm run dev")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, already int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		default:
			var ar *AlreadyRunningError
			if !errors.As(err, &ar) {
				t.Fatalf("unexpected error: %v", err)
			}
			already++
		}
	}
	if ok != 1 || already != 1 {
		t.Fatalf("want exactly one success and one AlreadyRunning, got ok=%d already=%d", ok, already)
	}
	if stub.spawnCount() != 1 {
		t.Fatalf("only one spawn may reach the OS, got %d", stub.spawnCount())
	}
	if reg.Len() != 1 {
		t.Fatalf("registry must hold one entry, len=%d", reg.Len())
	}
}

func TestConcurrentStartDistinctKeys(t *testing.T) {
	stub := &stubLauncher{delay: 10 * time.Millisecond}
	ctrl, reg := newTestController(t, stub)
	dir := t.TempDir()

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, svc := range []string{"frontend", "backend"} {
		wg.Add(1)
		go func(svc string) {
			defer wg.Done()
			_, err := ctrl.Start(context.Background(), svc, dir, "run "+svc)
			errs <- err
		}(svc)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("distinct keys must both start: %v", err)
		}
	}
	if reg.Len() != 2 {
		t.Fatalf("registry should hold both services, len=%d", reg.Len())
	}
}

func TestLifecycleEventsRecorded(t *testing.T) {
	sink := &memorySink{}
	ctrl, _ := newTestController(t, &stubLauncher{}, WithHistorySinks(sink))
	dir := t.TempDir()
	ctx := context.Background()

	if _, err := ctrl.Start(ctx, "backend", dir, "uvicorn main:app"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := ctrl.Stop(ctx, "backend", dir); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(sink.events))
	}
	if sink.events[0].Type != history.EventStart || sink.events[1].Type != history.EventStop {
		t.Fatalf("unexpected event order: %+v", sink.events)
	}
	if sink.events[0].ProjectPath != dir || sink.events[0].Service != "backend" {
		t.Fatalf("event missing key fields: %+v", sink.events[0])
	}
}

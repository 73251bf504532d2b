package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"
)

var ErrAlreadyRunning = errors.New("hark daemon already running")

// RuntimeSocketPath is $XDG_RUNTIME_DIR/hark.sock.
func RuntimeSocketPath() (string, error) {
	runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if runtimeDir == "" {
		return "", errors.New("XDG_RUNTIME_DIR is not set")
	}
	return filepath.Join(runtimeDir, "hark.sock"), nil
}

// AcquireOptions tunes stale-socket recovery.
type AcquireOptions struct {
	// ProbeTimeout bounds the status roundtrip sent to an existing socket.
	ProbeTimeout time.Duration
	// Retries is the number of extra listen attempts after removing a stale socket.
	Retries int
	// Rescue runs after a stale socket is removed, before the next attempt.
	Rescue func(context.Context) error
}

// Owner is the daemon's listener on the runtime socket. Close unlinks the
// path only while it still names the socket this owner created.
type Owner struct {
	net.Listener

	path string
	info os.FileInfo

	once     sync.Once
	closeErr error
}

// Path returns the socket path.
func (o *Owner) Path() string { return o.path }

func (o *Owner) Close() error {
	o.once.Do(func() {
		o.closeErr = o.Listener.Close()
		current, err := os.Lstat(o.path)
		if err == nil && os.SameFile(current, o.info) {
			_ = os.Remove(o.path)
		}
	})
	return o.closeErr
}

// Acquire claims path for a new daemon. A responsive owner yields
// ErrAlreadyRunning; an unresponsive leftover is removed and retried.
func Acquire(ctx context.Context, path string, opts AcquireOptions) (*Owner, error) {
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 180 * time.Millisecond
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure runtime socket dir: %w", err)
	}

	for attempt := 0; attempt <= opts.Retries; attempt++ {
		listener, err := net.Listen("unix", path)
		if err == nil {
			return claim(listener, path)
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("listen unix %s: %w", path, err)
		}

		alive, probeErr := Probe(ctx, path, opts.ProbeTimeout)
		switch {
		case alive:
			return nil, ErrAlreadyRunning
		case probeErr != nil:
			return nil, fmt.Errorf("probe existing socket %s: %w", path, probeErr)
		}

		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale socket %s: %w", path, err)
		}
		if opts.Rescue != nil {
			_ = opts.Rescue(ctx)
		}

		if attempt == opts.Retries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(25*(attempt+1)) * time.Millisecond):
		}
	}

	return nil, fmt.Errorf("failed to acquire socket %s after %d retries", path, opts.Retries)
}

func claim(listener net.Listener, path string) (*Owner, error) {
	if unix, ok := listener.(*net.UnixListener); ok {
		unix.SetUnlinkOnClose(false)
	}
	_ = os.Chmod(path, 0o600)

	info, err := os.Lstat(path)
	if err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("stat socket %s: %w", path, err)
	}
	return &Owner{Listener: listener, path: path, info: info}, nil
}

// Package overlay binds the gesture handler to the compositor-managed
// floating window and the global pointer feed.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rbright/hark/internal/gesture"
	"github.com/rbright/hark/internal/hypr"
)

// ErrDetached reports that the overlay window is not currently mapped.
var ErrDetached = errors.New("overlay window detached")

const hyprctlTimeout = 400 * time.Millisecond

// Window is the overlay as Hyprland sees it, addressed by window class.
type Window struct {
	class string

	query func(ctx context.Context, class string) (hypr.Client, error)
	move  func(ctx context.Context, class string, x, y int) error
}

// NewWindow addresses the client whose class is class.
func NewWindow(class string) *Window {
	return &Window{
		class: strings.TrimSpace(class),
		query: hypr.QueryClient,
		move:  hypr.MoveWindowExact,
	}
}

// Class returns the compositor class the window is matched by.
func (w *Window) Class() string {
	return w.class
}

// Client returns the current client record.
func (w *Window) Client(ctx context.Context) (hypr.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, hyprctlTimeout)
	defer cancel()

	client, err := w.query(ctx, w.class)
	if errors.Is(err, hypr.ErrWindowNotFound) {
		return hypr.Client{}, fmt.Errorf("%w: %v", ErrDetached, err)
	}
	return client, err
}

// Position implements gesture.View.
func (w *Window) Position() (gesture.Position, error) {
	client, err := w.Client(context.Background())
	if err != nil {
		return gesture.Position{}, err
	}
	return gesture.Position{X: client.At[0], Y: client.At[1]}, nil
}

// MoveTo implements gesture.View. A window that vanished mid-drag yields
// ErrDetached.
func (w *Window) MoveTo(p gesture.Position) error {
	ctx, cancel := context.WithTimeout(context.Background(), hyprctlTimeout)
	defer cancel()

	if err := w.move(ctx, w.class, p.X, p.Y); err != nil {
		if _, qerr := w.query(ctx, w.class); errors.Is(qerr, hypr.ErrWindowNotFound) {
			return fmt.Errorf("%w: %v", ErrDetached, err)
		}
		return err
	}
	return nil
}

// Contains reports whether p falls inside the mapped window.
func (w *Window) Contains(p gesture.Point) (bool, error) {
	client, err := w.Client(context.Background())
	if err != nil {
		return false, err
	}
	return client.Contains(p.X, p.Y), nil
}

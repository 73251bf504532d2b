package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/rbright/hark/internal/eventloop"
	"github.com/rbright/hark/internal/gesture"
	"github.com/rbright/hark/internal/ipc"
	"github.com/rbright/hark/internal/overlay"
)

// Daemon runs the queue, the IPC server, and the pointer feed around one
// controller until the context ends or a close command arrives.
type Daemon struct {
	Loop       *eventloop.Loop
	Controller *Controller
	Listener   net.Listener
	Pointer    overlay.Source
	Router     *overlay.Router
	Logger     *slog.Logger

	moveMu sync.Mutex
	move   *pendingMove
}

// pendingMove is the newest pointer position of a queued move task.
type pendingMove struct {
	at gesture.Point
}

// Run blocks until shutdown and reports the first component failure.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg      sync.WaitGroup
		errOnce sync.Once
		runErr  error
	)
	fail := func(name string, err error) {
		if err == nil || errors.Is(err, context.Canceled) {
			return
		}
		errOnce.Do(func() { runErr = fmt.Errorf("%s: %w", name, err) })
		cancel()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		fail("event loop", d.Loop.Run(ctx))
	}()

	if d.Listener != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fail("ipc server", ipc.Serve(ctx, d.Listener, d.Controller))
		}()
	}

	if d.Pointer != nil && d.Router != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fail("pointer source", d.Pointer.Run(ctx, d.route))
		}()
	}

	select {
	case <-ctx.Done():
	case <-d.Controller.Done():
		d.log("close requested")
	}

	d.Controller.Shutdown()
	cancel()
	wg.Wait()
	return runErr
}

// route queues ev for the router. Consecutive moves collapse into one task
// carrying the newest position, so a slow window move never leaves a backlog
// of stale drags ahead of the long-press timer.
func (d *Daemon) route(ev overlay.PointerEvent) {
	if ev.Kind != overlay.PointerMove {
		d.moveMu.Lock()
		d.move = nil
		d.moveMu.Unlock()
		d.Loop.Post(func() { d.handle(ev) })
		return
	}

	d.moveMu.Lock()
	if d.move != nil {
		d.move.at = ev.At
		d.moveMu.Unlock()
		return
	}
	pending := &pendingMove{at: ev.At}
	d.move = pending
	d.moveMu.Unlock()

	d.Loop.Post(func() {
		d.moveMu.Lock()
		at := pending.at
		if d.move == pending {
			d.move = nil
		}
		d.moveMu.Unlock()
		d.handle(overlay.PointerEvent{Kind: overlay.PointerMove, At: at})
	})
}

func (d *Daemon) handle(ev overlay.PointerEvent) {
	if outcome := d.Router.Handle(ev); outcome != gesture.OutcomeNone {
		d.log("gesture complete", "outcome", outcome.String())
	}
}

func (d *Daemon) log(message string, args ...any) {
	if d.Logger == nil {
		return
	}
	d.Logger.Info(message, args...)
}

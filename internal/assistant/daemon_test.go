package assistant

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/hark/internal/eventloop"
	"github.com/rbright/hark/internal/fsm"
	"github.com/rbright/hark/internal/gesture"
	"github.com/rbright/hark/internal/ipc"
	"github.com/rbright/hark/internal/overlay"
	"github.com/rbright/hark/internal/speech"
)

func TestDaemonRoutesTapAndClosesOverIPC(t *testing.T) {
	loop := eventloop.New()
	engine := &fakeEngine{}
	speaker := &fakeSpeaker{}
	ctrl := New(loop, speech.NewRecognizer(engine, loop.Post, nil), speaker, nil, &fakeIndicator{}, &fakeHistory{}, Options{
		Locale: "en-US",
		Volume: 100,
	})

	scheduler := gesture.SchedulerFunc(func(d time.Duration, fn func()) gesture.Timer {
		return loop.AfterFunc(d, fn)
	})
	handler := gesture.NewHandler(&stubView{}, scheduler, ctrl.GestureCallbacks(), gesture.Options{})
	pointer := &scriptedSource{events: []overlay.PointerEvent{
		{Kind: overlay.PointerDown, At: gesture.Point{X: 900, Y: 900}},
		{Kind: overlay.PointerUp, At: gesture.Point{X: 900, Y: 900}},
		{Kind: overlay.PointerDown, At: gesture.Point{X: 5, Y: 5}},
		{Kind: overlay.PointerUp, At: gesture.Point{X: 6, Y: 5}},
	}}

	socketPath := filepath.Join(t.TempDir(), "hark.sock")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	daemon := &Daemon{
		Loop:       loop,
		Controller: ctrl,
		Listener:   listener,
		Pointer:    pointer,
		Router:     overlay.NewRouter(boxTarget{size: 100}, handler, nil),
	}
	done := make(chan error, 1)
	go func() { done <- daemon.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		return ctrl.State() == fsm.StateListening
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := ipc.Send(context.Background(), socketPath, ipc.Request{Command: ipc.CommandStatus}, time.Second)
	require.NoError(t, err)
	require.Equal(t, "listening", resp.State)

	resp, err = ipc.Send(context.Background(), socketPath, ipc.Request{Command: ipc.CommandClose}, time.Second)
	require.NoError(t, err)
	require.True(t, resp.OK)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("daemon did not exit after close")
	}
	require.Equal(t, 1, engine.count("destroy"))
	require.Equal(t, 1, speaker.count("release"))
}

func TestDaemonReportsPointerFailure(t *testing.T) {
	loop := eventloop.New()
	ctrl := New(loop, speech.NewRecognizer(&fakeEngine{}, loop.Post, nil), &fakeSpeaker{}, nil, nil, nil, Options{})

	daemon := &Daemon{
		Loop:       loop,
		Controller: ctrl,
		Pointer:    &scriptedSource{err: errors.New("no display")},
		Router:     overlay.NewRouter(boxTarget{}, &stubGesture{}, nil),
	}

	err := daemon.Run(context.Background())
	require.EqualError(t, err, "pointer source: no display")
}

func TestDaemonStopsOnContextCancel(t *testing.T) {
	loop := eventloop.New()
	speaker := &fakeSpeaker{}
	ctrl := New(loop, speech.NewRecognizer(&fakeEngine{}, loop.Post, nil), speaker, nil, nil, nil, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- (&Daemon{Loop: loop, Controller: ctrl}).Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not exit after cancel")
	}
	require.Equal(t, 1, speaker.count("release"))
}

func TestDaemonCollapsesQueuedMovesInOrder(t *testing.T) {
	loop := eventloop.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	g := &callLog{}
	d := &Daemon{Loop: loop, Router: overlay.NewRouter(boxTarget{size: 100}, g, nil)}

	release := make(chan struct{})
	require.True(t, loop.Post(func() { <-release }))

	d.route(overlay.PointerEvent{Kind: overlay.PointerDown, At: gesture.Point{X: 5, Y: 5}})
	for x := 20.0; x <= 60; x += 10 {
		d.route(overlay.PointerEvent{Kind: overlay.PointerMove, At: gesture.Point{X: x, Y: 5}})
	}
	d.route(overlay.PointerEvent{Kind: overlay.PointerUp, At: gesture.Point{X: 60, Y: 5}})
	d.route(overlay.PointerEvent{Kind: overlay.PointerMove, At: gesture.Point{X: 70, Y: 5}})
	close(release)

	require.NoError(t, loop.Do(ctx, func() {}))
	require.Equal(t, []string{"down 5,5", "move 60,5", "up 60,5"}, g.calls)
}

type stubView struct{ pos gesture.Position }

func (v *stubView) Position() (gesture.Position, error) { return v.pos, nil }

func (v *stubView) MoveTo(p gesture.Position) error {
	v.pos = p
	return nil
}

// boxTarget is a size×size overlay anchored at the origin.
type boxTarget struct{ size float64 }

func (b boxTarget) Contains(p gesture.Point) (bool, error) {
	return p.X >= 0 && p.Y >= 0 && p.X < b.size && p.Y < b.size, nil
}

type stubGesture struct{}

func (*stubGesture) Down(gesture.Point)               {}
func (*stubGesture) Move(gesture.Point)               {}
func (*stubGesture) Up(gesture.Point) gesture.Outcome { return gesture.OutcomeNone }
func (*stubGesture) Abort()                           {}

// callLog records the router's forwarded calls; it runs on the loop only.
type callLog struct{ calls []string }

func (c *callLog) Down(p gesture.Point) {
	c.calls = append(c.calls, fmt.Sprintf("down %g,%g", p.X, p.Y))
}
func (c *callLog) Move(p gesture.Point) {
	c.calls = append(c.calls, fmt.Sprintf("move %g,%g", p.X, p.Y))
}
func (c *callLog) Up(p gesture.Point) gesture.Outcome {
	c.calls = append(c.calls, fmt.Sprintf("up %g,%g", p.X, p.Y))
	return gesture.OutcomeNone
}
func (c *callLog) Abort() { c.calls = append(c.calls, "abort") }

// scriptedSource emits events in order, then fails with err or blocks.
type scriptedSource struct {
	events []overlay.PointerEvent
	err    error
}

func (s *scriptedSource) Run(ctx context.Context, emit func(overlay.PointerEvent)) error {
	for _, ev := range s.events {
		emit(ev)
	}
	if s.err != nil {
		return s.err
	}
	<-ctx.Done()
	return ctx.Err()
}

package assistant

import (
	"github.com/rbright/hark/internal/fsm"
	"github.com/rbright/hark/internal/speech"
)

// speechEvents receives recognizer callbacks, already on the queue.
type speechEvents struct{ c *Controller }

func (e speechEvents) OnReady() {
	e.c.logInfo("recognizer ready")
}

func (e speechEvents) OnEndOfSpeech() {
	c := e.c
	if err := c.transition(fsm.EventEndOfSpeech); err != nil {
		c.logWarn("end of speech ignored", err)
		return
	}
	c.indicator.ShowProcessing(c.ctx)
}

func (e speechEvents) OnResult(text string) {
	c := e.c
	if err := c.transition(fsm.EventResult); err != nil {
		c.logWarn("recognition result ignored", err)
		return
	}
	c.logInfo("recognition result", "transcript_length", len(text))
	c.interpreter.Execute(text)
}

func (e speechEvents) OnError(code speech.ErrorCode) {
	c := e.c
	c.logInfo("recognition failed", "code", int(code), "message", code.Message())
	c.indicator.ShowError(c.ctx, code.Message())
	c.toErrorAndReset()
}

// playbackEvents receives speaker callbacks from its worker goroutine and
// hops them onto the queue. Callbacks after Shutdown are dropped.
type playbackEvents struct{ c *Controller }

func (e playbackEvents) OnStart(id string) {
	e.post(func(c *Controller) { c.logInfo("broadcast playing", "utterance_id", id) })
}

func (e playbackEvents) OnDone(id string) {
	e.post(func(c *Controller) { c.logInfo("broadcast finished", "utterance_id", id) })
}

func (e playbackEvents) OnError(id string, err error) {
	e.post(func(c *Controller) {
		c.logWarn("broadcast failed", err)
		c.indicator.ShowError(c.ctx, "broadcast failed")
	})
}

func (e playbackEvents) post(fn func(*Controller)) {
	c := e.c
	if !c.alive.Load() {
		return
	}
	c.queue.Post(func() {
		if c.alive.Load() {
			fn(c)
		}
	})
}

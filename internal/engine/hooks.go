package engine

import (
	"go.uber.org/zap"

	"github.com/dshills/amptab/internal/editor"
)

// OnBufferChanged records an edit that replaced old lines [startLine,
// endLine) of b with newLines, and reschedules preloading for b.
func (e *Engine) OnBufferChanged(b editor.Buffer, oldLines, newLines []string, startLine, endLine int) {
	if e.tracker != nil {
		e.tracker.RecordEdit(b, oldLines, newLines, startLine, endLine)
	}
	e.preloader.Schedule(b)
}

// OnBufferEnter records a visit to b and reschedules preloading for it.
func (e *Engine) OnBufferEnter(b editor.Buffer) {
	if e.tracker != nil {
		e.tracker.RecordView(b)
	}
	e.preloader.Schedule(b)
}

// OnDiagnosticsChanged reschedules preloading for b.
func (e *Engine) OnDiagnosticsChanged(b editor.Buffer) {
	e.preloader.Schedule(b)
}

// OnBufferClosed drops everything the engine holds for buf.
func (e *Engine) OnBufferClosed(buf editor.BufferID) {
	if shown := e.renderer.Buffer(); shown != nil && shown.ID() == buf {
		e.renderer.Dismiss()
	}
	e.cancelForeground(buf)
	e.preloader.CancelBuffer(buf)
	e.navigator.Visited().Clear(buf)
	n := e.cache.ClearBuffer(buf)

	e.log.Debug("buffer closed", zap.Int("buffer", int(buf)), zap.Int("cleared", n))
}

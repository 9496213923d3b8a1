package reqtx

import (
	"context"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
)

// emissionKind identifies one of the three intercepted response operations:
// header send, body write, stream flush.
type emissionKind int

const (
	emitHeader emissionKind = iota
	emitBody
	emitFlush
)

// emission captures one deferred response operation with its original
// arguments.
type emission struct {
	kind   emissionKind
	status int
	body   []byte
}

// deferredWriter is the response interceptor: an http.ResponseWriter
// decorator installed once per response, in place of (never mutating) the
// original writer.
//
// while the queue is active, every emission is captured in order and the
// first one triggers an idempotent commit. once the transaction closes
// successfully the queue replays FIFO against the real writer and is marked
// exhausted; from then on emissions pass straight through. a failed close
// discards the queue and keeps absorbing emissions instead: no byte produced
// under the dead transaction may reach the client. the wrapper reinstates the
// original writer via restore once the handler has returned, handing the
// terminal response to the pipeline's error handler.
type deferredWriter struct {
	dst    http.ResponseWriter
	resp   *echo.Response
	coord  *coordinator
	reqCtx context.Context

	mu      sync.Mutex
	active  bool
	failed  bool
	pending []emission

	replayed func(queued int)
}

// interceptResponse installs a deferredWriter on the echo response.
func interceptResponse(resp *echo.Response, coord *coordinator, reqCtx context.Context, replayed func(int)) *deferredWriter {
	w := &deferredWriter{
		dst:      resp.Writer,
		resp:     resp,
		coord:    coord,
		reqCtx:   reqCtx,
		active:   true,
		replayed: replayed,
	}
	resp.Writer = w
	coord.setOnClosed(w.finish)
	return w
}

// Header exposes the header map directly. mutating headers is not an
// emission; nothing reaches the client until WriteHeader or Write.
func (w *deferredWriter) Header() http.Header {
	return w.dst.Header()
}

func (w *deferredWriter) WriteHeader(status int) {
	w.mu.Lock()
	if w.failed {
		w.mu.Unlock()
		return
	}
	if !w.active {
		w.mu.Unlock()
		w.dst.WriteHeader(status)
		return
	}
	w.pending = append(w.pending, emission{kind: emitHeader, status: status})
	w.mu.Unlock()

	// first emission forces the close; replay happens inside close on success
	_ = w.coord.commit(w.reqCtx)
}

func (w *deferredWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	if w.failed {
		w.mu.Unlock()
		_, err := w.coord.outcome()
		return 0, err
	}
	if !w.active {
		w.mu.Unlock()
		return w.dst.Write(p)
	}
	body := make([]byte, len(p))
	copy(body, p)
	w.pending = append(w.pending, emission{kind: emitBody, body: body})
	w.mu.Unlock()

	if err := w.coord.commit(w.reqCtx); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Flush is the stream-end emission. queued like the others so bytes never
// reach the client ahead of the transaction outcome.
func (w *deferredWriter) Flush() {
	w.mu.Lock()
	if w.failed {
		w.mu.Unlock()
		return
	}
	if !w.active {
		w.mu.Unlock()
		w.flushDst()
		return
	}
	w.pending = append(w.pending, emission{kind: emitFlush})
	w.mu.Unlock()

	_ = w.coord.commit(w.reqCtx)
}

func (w *deferredWriter) flushDst() {
	if f, ok := w.dst.(http.Flusher); ok {
		f.Flush()
	}
}

// finish is invoked by the coordinator exactly once, after the close
// operation resolves. it drains the queue in original order on success and
// turns the writer into a passthrough; on failure it discards the queue and
// leaves the writer absorbing, since the handler may still be mid-emission.
func (w *deferredWriter) finish(failed bool) {
	w.mu.Lock()
	queued := w.pending
	w.pending = nil
	w.active = false
	w.failed = failed
	w.mu.Unlock()

	if failed {
		return
	}

	for _, e := range queued {
		switch e.kind {
		case emitHeader:
			w.dst.WriteHeader(e.status)
		case emitBody:
			_, _ = w.dst.Write(e.body)
		case emitFlush:
			w.flushDst()
		}
	}
	if w.replayed != nil && len(queued) > 0 {
		w.replayed(len(queued))
	}
}

// restore reinstates the original writer after a failed close, once the
// handler can no longer emit. the response is marked uncommitted so the
// pipeline's error handler produces the terminal response. a no-op unless the
// close failed.
func (w *deferredWriter) restore() {
	w.mu.Lock()
	failed := w.failed
	w.mu.Unlock()
	if !failed {
		return
	}

	if w.resp != nil {
		w.resp.Writer = w.dst
		w.resp.Committed = false
	}
}

package interp

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitska/posh/host"
)

const (
	Data = iota
	EOF
)

// EofWriter multiplexes a stream of writes and an explicit logical EOF
// marker over a single underlying pipe, so that a reader can observe "the
// writer is done" (via SendEof or Close) independently of the transport's
// own close, and so a fresh reader can be attached mid-stream via
// NewReader without losing data already buffered. It backs a coprocess's
// captured stdout: the coprocess body runs in its own goroutine and may
// outlive the statement that started it, so the parent needs a read side
// that reports EOF on context cancellation rather than only on process
// exit.
type EofWriter struct {
	mux sync.RWMutex
	log host.Logger

	wpw *io.PipeWriter // EofWriter.Write writes on this
	wpr *io.PipeReader // EofWriter.run reads from this

	ctx    context.Context
	cancel context.CancelFunc

	rpw *os.File // EofWriter.run writes on this
	// Caller reads from this, which is the "read" half of a pipe.
	R *os.File
}

// NewEofWriter builds an EofWriter that reports write/read failures to log.
func NewEofWriter(log host.Logger) (*EofWriter, error) {
	ctx, cancel := context.WithCancel(context.Background())
	pr, pw := io.Pipe()
	return &EofWriter{
		log:    log,
		wpw:    pw,
		wpr:    pr,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

func (w *EofWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	w.mux.Lock()
	defer w.mux.Unlock()

	buf := make([]byte, 3+len(p))
	buf[0] = Data
	binary.LittleEndian.PutUint16(buf[1:], uint16(len(p)))
	copy(buf[3:], p)
	n, err := w.wpw.Write(buf)
	if err != nil {
		w.log.PipeFailed(err, "coproc-stdout")
		return n, err
	}
	if n < len(buf) {
		panic(fmt.Sprintf("EofWriter.Write: wanted to write %d bytes, only wrote %d", len(buf), n))
	}
	return n - 3, nil
}

func (w *EofWriter) Read(p []byte) (int, error) {
	panic("EofWriter.Read should never be called")
}

func (w *EofWriter) Close() error {
	return w.wpw.Close()
}

// NewReader attaches a fresh read end, returning R's read half: a process
// that exec's with R as stdin gets a real *os.File, not an in-memory pipe.
// The read end is closed, sending a synthetic EOF first, when ctx is done.
func (w *EofWriter) NewReader(ctx context.Context) (io.ReadCloser, error) {
	w.mux.Lock()
	defer w.mux.Unlock()

	if w.rpw != nil {
		panic("EofWriter.NewReader called with active reader")
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		w.log.PipeFailed(err, "coproc-stdout")
		return nil, err
	}

	w.cancel()

	w.rpw = pw
	w.R = pr
	ctx, cancel := context.WithCancel(ctx)
	w.ctx, w.cancel = ctx, cancel

	go func() {
		<-ctx.Done()
		w.CloseReader()
	}()

	go w.run()

	return w.R, nil
}

func (w *EofWriter) run() {
	defer func() {
		w.mux.Lock()
		defer w.mux.Unlock()
		w.rpw.Close()
		w.rpw = nil
		w.cancel()
	}()

	header := make([]byte, 3)
	for {
		if _, err := io.ReadFull(w.wpr, header); err != nil {
			if err != io.EOF {
				w.log.PipeFailed(err, "coproc-stdout")
			}
			w.wpr.Close()
			return
		}

		switch header[0] {
		case Data:
			size := binary.LittleEndian.Uint16(header[1:])
			buf := make([]byte, size)
			if _, err := io.ReadFull(w.wpr, buf); err != nil {
				w.log.PipeFailed(err, "coproc-stdout")
				return
			}
			if _, err := w.rpw.Write(buf); err != nil {
				w.log.PipeFailed(err, "coproc-stdout")
				return
			}
		case EOF:
			return
		default:
			panic(fmt.Sprintf("EofWriter.run: expected Data or EOF, got %d", header[0]))
		}
	}
}

func (w *EofWriter) CloseReader() error {
	w.mux.Lock()
	defer w.mux.Unlock()

	if w.rpw != nil {
		w.SendEof()
	}
	return w.R.Close()
}

func (w *EofWriter) SendEof() error {
	_, err := w.wpw.Write([]byte{EOF, 0, 0})
	return err
}

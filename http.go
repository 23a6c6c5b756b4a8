package relay

import (
	"bufio"
	"errors"
	"io"
	"net"
	"net/http"
)

// ResponseWriter wraps an http.ResponseWriter and records whether the
// response header has been sent.
type ResponseWriter struct {
	http.ResponseWriter
	status  int
	size    int
	written bool
}

// NewResponseWriter wraps w, unless it already is a *ResponseWriter
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	if rw, ok := w.(*ResponseWriter); ok {
		return rw
	}
	return &ResponseWriter{ResponseWriter: w}
}

func (w *ResponseWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
		w.ResponseWriter.WriteHeader(status)
	}
}

func (w *ResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

// Committed reports whether the header has been written
func (w *ResponseWriter) Committed() bool {
	return w.written
}

// Status returns the status code sent, or 0 if nothing was sent yet
func (w *ResponseWriter) Status() int {
	return w.status
}

// Size returns the number of body bytes written
func (w *ResponseWriter) Size() int {
	return w.size
}

// Unwrap returns the underlying writer, for http.ResponseController
func (w *ResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Flush implements http.Flusher if the underlying writer supports it.
// Flushing commits the response.
func (w *ResponseWriter) Flush() {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack implements http.Hijacker if the underlying writer supports it.
// A hijacked connection counts as a committed response.
func (w *ResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("relay: underlying ResponseWriter does not implement http.Hijacker")
	}
	conn, rw, err := h.Hijack()
	if err == nil {
		w.written = true
	}
	return conn, rw, err
}

// ReadFrom implements io.ReaderFrom, using the underlying writer's
// implementation when it has one.
func (w *ResponseWriter) ReadFrom(r io.Reader) (n int64, err error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	if rf, ok := w.ResponseWriter.(io.ReaderFrom); ok {
		n, err = rf.ReadFrom(r)
	} else {
		n, err = io.Copy(writerOnly{w.ResponseWriter}, r)
	}
	w.size += int(n)
	return n, err
}

// writerOnly hides any ReadFrom of the wrapped writer from io.Copy
type writerOnly struct {
	io.Writer
}

// ErrorFunc handles an error that escaped a chain served over net/http
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

// HTTPHandler serves h as an http.Handler. An error returned by h is passed
// to onError. With a nil onError the error is re-raised as a panic and
// left to net/http.
func HTTPHandler(h Handler[*http.Request, *ResponseWriter], onError ErrorFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := NewResponseWriter(w)
		if err := h(r.Context(), r, rw); err != nil {
			if onError == nil {
				panic(err)
			}
			onError(rw, r, err)
		}
	})
}

package log

import (
	"bytes"
	"io"
	"sync"
)

// Writer returns an io.Writer that logs each complete line written to it at
// debug level, prefixed with name. It is used for child process stderr.
func Writer(name string) io.Writer {
	return &lineWriter{name: name}
}

type lineWriter struct {
	name string
	mu   sync.Mutex
	buf  []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		if line := bytes.TrimRight(w.buf[:i], "\r"); len(line) > 0 {
			Default.Debugf("%s: %s", w.name, line)
		}
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

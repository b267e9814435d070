package pix2tex

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/julianknutsen/latexocr/internal/ocr"
)

const closeGrace = 2 * time.Second

var errWorkerGone = errors.New("pix2tex worker is not running")

// request is one protocol line sent to the worker.
type request struct {
	Path string `json:"path,omitempty"`
	Data string `json:"data,omitempty"`
}

type lineResult struct {
	line []byte
	err  error
}

// worker is a serving pix2tex process. It implements ocr.Model.
type worker struct {
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	out      *bufio.Reader
	timeout  time.Duration
	versions ocr.Versions

	waitOnce sync.Once
	waitErr  error
	exited   chan struct{}
	dead     bool
}

func startWorker(cmd *exec.Cmd, timeout time.Duration) (*worker, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("opening worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("opening worker stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting python worker: %w", err)
	}
	return &worker{
		cmd:     cmd,
		stdin:   stdin,
		out:     bufio.NewReader(stdout),
		timeout: timeout,
		exited:  make(chan struct{}),
	}, nil
}

// next reads one protocol line, killing the worker if ctx ends first.
func (w *worker) next(ctx context.Context) ([]byte, error) {
	ch := make(chan lineResult, 1)
	go func() {
		line, err := w.out.ReadBytes('\n')
		if err != nil && len(line) > 0 && errors.Is(err, io.EOF) {
			err = nil
		}
		ch <- lineResult{line: line, err: err}
	}()
	select {
	case r := <-ch:
		return r.line, r.err
	case <-ctx.Done():
		w.kill()
		return nil, ctx.Err()
	}
}

// Predict implements ocr.Model.
func (w *worker) Predict(ctx context.Context, img ocr.Image) (string, error) {
	if w.dead {
		return "", errWorkerGone
	}
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	req := request{Path: img.Path}
	if req.Path == "" {
		req.Data = base64.StdEncoding.EncodeToString(img.Data)
	}
	b, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encoding worker request: %w", err)
	}
	if _, err := w.stdin.Write(append(b, '\n')); err != nil {
		w.kill()
		return "", fmt.Errorf("writing to worker: %w", err)
	}

	line, err := w.next(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("prediction timed out after %s", w.timeout)
		}
		if errors.Is(err, io.EOF) {
			w.dead = true
			return "", fmt.Errorf("worker exited: %w", w.exitErr())
		}
		return "", err
	}
	r, err := parseReply(line)
	if err != nil {
		return "", err
	}
	return r.Latex, nil
}

func (w *worker) wait() {
	w.waitOnce.Do(func() {
		go func() {
			w.waitErr = w.cmd.Wait()
			close(w.exited)
		}()
	})
}

// exitErr waits briefly for the process and describes how it ended.
func (w *worker) exitErr() error {
	w.wait()
	select {
	case <-w.exited:
		if w.waitErr != nil {
			return w.waitErr
		}
		return errors.New("exit status 0")
	case <-time.After(closeGrace):
		return errors.New("worker stopped responding")
	}
}

func (w *worker) kill() {
	w.dead = true
	if w.cmd.Process != nil {
		_ = w.cmd.Process.Kill()
	}
}

// Close asks the worker to exit by closing stdin and kills it if it does
// not exit within a short grace period.
func (w *worker) Close() error {
	_ = w.stdin.Close()
	w.wait()
	select {
	case <-w.exited:
	case <-time.After(closeGrace):
		w.kill()
		<-w.exited
	}
	w.dead = true
	return nil
}

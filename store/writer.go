// Package store persists captured PCM on a single background goroutine.
// Callers only enqueue; the worker owns the open file and the in-memory
// accumulation buffer, and writes the buffer out in one piece on close.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"voicerec/log"
)

const (
	DefaultDir        = "voicerec/record"
	DefaultCloseDelay = 500 * time.Millisecond
	Ext               = ".pcm"
)

var ErrShutdown = errors.New("store: writer shut down")

type Config struct {
	// Root is the storage root; defaults to the user's home directory.
	Root string
	// Dir is the subdirectory under Root new files go to.
	Dir string
	// CloseDelay is how long a close waits before it may run, so appends
	// still on their way from the capture side land first.
	CloseDelay time.Duration
	// Now stamps file names.
	Now func() time.Time
	// OnSaved runs on the worker after a file has been written and closed.
	OnSaved func(path string, n int)
}

type cmdKind int

const (
	cmdOpen cmdKind = iota
	cmdAppend
	cmdClose
	cmdSetDir
	cmdSync
)

type command struct {
	kind      cmdKind
	arg       string
	data      []byte
	notBefore time.Time
	done      chan struct{}
}

// Writer is a long-lived persistence worker. Commands run strictly in
// submission order; a delayed close holds back everything queued after it.
type Writer struct {
	root       string
	closeDelay time.Duration
	now        func() time.Time
	onSaved    func(path string, n int)

	mu       sync.Mutex
	queue    []command
	shutdown bool
	notify   chan struct{}
	exited   chan struct{}

	// owned by the worker goroutine
	dir  string
	file *os.File
	path string
	buf  bytes.Buffer
}

func New(cfg Config) *Writer {
	if cfg.Root == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Root = home
		}
	}
	if cfg.Dir == "" {
		cfg.Dir = DefaultDir
	}
	if cfg.CloseDelay <= 0 {
		cfg.CloseDelay = DefaultCloseDelay
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	w := &Writer{
		root:       cfg.Root,
		closeDelay: cfg.CloseDelay,
		now:        cfg.Now,
		onSaved:    cfg.OnSaved,
		notify:     make(chan struct{}, 1),
		exited:     make(chan struct{}),
		dir:        cfg.Dir,
	}
	w.buf.Grow(5 * 1024)
	go w.run()
	return w
}

// Open starts a new file named after the current time and prefix.
func (w *Writer) Open(prefix string) {
	w.submit(command{kind: cmdOpen, arg: prefix})
}

// Append queues a copy of data for the open file. Empty data is ignored.
func (w *Writer) Append(data []byte) {
	if len(data) == 0 {
		return
	}
	w.submit(command{kind: cmdAppend, data: bytes.Clone(data)})
}

// Close writes out and closes the open file once the close delay has passed.
func (w *Writer) Close() {
	w.submit(command{kind: cmdClose, notBefore: time.Now().Add(w.closeDelay)})
}

// SetDir changes the subdirectory used by the next Open. Empty is ignored.
func (w *Writer) SetDir(dir string) {
	if dir == "" {
		return
	}
	w.submit(command{kind: cmdSetDir, arg: dir})
}

// Sync waits until every command submitted before it has been processed.
func (w *Writer) Sync(ctx context.Context) error {
	done := make(chan struct{})
	if !w.submit(command{kind: cmdSync, done: done}) {
		return ErrShutdown
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting commands and waits for the queue to drain. A file
// still open after the last command is closed without being written.
func (w *Writer) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	w.shutdown = true
	w.mu.Unlock()
	w.wake()

	select {
	case <-w.exited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) submit(c command) bool {
	w.mu.Lock()
	if w.shutdown {
		w.mu.Unlock()
		log.Warnf("store: dropping command %d after shutdown", c.kind)
		return false
	}
	w.queue = append(w.queue, c)
	w.mu.Unlock()
	w.wake()
	return true
}

func (w *Writer) wake() {
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

// next blocks until the head of the queue is eligible and pops it. It
// returns false once the writer is shut down and the queue is empty.
func (w *Writer) next() (command, bool) {
	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			done := w.shutdown
			w.mu.Unlock()
			if done {
				return command{}, false
			}
			<-w.notify
			continue
		}
		head := w.queue[0]
		if wait := time.Until(head.notBefore); wait > 0 {
			w.mu.Unlock()
			time.Sleep(wait)
			continue
		}
		w.queue[0] = command{}
		w.queue = w.queue[1:]
		w.mu.Unlock()
		return head, true
	}
}

func (w *Writer) run() {
	defer close(w.exited)
	for {
		c, ok := w.next()
		if !ok {
			break
		}
		w.handle(c)
	}
	if w.file != nil {
		log.Warnf("store: %s still open at shutdown, %d buffered bytes discarded", w.path, w.buf.Len())
		w.file.Close()
		w.file = nil
	}
}

func (w *Writer) handle(c command) {
	switch c.kind {
	case cmdOpen:
		w.open(c.arg)
	case cmdAppend:
		w.buf.Write(c.data)
	case cmdClose:
		w.close()
	case cmdSetDir:
		w.dir = c.arg
	case cmdSync:
		close(c.done)
	}
}

// FileName formats the name a file opened at t with prefix gets.
func FileName(t time.Time, prefix string) string {
	return fmt.Sprintf("%d-%d-%d-%d-%d-%d_%s%s",
		t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), prefix, Ext)
}

func (w *Writer) open(prefix string) {
	dir := filepath.Join(w.root, w.dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Errorf("store: create %s: %v", dir, err)
		return
	}
	path := filepath.Join(dir, FileName(w.now(), prefix))
	f, err := os.Create(path)
	if err != nil {
		log.Errorf("store: open %s: %v", path, err)
		return
	}
	if w.file != nil {
		// The previous file is dropped as is: its buffered bytes never
		// reach disk and the handle is not closed.
		log.Warnf("store: %s replaced while open, %d buffered bytes lost", w.path, w.buf.Len())
	}
	w.file = f
	w.path = path
	w.buf.Reset()
}

func (w *Writer) close() {
	if w.file == nil {
		return
	}
	n, err := w.file.Write(w.buf.Bytes())
	if err != nil {
		log.Errorf("store: write %s: %v", w.path, err)
	}
	w.buf.Reset()
	if cerr := w.file.Close(); cerr != nil {
		log.Errorf("store: close %s: %v", w.path, cerr)
		if err == nil {
			err = cerr
		}
	}
	path := w.path
	w.file = nil
	w.path = ""
	if err != nil {
		return
	}

	log.FileSaved(path, n)
	if w.onSaved != nil {
		w.onSaved(path, n)
	}
}

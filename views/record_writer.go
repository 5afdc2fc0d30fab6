package views

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

const defaultRecordBuffer = 256 * 1024

// ErrRecordClosed is returned by Write after Close.
var ErrRecordClosed = errors.New("record closed")

// RecordWriter appends rows of one RecordKind to its file in a session
// directory. Rows land in a userspace buffer; the recorder flushes on a
// timer so Write never waits on the disk. The first I/O failure is kept
// and returned by every later call.
type RecordWriter struct {
	kind RecordKind
	path string

	mu  sync.Mutex
	f   *os.File
	bw  *bufio.Writer
	cw  *csv.Writer
	err error

	rows atomic.Uint64
}

// OpenRecord creates dir/<kind file>, checking header against the
// published schema first. bufSize <= 0 selects 256 KiB.
func OpenRecord(dir string, kind RecordKind, header []string, bufSize int, writeHeader bool) (*RecordWriter, error) {
	if err := CheckHeader(kind, header); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, kind.FileName())
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open %s record: %w", kind, err)
	}
	if bufSize <= 0 {
		bufSize = defaultRecordBuffer
	}
	w := &RecordWriter{kind: kind, path: path, f: f}
	w.bw = bufio.NewWriterSize(f, bufSize)
	w.cw = csv.NewWriter(w.bw)

	if writeHeader {
		if err := w.cw.Write(header); err != nil {
			f.Close()
			return nil, fmt.Errorf("%s header: %w", kind, err)
		}
	}
	return w, nil
}

// Write appends one data row.
func (w *RecordWriter) Write(row []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	if w.f == nil {
		return ErrRecordClosed
	}
	if err := w.cw.Write(row); err != nil {
		w.err = fmt.Errorf("%s row: %w", w.kind, err)
		return w.err
	}
	w.rows.Add(1)
	return nil
}

func (w *RecordWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

func (w *RecordWriter) flushLocked() error {
	if w.err != nil {
		return w.err
	}
	w.cw.Flush()
	err := w.cw.Error()
	if err == nil {
		err = w.bw.Flush()
	}
	if err != nil {
		w.err = fmt.Errorf("flush %s: %w", w.path, err)
	}
	return w.err
}

// Close flushes and closes the file. Safe to call twice.
func (w *RecordWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return w.err
	}
	ferr := w.flushLocked()
	cerr := w.f.Close()
	w.f = nil
	if ferr != nil {
		return ferr
	}
	if cerr != nil {
		w.err = fmt.Errorf("close %s: %w", w.path, cerr)
	}
	return w.err
}

// Rows counts data rows accepted so far, excluding the header.
func (w *RecordWriter) Rows() uint64 { return w.rows.Load() }

func (w *RecordWriter) Kind() RecordKind { return w.kind }
func (w *RecordWriter) Path() string     { return w.path }

// Package linkfile reads in-link adjacency files: one page per line, the
// page ID first and the IDs of the pages linking to it after, separated by
// whitespace. Files ending in .gz are decompressed transparently.
package linkfile

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/papapumpkin/linkrank/internal/pagerank"
)

// MaxLineSize bounds a single line. Hub pages in web corpora can carry
// hundreds of thousands of in-links on one line.
const MaxLineSize = 16 << 20

// Reader streams records out of an in-link file.
type Reader struct {
	scanner *bufio.Scanner
	closers []io.Closer
	line    int
}

// NewReader wraps r. Blank lines are skipped.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	return &Reader{scanner: sc}
}

// Open opens the file at path for reading.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("linkfile: open %s: %w", path, err)
	}
	if !strings.HasSuffix(path, ".gz") {
		rd := NewReader(f)
		rd.closers = []io.Closer{f}
		return rd, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("linkfile: gunzip %s: %w", path, err)
	}
	rd := NewReader(gz)
	rd.closers = []io.Closer{gz, f}
	return rd, nil
}

// Next returns the next record, or io.EOF once the input is exhausted.
func (r *Reader) Next() (pagerank.Record, error) {
	for r.scanner.Scan() {
		r.line++
		fields := strings.Fields(r.scanner.Text())
		if len(fields) == 0 {
			continue
		}
		return pagerank.Record{Target: fields[0], Sources: fields[1:]}, nil
	}
	if err := r.scanner.Err(); err != nil {
		return pagerank.Record{}, fmt.Errorf("linkfile: line %d: %w", r.line+1, err)
	}
	return pagerank.Record{}, io.EOF
}

// Line returns the number of lines consumed so far.
func (r *Reader) Line() int {
	return r.line
}

// Close releases the underlying file. Readers built with NewReader own
// nothing and Close is a no-op.
func (r *Reader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = fmt.Errorf("linkfile: close: %w", err)
		}
	}
	r.closers = nil
	return first
}

// ReadAll parses every record in r.
func ReadAll(r io.Reader) ([]pagerank.Record, error) {
	rd := NewReader(r)
	var recs []pagerank.Record
	for {
		rec, err := rd.Next()
		if err == io.EOF {
			return recs, nil
		}
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
}

// LoadGraph reads the file at path into a graph.
func LoadGraph(path string, opts ...pagerank.GraphOption) (*pagerank.Graph, error) {
	rd, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rd.Close()
	return pagerank.Load(rd, opts...)
}

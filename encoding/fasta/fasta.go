// Package fasta implements the lazy FASTA sequence stream described in §6
// of the specification: records are sanitised, uppercased, numbered from
// zero, and de-duplicated by name as they are pulled off the stream.
//
// This is adapted from the teacher's eager, random-access
// github.com/grailbio/bio/encoding/fasta package; that package loads every
// sequence into memory up front and supports indexed random access (.fai).
// The pipeline described in this spec instead wants a single forward pass
// (component B, §2), so this version is lazy: one record is parsed and
// returned per Next() call, and only the current record is held in memory
// (the line scanner still reads ahead in fixed-size chunks).
package fasta

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const bufferInitSize = 1 << 20

// keepByte reports whether an upper-cased sequence byte survives the §6
// sanitisation filter [A-Z.?*].
func keepByte(b byte) bool {
	return (b >= 'A' && b <= 'Z') || b == '.' || b == '?' || b == '*'
}

func sanitize(raw string) []byte {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		b := raw[i]
		if b >= 'a' && b <= 'z' {
			b -= 'a' - 'A'
		}
		if keepByte(b) {
			out = append(out, b)
		}
	}
	return out
}

// Record is one sanitised, named, numbered FASTA entry.
type Record struct {
	// Index is the 0-based position of this record in the input stream.
	Index int
	// Name is the (possibly de-duplicated) record name.
	Name string
	// Seq is the sanitised, uppercased sequence.
	Seq []byte
}

// Stream is the capability trait implemented by FASTA sources: a lazy
// sequence of Records, and a liveness check. This mirrors the DESIGN NOTES'
// "polymorphism via inheritance -> capability trait" migration from the
// source's abstract FastaStream class.
type Stream interface {
	// Next returns the next record, or (Record{}, false, nil) at end of
	// stream. A non-nil error is fatal (§7) and stops the stream.
	Next() (Record, bool, error)
	// IsGood reports whether the stream can still produce records (it has
	// not hit EOF or a fatal error).
	IsGood() bool
}

// reader is the sole Stream implementation: a single-pass bufio.Scanner
// line reader, matching the scanning style of the teacher's
// encoding/fasta/fasta.go (newEagerUnindexed), generalized to emit one
// record per Next() call instead of eagerly filling a map.
type reader struct {
	scanner *bufio.Scanner
	seen    map[string]int // name -> occurrence count so far
	index   int
	good    bool

	// pendingHeader holds a header line already consumed while scanning the
	// previous record's body; it becomes the name of the next record.
	pendingHeader string
	havePending   bool
}

// NewReader returns a Stream over r.
func NewReader(r io.Reader) Stream {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, bufferInitSize)
	return &reader{scanner: scanner, seen: make(map[string]int), good: true}
}

func parseHeaderName(line string) string {
	name := strings.TrimSpace(line[1:])
	if name == "" {
		return "Untitled"
	}
	return name
}

func (f *reader) dedupe(name string) string {
	count := f.seen[name]
	f.seen[name] = count + 1
	if count == 0 {
		return name
	}
	return name + " (" + strconv.Itoa(count) + ")"
}

// Next implements Stream.
func (f *reader) Next() (Record, bool, error) {
	if !f.good {
		return Record{}, false, nil
	}

	var name string
	haveName := false
	if f.havePending {
		name = f.pendingHeader
		haveName = true
		f.havePending = false
	}

	var body []byte
	for f.scanner.Scan() {
		line := f.scanner.Text()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if haveName {
				// This header starts the next record; stop here and emit
				// what we have accumulated for the current one.
				f.pendingHeader = parseHeaderName(line)
				f.havePending = true
				rec := Record{Index: f.index, Name: f.dedupe(name), Seq: body}
				f.index++
				return rec, true, nil
			}
			name = parseHeaderName(line)
			haveName = true
			continue
		}
		body = append(body, sanitize(line)...)
	}
	if err := f.scanner.Err(); err != nil {
		f.good = false
		return Record{}, false, errors.Wrap(err, "fasta: read failed")
	}

	// Reached EOF with nothing pending and nothing scanned: no more records.
	if !haveName && body == nil {
		f.good = false
		return Record{}, false, nil
	}
	f.good = false
	if !haveName {
		// Headerless (plain-text) input: the whole stream is one record.
		name = "Untitled"
	}
	rec := Record{Index: f.index, Name: f.dedupe(name), Seq: body}
	f.index++
	return rec, true, nil
}

// IsGood implements Stream.
func (f *reader) IsGood() bool { return f.good }

// ReadAll drains a Stream into a slice, for callers (tests, small tools)
// that do not need streaming behavior.
func ReadAll(s Stream) ([]Record, error) {
	var out []Record
	for {
		rec, ok, err := s.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, rec)
	}
}

package hpalog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iafilius/HPAScaleGraphs/src/logging"
)

// MaxLineBytes caps a single logical line. Watch logs are short; this only guards against
// a binary file being passed by mistake.
const MaxLineBytes = 16 * 1024 * 1024

// ScanStats counts what happened to the lines of one source.
type ScanStats struct {
	Lines     int `json:"lines"`
	Marked    int `json:"marker_lines"`
	Extracted int `json:"records"`
	Dropped   int `json:"dropped"`
}

// Scan reads r line by line and returns the extracted records in input order.
// Only I/O failures are returned as errors; lines that fail extraction are counted in Dropped.
// A line longer than MaxLineBytes is never extracted: it is dropped when its first
// MaxLineBytes contain the marker, and scanning continues with the next line.
func Scan(r io.Reader, f Filter) ([]Record, ScanStats, error) {
	var (
		records []Record
		stats   ScanStats
	)
	reader := bufio.NewReader(r)
	for {
		line, truncated, err := readLine(reader)
		if len(line) > 0 || truncated || err == nil {
			stats.Lines++
			if f.Match(line) {
				stats.Marked++
				if truncated {
					stats.Dropped++
					logging.Debugf("[scan] skip line %d: longer than %d bytes", stats.Lines, MaxLineBytes)
				} else if rec, ok := Extract(line); ok {
					records = append(records, rec)
					stats.Extracted++
				} else {
					stats.Dropped++
					logging.Debugf("[scan] skip line %d: %s", stats.Lines, line)
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return records, stats, nil
			}
			return records, stats, err
		}
	}
}

// readLine returns one logical line without its terminator. Content past MaxLineBytes is
// discarded up to the next newline and reported as truncated. io.EOF is returned together
// with a final unterminated line, or alone when nothing is left.
func readLine(reader *bufio.Reader) (string, bool, error) {
	var (
		b         strings.Builder
		truncated bool
	)
	for {
		part, err := reader.ReadSlice('\n')
		if room := MaxLineBytes - b.Len(); len(part) > room {
			b.Write(part[:room])
			truncated = true
		} else {
			b.Write(part)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if truncated {
			return b.String(), true, err
		}
		line := strings.TrimSuffix(b.String(), "\n")
		line = strings.TrimSuffix(line, "\r")
		if err != nil && b.Len() == 0 {
			return "", false, err
		}
		return line, false, err
	}
}

// ScanFile opens path and scans it. A missing or unreadable file is returned as an error
// wrapping the underlying *fs.PathError.
func ScanFile(path string, f Filter) ([]Record, ScanStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, ScanStats{}, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()
	logging.Infof("[scan] reading %s (marker=%q)", path, f.Marker)
	records, stats, err := Scan(file, f)
	if err != nil {
		return nil, stats, fmt.Errorf("read %s: %w", path, err)
	}
	logging.Infof("[scan] %s: lines=%d marker=%d records=%d dropped=%d", path, stats.Lines, stats.Marked, stats.Extracted, stats.Dropped)
	return records, stats, nil
}

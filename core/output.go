package core

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/leadspider/leadspider/stringset"
)

// Output appends records as JSON lines and skips records already present in
// the file, including those written by earlier runs.
type Output struct {
	mu     sync.Mutex
	f      *os.File
	filter *stringset.StringFilter
}

func NewOutput(folder, filename string) (*Output, error) {
	return NewOutputPath(filepath.Join(folder, filename))
}

func NewOutputPath(filePath string) (*Output, error) {
	abspath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("resolve output path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abspath), os.ModePerm); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.OpenFile(abspath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}
	out := &Output{f: f, filter: stringset.NewStringFilter()}
	out.loadExisting(abspath)
	return out, nil
}

// WriteRecord appends rec and reports whether it was new.
func (o *Output) WriteRecord(rec OutputRecord) (bool, error) {
	line, err := jsoniter.MarshalToString(rec)
	if err != nil {
		return false, fmt.Errorf("encode record: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.filter.Duplicate(rec.Key()) {
		return false, nil
	}
	if _, err := o.f.WriteString(line + "\n"); err != nil {
		return false, fmt.Errorf("write record: %w", err)
	}
	return true, nil
}

func (o *Output) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.f != nil {
		_ = o.f.Close()
		o.f = nil
	}
}

func (o *Output) loadExisting(path string) {
	reader, err := os.Open(path)
	if err != nil {
		return
	}
	defer reader.Close()

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec OutputRecord
		if err := jsoniter.UnmarshalFromString(line, &rec); err != nil || rec.ProductURL == "" {
			continue
		}
		_ = o.filter.Duplicate(rec.Key())
	}
}

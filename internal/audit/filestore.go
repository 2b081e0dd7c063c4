package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultMaxFileBytes is the rotation threshold when none is configured.
const DefaultMaxFileBytes = 10 << 20 // 10 MiB

// maxLineBytes caps a single scanned line. Must exceed the longest line
// Write can produce, or one oversized entry makes the whole segment
// unreadable.
const maxLineBytes = 16 << 20 // 16 MiB

// FileStore is an append-only JSONL store: one JSON object per line, one
// line per entry. When the active file exceeds the byte threshold it is
// renamed with the next free numeric suffix and a fresh file is started.
// Malformed lines are skipped on read, tolerating a crash mid-append.
// Writes are serialized by a mutex.
type FileStore struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	size     int64
	maxBytes int64
}

// OpenFileStore opens (or creates) a JSONL audit store at path.
// maxBytes <= 0 selects DefaultMaxFileBytes.
func OpenFileStore(path string, maxBytes int64) (*FileStore, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileBytes
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("audit: create directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("audit: open file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("audit: stat file: %w", err)
	}
	return &FileStore{
		path:     path,
		file:     file,
		size:     info.Size(),
		maxBytes: maxBytes,
	}, nil
}

// Write appends the entry as one JSON line, rotating first if the line
// would push the active file past the threshold.
func (s *FileStore) Write(ctx context.Context, entry StoredLogEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit: marshal entry: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.size > 0 && s.size+int64(len(line)) > s.maxBytes {
		if err := s.rotate(); err != nil {
			return err
		}
	}

	n, err := s.file.Write(line)
	s.size += int64(n)
	if err != nil {
		return fmt.Errorf("audit: write entry: %w", err)
	}
	return nil
}

// rotate renames the active file to the next free numeric suffix and
// starts a fresh one. Caller holds s.mu.
func (s *FileStore) rotate() error {
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("audit: close before rotate: %w", err)
	}

	suffix := 1
	for {
		if _, err := os.Stat(fmt.Sprintf("%s.%d", s.path, suffix)); os.IsNotExist(err) {
			break
		}
		suffix++
	}
	if err := os.Rename(s.path, fmt.Sprintf("%s.%d", s.path, suffix)); err != nil {
		return fmt.Errorf("audit: rotate: %w", err)
	}

	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("audit: open after rotate: %w", err)
	}
	s.file = file
	s.size = 0
	return nil
}

// Close flushes and closes the active file.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// Query scans rotated files oldest-first, then the active file, so
// rotation never hides history.
func (s *FileStore) Query(ctx context.Context, f Filter) ([]StoredLogEntry, error) {
	entries, err := s.scan(f)
	if err != nil {
		return nil, err
	}
	return f.page(entries), nil
}

// Count returns the number of matching entries across all segments.
func (s *FileStore) Count(ctx context.Context, f Filter) (int, error) {
	entries, err := s.scan(f)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (s *FileStore) scan(f Filter) ([]StoredLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []StoredLogEntry
	for _, path := range s.segments() {
		entries, err := scanFile(path, f)
		if err != nil {
			return nil, err
		}
		matched = append(matched, entries...)
	}
	return matched, nil
}

// segments lists rotated files in suffix order followed by the active
// file. Caller holds s.mu.
func (s *FileStore) segments() []string {
	var paths []string
	for suffix := 1; ; suffix++ {
		p := fmt.Sprintf("%s.%d", s.path, suffix)
		if _, err := os.Stat(p); err != nil {
			break
		}
		paths = append(paths, p)
	}
	return append(paths, s.path)
}

func scanFile(path string, f Filter) ([]StoredLogEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("audit: open for read: %w", err)
	}
	defer file.Close()

	var matched []StoredLogEntry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64<<10), maxLineBytes)
	for scanner.Scan() {
		var e StoredLogEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			// Partial write from a crash mid-append.
			continue
		}
		if f.matches(e) {
			matched = append(matched, e)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("audit: scan %s: %w", path, err)
	}
	return matched, nil
}

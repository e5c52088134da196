package tokenstore

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ParseError reports a token file line that is not a key=value pair.
type ParseError struct {
	Path string
	Line int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed token store %s: line %d is not key=value", e.Path, e.Line)
}

// Read loads the record stored at path. A missing file yields an empty record.
func Read(path string) (*Record, error) {
	record := NewRecord()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Debugf("token store %s does not exist yet", filepath.Clean(path))
			return record, nil
		}
		return nil, fmt.Errorf("failed to read token store: %w", err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, &ParseError{Path: path, Line: lineNo}
		}
		record.Set(key, value)
	}
	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan token store: %w", err)
	}
	return record, nil
}

// Write replaces the file at path with record, one key=value line per entry.
// The content goes to a temp file in the same directory which is renamed over
// path only after it was fully written, so a failed write leaves the previous
// file in place. The result is readable and writable by the owner only.
func Write(path string, record *Record) error {
	payload, err := encode(record)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".oauth2nmail-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		if errRemove := os.Remove(tmpName); errRemove != nil && !errors.Is(errRemove, os.ErrNotExist) {
			log.Debugf("failed to remove temp token file %s: %v", tmpName, errRemove)
		}
	}()

	if err = tmp.Chmod(0o600); err != nil {
		return fmt.Errorf("failed to restrict temp token file: %w", err)
	}
	if _, err = tmp.Write(payload); err != nil {
		return fmt.Errorf("failed to write token store: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync token store: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close token store: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace token store: %w", err)
	}

	log.WithField("keys", strings.Join(record.Keys(), ",")).Debugf("saved token store %s", filepath.Clean(path))
	return nil
}

func encode(record *Record) ([]byte, error) {
	var buf bytes.Buffer
	for _, key := range record.Keys() {
		value, _ := record.Get(key)
		if key == "" || strings.ContainsAny(key, "=\r\n") {
			return nil, fmt.Errorf("token store key %q cannot be stored", key)
		}
		if strings.ContainsAny(value, "\r\n") {
			return nil, fmt.Errorf("token store value for %q contains a line break", key)
		}
		buf.WriteString(key)
		buf.WriteByte('=')
		buf.WriteString(value)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

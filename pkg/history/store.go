// Package history persists the entry array of a chat.MessageBuffer.
//
// A history file holds exactly the entry array: "[\n{...},\n{...}" followed by
// "\n]". The request header and call options are never written. An empty
// conversation is stored as "\n]".
package history

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/renatogalera/ai-chat/pkg/chat"
)

// Extension is used by List to recognise history files.
const Extension = ".json"

var (
	// ErrIO wraps every file system failure.
	ErrIO = errors.New("history i/o error")

	// ErrMalformed is returned when a file is not a saved entry array.
	ErrMalformed = errors.New("malformed history file")
)

var (
	arrayOpen  = []byte("[\n")
	arrayClose = []byte("\n]")
)

// Save writes the entry array of buf to path. The file is written to a
// temporary sibling and renamed into place.
func Save(path string, buf *chat.MessageBuffer) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return fmt.Errorf("%w: create temp history file: %w", ErrIO, err)
	}

	if _, err := tmp.Write(buf.Entries()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: write history: %w", ErrIO, err)
	}
	if _, err := tmp.Write(arrayClose); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: write history: %w", ErrIO, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: close history temp file: %w", ErrIO, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: persist history: %w", ErrIO, err)
	}
	return nil
}

// Load replaces the entries of buf with the ones saved at path.
func Load(path string, buf *chat.MessageBuffer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read history file: %w", ErrIO, err)
	}
	entries, err := stripClose(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return buf.Restore(entries)
}

func stripClose(data []byte) ([]byte, error) {
	if !bytes.HasSuffix(data, arrayClose) {
		return nil, fmt.Errorf("%w: missing closing %q", ErrMalformed, arrayClose)
	}
	entries := data[:len(data)-len(arrayClose)]
	if len(entries) > 0 && !bytes.HasPrefix(entries, arrayOpen) {
		return nil, fmt.Errorf("%w: missing opening %q", ErrMalformed, arrayOpen)
	}
	return entries, nil
}

// Info describes a saved history file.
type Info struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// List returns the history files in dir, most recently modified first. A
// missing directory yields no files.
func List(dir string) ([]Info, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read history directory: %w", ErrIO, err)
	}

	var out []Info
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), Extension) || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		fi, err := de.Info()
		if err != nil {
			return nil, fmt.Errorf("%w: stat %s: %w", ErrIO, de.Name(), err)
		}
		out = append(out, Info{
			Path:    filepath.Join(dir, de.Name()),
			Name:    strings.TrimSuffix(de.Name(), Extension),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModTime.After(out[j].ModTime) })
	return out, nil
}

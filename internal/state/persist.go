package state

import (
	"fmt"
	"os"
	"path/filepath"
)

// SlotKey is the fixed name of the single durable slot holding the
// serialized application state.
const SlotKey = "medbot.chat.state"

// Slot is the injected persistence port: a single named durable blob.
// Implementations must tolerate concurrent processes only in a last-writer-
// wins sense; the application itself is single-threaded.
type Slot interface {
	// Load returns the stored blob, or (nil, nil) when nothing has been
	// stored yet.
	Load() ([]byte, error)
	Save(data []byte) error
}

// FileSlot stores the blob as one JSON file under a directory.
type FileSlot struct {
	path string
}

// NewFileSlot returns a slot backed by <dir>/state.json.
func NewFileSlot(dir string) *FileSlot {
	return &FileSlot{path: filepath.Join(dir, "state.json")}
}

// Path returns the backing file path.
func (f *FileSlot) Path() string { return f.path }

func (f *FileSlot) Load() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	return data, nil
}

// Save writes atomically via a temp file so a crash mid-write leaves the
// previous blob intact.
func (f *FileSlot) Save(data []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "state-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("failed to close state file: %w", err)
	}
	if err := os.Chmod(name, 0600); err != nil {
		os.Remove(name)
		return fmt.Errorf("failed to chmod state file: %w", err)
	}
	if err := os.Rename(name, f.path); err != nil {
		os.Remove(name)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// MemorySlot is an in-memory slot for tests.
type MemorySlot struct {
	Data  []byte
	Saves int
}

func (m *MemorySlot) Load() ([]byte, error) {
	return m.Data, nil
}

func (m *MemorySlot) Save(data []byte) error {
	m.Data = append([]byte(nil), data...)
	m.Saves++
	return nil
}

package engine

import (
	"os"
)

// StopFile asks running workers to exit after their current job. A file
// works on every platform, including those without POSIX signals.
type StopFile struct {
	Path string
}

func (s *StopFile) Requested() bool {
	_, err := os.Stat(s.Path)
	return err == nil
}

func (s *StopFile) Create() error {
	return os.WriteFile(s.Path, []byte("stop"), 0644)
}

func (s *StopFile) Remove() {
	_ = os.Remove(s.Path)
}

package engine

import (
	"os"
	"strconv"
	"strings"
)

// PIDFile records the process id of a running worker pool.
type PIDFile struct {
	Path string
}

func (p PIDFile) Write(pid int) error {
	return os.WriteFile(p.Path, []byte(strconv.Itoa(pid)), 0644)
}

func (p PIDFile) Read() (int, error) {
	b, err := os.ReadFile(p.Path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(b)))
}

func (p PIDFile) Remove() {
	_ = os.Remove(p.Path)
}

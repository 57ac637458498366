package services

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// DefaultTailLines is how many log lines the dashboard shows.
const DefaultTailLines = 50

// LogMissing is the single line returned when the bot has not logged yet.
const LogMissing = "log file not found"

// TailLog returns the last n lines of the file at path. A missing file
// yields a one-line placeholder rather than an error.
func TailLog(path string, n int) ([]string, error) {
	if n <= 0 {
		n = DefaultTailLines
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return []string{LogMissing}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ring := make([]string, n)
	count := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		ring[count%n] = strings.TrimRight(sc.Text(), "\r")
		count++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	if count <= n {
		return ring[:count], nil
	}
	out := make([]string, 0, n)
	start := count % n
	out = append(out, ring[start:]...)
	out = append(out, ring[:start]...)
	return out, nil
}

// LogFile tails the bot log for GET /api/logs.
type LogFile struct {
	Path  string
	Lines int
}

// Tail returns the last Lines lines of the log.
func (f LogFile) Tail() ([]string, error) { return TailLog(f.Path, f.Lines) }

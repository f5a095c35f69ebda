package loader

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/m2sim/sched"
)

// ErrMissingMemoryInitLine reports a memory image line that does not
// parse as "address value".
type ErrMissingMemoryInitLine struct {
	Path string
	Line int
	Text string
}

func (e *ErrMissingMemoryInitLine) Error() string {
	return fmt.Sprintf("%s:%d: malformed memory init line %q, want \"address value\"", e.Path, e.Line, e.Text)
}

// LoadMemoryImage reads path as a sequence of "address value" lines
// and writes each pair into mem. Blank lines are skipped.
func LoadMemoryImage(path string, mem *sched.Memory) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open memory image %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) != 2 {
			return &ErrMissingMemoryInitLine{Path: path, Line: lineNo, Text: text}
		}

		addr, err := strconv.ParseInt(fields[0], 10, 32)
		if err != nil {
			return &ErrMissingMemoryInitLine{Path: path, Line: lineNo, Text: text}
		}
		value, err := strconv.ParseUint(fields[1], 10, 16)
		if err != nil {
			return &ErrMissingMemoryInitLine{Path: path, Line: lineNo, Text: text}
		}

		if err := mem.Write(int32(addr), uint16(value)); err != nil {
			return fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read memory image %s: %w", path, err)
	}
	return nil
}

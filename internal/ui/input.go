package ui

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// ReadLines sends each non-empty line of r on the returned channel until r
// is exhausted or ctx is cancelled. The channel is closed at the end.
func ReadLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	return lines
}

// Package publisher sends selected lines to a social network.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrPublish wraps every failure reported by a Publisher.
var ErrPublish = errors.New("publish failed")

type Publisher interface {
	Publish(ctx context.Context, text string) error
}

// Format renders the post text. Without attribution the line goes out
// verbatim.
func Format(line, songTitle string, attribution bool) string {
	if !attribution || songTitle == "" {
		return line
	}
	return fmt.Sprintf("%s [de '%s']", line, songTitle)
}

// Console prints posts instead of sending them. Used for dry runs.
type Console struct {
	Out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{Out: out}
}

func (c *Console) Publish(ctx context.Context, text string) error {
	separator := strings.Repeat("-", 50)
	_, err := fmt.Fprintf(c.Out, "%s\n%s\n%s\ncharacter count: %d\n", separator, text, separator, len([]rune(text)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}
	return nil
}

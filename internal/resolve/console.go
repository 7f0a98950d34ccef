package resolve

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ppiankov/storybias/internal/extract"
	"github.com/ppiankov/storybias/internal/model"
)

// Console asks an operator on a terminal. Prompts from concurrent extractions
// are serialized so each one is answered in full before the next is shown.
// A prompt waits for valid input without timeout.
type Console struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewConsole creates a console oracle reading answers from in and writing prompts to out
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{
		in:  bufio.NewReader(in),
		out: out,
	}
}

func (c *Console) Resolve(ctx context.Context, q extract.Query) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.describe(q)

	for {
		fmt.Fprint(c.out, prompt(q))

		line, err := c.in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return "", fmt.Errorf("read %s answer: %w", q.Kind, err)
		}

		answer, verr := q.Validate(line)
		if verr == nil {
			return answer, nil
		}
		fmt.Fprintf(c.out, "  ✗ %v\n", verr)
		if err != nil {
			return "", fmt.Errorf("read %s answer: %w", q.Kind, io.ErrUnexpectedEOF)
		}
	}
}

func (c *Console) describe(q extract.Query) {
	fmt.Fprintf(c.out, "\n━━━ %s needed for %s ━━━\n", q.Kind, q.Key)

	switch q.Kind {
	case extract.QueryCriminal:
		fmt.Fprintf(c.out, "Final sentence: %s\n", q.Context)
		fmt.Fprintf(c.out, "Location: %s\n", q.Scenario.Location)
		for slot := 1; slot <= model.Slots; slot++ {
			fmt.Fprintf(c.out, "  %d. %s (%s)\n", slot, q.Scenario.Origin(slot), q.Scenario.Religion(slot))
		}
	default:
		fmt.Fprintf(c.out, "Character %d (%s, %s):\n", q.Slot, q.Scenario.Origin(q.Slot), q.Scenario.Religion(q.Slot))
		for _, line := range strings.Split(q.Context, "\n") {
			fmt.Fprintf(c.out, "  │ %s\n", line)
		}
	}
}

func prompt(q extract.Query) string {
	switch q.Kind {
	case extract.QueryName:
		return "Name (as written above): "
	case extract.QueryGender:
		return "Gender (male/female): "
	case extract.QueryCriminal:
		return fmt.Sprintf("Criminal character (1-%d): ", model.Slots)
	}
	return "Answer: "
}

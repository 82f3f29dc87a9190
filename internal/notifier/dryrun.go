package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
)

// DryRunNotifier prints what would be posted without actually posting
type DryRunNotifier struct {
	out   io.Writer
	count int
}

// NewDryRunNotifier creates a new dry-run notifier writing to out, or stdout when nil
func NewDryRunNotifier(out io.Writer) *DryRunNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &DryRunNotifier{out: out}
}

// Notify prints the message that would be posted
func (n *DryRunNotifier) Notify(_ context.Context, text string) error {
	n.count++
	fmt.Fprintf(n.out, "--- Message %d ---\n", n.count)
	fmt.Fprintln(n.out, text)
	fmt.Fprintf(n.out, "\n(Length: %d characters)\n\n", len(text))
	return nil
}

// Package console contains the stdout notifier used by the CLI. Platform
// notification transports implement the same port.
package console

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/example/flowtrack/internal/ports/secondary"
)

// Notifier implements secondary.Notifier by printing to a writer.
type Notifier struct {
	out io.Writer
}

// NewNotifier creates a console notifier writing to out.
func NewNotifier(out io.Writer) *Notifier {
	return &Notifier{out: out}
}

// Notify prints the notification.
func (n *Notifier) Notify(ctx context.Context, note secondary.Notification) error {
	fmt.Fprintf(n.out, "🔔 %s: %s (at %s)\n", note.Title, note.Body, note.FiredAt.Format("15:04 MST"))

	if len(note.Variables) > 0 {
		keys := make([]string, 0, len(note.Variables))
		for k := range note.Variables {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(n.out, "   %s: %s\n", k, note.Variables[k])
		}
	}

	return nil
}

// Ensure Notifier implements the interface
var _ secondary.Notifier = (*Notifier)(nil)

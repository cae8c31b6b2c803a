package cli

import (
	"fmt"
	"io"
	"sync"
)

// termNotifier prints sync notifications as single lines. Errors go to
// errOut.
type termNotifier struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
}

func newTermNotifier(out, errOut io.Writer) *termNotifier {
	return &termNotifier{out: out, errOut: errOut}
}

func (n *termNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.out, msg)
}

func (n *termNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.errOut, "Error:", msg)
}

package bridge

import (
	"os/exec"
	"sync"
)

// procTable tracks live bridge processes by invocation id so shutdown can
// terminate whatever is still running.
type procTable struct {
	mu    sync.Mutex
	procs map[string]*exec.Cmd
}

func newProcTable() *procTable {
	return &procTable{procs: make(map[string]*exec.Cmd)}
}

func (t *procTable) add(id string, cmd *exec.Cmd) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.procs[id] = cmd
}

func (t *procTable) remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.procs, id)
}

func (t *procTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.procs)
}

// killAll signals every tracked process and clears the table, returning how
// many were signaled. Entries whose process never started are skipped.
func (t *procTable) killAll() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for id, cmd := range t.procs {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
			n++
		}
		delete(t.procs, id)
	}
	return n
}

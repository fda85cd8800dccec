package memory

import (
	"context"
	"fmt"
	"sync"

	"pocketspend/internal/core"
	ports "pocketspend/internal/sheets"
)

// Mirror keeps mirrored rows in memory.
type Mirror struct {
	mu   sync.Mutex
	rows [][]string
}

var _ ports.ExpenseMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{}
}

func (m *Mirror) MirrorExpense(_ context.Context, e core.Expense) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, ports.Row(e))
	return fmt.Sprintf("mem:%d", len(m.rows)), nil
}

func (m *Mirror) RemoveExpense(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r[0] == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

// Rows returns a copy of the mirrored rows.
func (m *Mirror) Rows() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

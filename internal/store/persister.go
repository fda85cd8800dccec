package store

import (
	"context"
	"fmt"
	"sync"

	"pocketspend/internal/log"
	"pocketspend/internal/persist"
)

const stateVersion = 0

// persister writes store snapshots to durable storage in the background.
// Each snapshot carries the sequence number of the mutation that produced
// it; a write is skipped when a newer snapshot has already landed.
type persister[T any] struct {
	storage persist.Storage
	key     string
	logger  *log.Logger

	mu      sync.Mutex
	written uint64
	wg      sync.WaitGroup
}

func newPersister[T any](storage persist.Storage, key string, logger *log.Logger) *persister[T] {
	return &persister[T]{storage: storage, key: key, logger: logger}
}

func (p *persister[T]) save(seq uint64, state T) {
	if p.storage == nil {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.mu.Lock()
		defer p.mu.Unlock()
		if seq <= p.written {
			return
		}
		data, err := persist.Encode(state, stateVersion)
		if err == nil {
			err = p.storage.SetItem(context.Background(), p.key, data)
		}
		if err != nil {
			p.logger.Error("Failed to persist state",
				log.FieldStorageKey, p.key,
				log.FieldOperation, log.OpPersist,
				log.FieldError, err)
			return
		}
		p.written = seq
	}()
}

// flush blocks until every scheduled write has finished.
func (p *persister[T]) flush() {
	p.wg.Wait()
}

func (p *persister[T]) load(ctx context.Context) (T, bool, error) {
	var zero T
	if p.storage == nil {
		return zero, false, nil
	}
	data, ok, err := p.storage.GetItem(ctx, p.key)
	if err != nil || !ok {
		return zero, false, err
	}
	env, err := persist.Decode[T](data)
	if err != nil {
		return zero, false, fmt.Errorf("rehydrate %s: %w", p.key, err)
	}
	return env.State, true, nil
}

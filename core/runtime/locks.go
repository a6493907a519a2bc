package runtime

import (
	"bytes"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// lockTable hands out one read/write lock per account key. Writable accounts
// are held exclusively and read-only accounts are shared.
type lockTable struct {
	mu    sync.Mutex
	locks map[solana.PublicKey]*sync.RWMutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[solana.PublicKey]*sync.RWMutex)}
}

func (t *lockTable) get(key solana.PublicKey) *sync.RWMutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[key]
	if !ok {
		l = new(sync.RWMutex)
		t.locks[key] = l
	}
	return l
}

// acquire locks every key in byte order so that two transactions touching
// the same accounts can never deadlock. The returned func releases them.
func (t *lockTable) acquire(writable map[solana.PublicKey]bool) func() {
	keys := make([]solana.PublicKey, 0, len(writable))
	for key := range writable {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })

	release := make([]func(), 0, len(keys))
	for _, key := range keys {
		l := t.get(key)
		if writable[key] {
			l.Lock()
			release = append(release, l.Unlock)
		} else {
			l.RLock()
			release = append(release, l.RUnlock)
		}
	}
	return func() {
		for i := len(release) - 1; i >= 0; i-- {
			release[i]()
		}
	}
}

package services

import "sync"

// keyedLocks сериализует записи по одной сущности (цель или пользователь),
// не блокируя работу с другими. Карта не чистится: ключей столько же,
// сколько активных сущностей, для одного инстанса этого достаточно.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[uint]*sync.Mutex)}
}

func (k *keyedLocks) get(id uint) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()

	l, ok := k.locks[id]
	if !ok {
		l = &sync.Mutex{}
		k.locks[id] = l
	}
	return l
}

func (k *keyedLocks) Lock(id uint) {
	k.get(id).Lock()
}

func (k *keyedLocks) Unlock(id uint) {
	k.get(id).Unlock()
}

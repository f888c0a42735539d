package lock

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/Alquiler-api/internal/application/ports"
)

var _ ports.Locker = (*LocalLocker)(nil)

// LocalLocker mutex por clave dentro del proceso; se usa cuando no hay Redis configurado.
// El ttl se ignora: la clave se libera al terminar fn.
type LocalLocker struct {
	mu   sync.Mutex
	keys map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker crea un locker en memoria.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{keys: map[string]*keyLock{}}
}

func (l *LocalLocker) WithLock(ctx context.Context, key string, _ time.Duration, fn func(context.Context) error) error {
	kl := l.acquireRef(key)
	defer l.releaseRef(key, kl)

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-kl.ch }()
	return fn(ctx)
}

func (l *LocalLocker) acquireRef(key string) *keyLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl, ok := l.keys[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.keys[key] = kl
	}
	kl.refs++
	return kl
}

func (l *LocalLocker) releaseRef(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.keys, key)
	}
}

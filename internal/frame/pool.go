package frame

import (
	"fmt"
	"sync"
)

// Pool предоставляет повторное использование буферов кадров одного размера,
// чтобы снимки регионов и рабочие кадры не аллоцировались на каждый шаг.
type Pool struct {
	pools map[string]*sync.Pool
	mu    sync.RWMutex
}

var globalPool = NewPool()

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{pools: make(map[string]*sync.Pool)}
}

// Get возвращает кадр из глобального пула или создает новый.
// Содержимое возвращенного кадра не определено.
func Get(width, height, channels int) *Frame {
	return globalPool.Get(width, height, channels)
}

// Put возвращает кадр в глобальный пул.
func Put(f *Frame) {
	globalPool.Put(f)
}

func poolKey(width, height, channels int) string {
	return fmt.Sprintf("%dx%dx%d", width, height, channels)
}

func (p *Pool) Get(width, height, channels int) *Frame {
	key := poolKey(width, height, channels)
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		// Double check
		pool, exists = p.pools[key]
		if !exists {
			pool = &sync.Pool{
				New: func() interface{} {
					return New(width, height, channels)
				},
			}
			p.pools[key] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(*Frame)
}

func (p *Pool) Put(f *Frame) {
	if f.Empty() {
		return
	}
	key := poolKey(f.Width, f.Height, f.Channels)
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if exists {
		pool.Put(f)
	}
}

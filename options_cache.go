package opts

import "sync"

// ProgramCache stores compiled expression programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// WithProgramCache registers a program cache used by Expr defaults.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *optionsConfig) {
		cfg.programCache = cache
	}
}

// MemoryProgramCache is an unbounded ProgramCache safe for concurrent use, so
// one instance can back every container built by a program.
type MemoryProgramCache struct {
	programs sync.Map
}

// NewMemoryProgramCache returns an empty MemoryProgramCache.
func NewMemoryProgramCache() *MemoryProgramCache {
	return &MemoryProgramCache{}
}

func (m *MemoryProgramCache) Get(key string) (any, bool) {
	return m.programs.Load(key)
}

func (m *MemoryProgramCache) Set(key string, value any) {
	m.programs.Store(key, value)
}

// cachedAs returns the program stored under key when it has type T.
func cachedAs[T any](cache ProgramCache, key string) (T, bool) {
	var zero T
	value, ok := cache.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := value.(T)
	return typed, ok
}

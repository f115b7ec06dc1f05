package engine

import "context"

// RemoteLazyLoader defers the loading of a remote map of entities until
// the first GetEntity call. A successful load is memoized, even when the
// map is empty. A failed load is not, and is returned as is.
type RemoteLazyLoader[T any] struct {
	load   func(ctx context.Context) (map[string]T, error)
	entity map[string]T
	loaded bool
}

func NewRemoteLazyLoader[T any](load func(ctx context.Context) (map[string]T, error)) *RemoteLazyLoader[T] {
	return &RemoteLazyLoader[T]{load: load}
}

func (l *RemoteLazyLoader[T]) GetEntity(ctx context.Context) (map[string]T, error) {
	if l.loaded {
		return l.entity, nil
	}
	entity, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		entity = make(map[string]T)
	}
	l.entity = entity
	l.loaded = true
	return l.entity, nil
}

func (l *RemoteLazyLoader[T]) IsLoaded() bool {
	return l.loaded
}

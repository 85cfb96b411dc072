package functions

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuiltins(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, RegisterBuiltins(r))
	return r
}

func TestRegistry_RegisterAndCall(t *testing.T) {
	r := NewRegistry()
	err := r.Register(Info{Name: "greet.hello", Params: []Param{{Name: "name"}}}, func(_ context.Context, args Args) (interface{}, error) {
		name, err := args.RequiredString("name")
		if err != nil {
			return nil, err
		}
		return "hello " + name, nil
	})
	require.NoError(t, err)

	info, ok := r.Lookup("greet/hello")
	require.True(t, ok)
	assert.Equal(t, "greet/hello", info.Name)
	assert.Equal(t, "greet/hello(name)", info.Signature())

	got, err := r.Call(context.Background(), "greet.hello", Args{"name": "ops"})
	require.NoError(t, err)
	assert.Equal(t, "hello ops", got)

	_, err = r.Call(context.Background(), "greet/hello", nil)
	assert.True(t, errors.Is(err, ErrInvalidArgs))
}

func TestRegistry_RegisterRejectsEmpty(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(Info{Name: " ./ "}, func(context.Context, Args) (interface{}, error) { return nil, nil }))
	assert.Error(t, r.Register(Info{Name: "x"}, nil))
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_CallUnknown(t *testing.T) {
	_, err := newBuiltins(t).Call(context.Background(), "math/divide", Args{"a": 1, "b": 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRegistry_CallCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newBuiltins(t).Call(ctx, "math/add", Args{"a": 1, "b": 2})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegistry_ListSorted(t *testing.T) {
	r := newBuiltins(t)
	names := r.Names()
	assert.Equal(t, r.Len(), len(names))
	assert.Equal(t, "math/add", names[0])
	assert.IsNonDecreasing(t, names)

	info, ok := r.Lookup("text/summarize")
	require.True(t, ok)
	assert.Equal(t, "text/summarize(text, max_length=100)", info.Signature())
}

func TestRegistry_ConcurrentRegisterAndCall(t *testing.T) {
	r := newBuiltins(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = r.Register(Info{Name: "noop"}, func(context.Context, Args) (interface{}, error) { return true, nil })
		}()
		go func() {
			defer wg.Done()
			got, err := r.Call(context.Background(), "math/multiply", Args{"a": 6, "b": 7})
			assert.NoError(t, err)
			assert.Equal(t, 42.0, got)
		}()
	}
	wg.Wait()
	_, ok := r.Lookup("noop")
	assert.True(t, ok)
}

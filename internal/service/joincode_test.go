package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var joinCodePattern = regexp.MustCompile(`^[A-Z0-9]{5}$`)

type codeRegistry struct {
	mu    sync.Mutex
	codes map[string]bool
}

func (r *codeRegistry) inUse(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.codes[code], nil
}

func (r *codeRegistry) hold(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes[code] = true
}

func TestRandomJoinCodeFormat(t *testing.T) {
	for i := 0; i < 1000; i++ {
		code, err := randomJoinCode()
		require.NoError(t, err)
		assert.Regexp(t, joinCodePattern, code)
	}
}

func TestGenerateNeverRepeatsAnOpenCode(t *testing.T) {
	registry := &codeRegistry{codes: map[string]bool{}}
	g := NewJoinCodeGenerator(registry.inUse, 100)

	// A small code space forces frequent collisions.
	rng := rand.New(rand.NewSource(7))
	g.draw = func() (string, error) {
		return fmt.Sprintf("A%04d", rng.Intn(20000)), nil
	}

	for i := 0; i < 10000; i++ {
		code, err := g.Generate(context.Background())
		require.NoError(t, err)
		require.False(t, registry.codes[code], "duplicate code %s", code)
		registry.hold(code)
	}
	assert.Len(t, registry.codes, 10000)
}

func TestGenerateGivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	g := NewJoinCodeGenerator(func(context.Context, string) (bool, error) {
		attempts++
		return true, nil
	}, 5)

	_, err := g.Generate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrJoinCodeExhausted)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, 5, attempts)
}

func TestGenerateDefaultsAttempts(t *testing.T) {
	g := NewJoinCodeGenerator(nil, 0)
	assert.Equal(t, DefaultJoinCodeAttempts, g.maxAttempts)
}

func TestGenerateReturnsStoreErrors(t *testing.T) {
	boom := errors.New("store unavailable")
	g := NewJoinCodeGenerator(func(context.Context, string) (bool, error) {
		return false, boom
	}, 3)

	_, err := g.Generate(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, KindInternal, KindOf(err))
}

package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	joinCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	joinCodeLength   = 5

	DefaultJoinCodeAttempts = 20
)

// JoinCodeGenerator draws short codes and rejects ones held by a
// non-completed session.
type JoinCodeGenerator struct {
	inUse       func(ctx context.Context, code string) (bool, error)
	draw        func() (string, error)
	maxAttempts int
}

// NewJoinCodeGenerator creates a generator checking uniqueness through inUse
func NewJoinCodeGenerator(inUse func(ctx context.Context, code string) (bool, error), maxAttempts int) *JoinCodeGenerator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultJoinCodeAttempts
	}
	return &JoinCodeGenerator{
		inUse:       inUse,
		draw:        randomJoinCode,
		maxAttempts: maxAttempts,
	}
}

// Generate returns a code unused by any non-completed session, or
// ErrJoinCodeExhausted after maxAttempts collisions.
func (g *JoinCodeGenerator) Generate(ctx context.Context) (string, error) {
	for attempts := 0; attempts < g.maxAttempts; attempts++ {
		code, err := g.draw()
		if err != nil {
			return "", fmt.Errorf("draw join code: %w", err)
		}

		exists, err := g.inUse(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check join code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}

	return "", fmt.Errorf("after %d attempts: %w", g.maxAttempts, ErrJoinCodeExhausted)
}

// randomJoinCode picks each symbol uniformly from the alphabet
func randomJoinCode() (string, error) {
	max := big.NewInt(int64(len(joinCodeAlphabet)))
	code := make([]byte, joinCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = joinCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

package cascade

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstStopsAtFirstSuccess(t *testing.T) {
	var calls []string
	step := func(name, value string, err error) Strategy[string] {
		return Strategy[string]{Name: name, Run: func(context.Context) (string, error) {
			calls = append(calls, name)
			return value, err
		}}
	}

	out := First(context.Background(),
		step("empty", "", nil),
		step("broken", "", errors.New("boom")),
		step("winner", "https://acme.io", nil),
		step("never", "https://other.io", nil),
	)

	assert.Equal(t, "https://acme.io", out.Value)
	assert.Equal(t, "winner", out.Strategy)
	assert.Equal(t, []string{"empty", "broken", "winner"}, calls)
	assert.Contains(t, out.Errors, "broken")
}

func TestFirstHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	out := First(ctx, Strategy[string]{Name: "a", Run: func(context.Context) (string, error) {
		called = true
		return "x", nil
	}})
	assert.False(t, called)
	assert.Empty(t, out.Value)
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", FirstNonEmpty("", "b", "c"))
	assert.Equal(t, "", FirstNonEmpty("", ""))
}

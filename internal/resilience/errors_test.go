package resilience

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "deadline" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit", NewTransientError(errors.New("x"), 503), true},
		{"wrapped explicit", eris.Wrap(NewTransientError(errors.New("x"), 429), "call"), true},
		{"fmt wrapped explicit", fmt.Errorf("call: %w", NewTransientError(errors.New("x"), 429)), true},
		{"connection reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"connection refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"net timeout", timeoutErr{}, true},
		{"message pattern", errors.New("read tcp: i/o timeout"), true},
		{"plain", errors.New("invalid api key"), false},
		{"context canceled", context.Canceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	t.Parallel()

	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "%d", code)
	}
	for _, code := range []int{200, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "%d", code)
	}
}

func TestTransientError(t *testing.T) {
	t.Parallel()

	inner := errors.New("rate limited")
	te := NewTransientError(inner, 429)
	assert.Equal(t, "rate limited", te.Error())
	assert.ErrorIs(t, te, inner)
	assert.Equal(t, 429, te.StatusCode)
}

func TestClassify(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "transient", Classify(NewTransientError(errors.New("x"), 0)))
	assert.Equal(t, "permanent", Classify(errors.New("bad input")))
}

package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/multierr"
)

func TestCloseAllKeepsEveryFailure(t *testing.T) {
	bootErr := errors.New("backend unreachable")
	redisErr := errors.New("redis close failed")
	var calls int
	closers := []func() error{
		func() error { calls++; return redisErr },
		func() error { calls++; return nil },
	}

	err := closeAll(bootErr, closers)
	assert.Equal(t, 2, calls)
	assert.ErrorIs(t, err, bootErr)
	assert.ErrorIs(t, err, redisErr)
	assert.Len(t, multierr.Errors(err), 2)
}

func TestCloseAllWithoutFailures(t *testing.T) {
	assert.NoError(t, closeAll(nil, []func() error{func() error { return nil }}))
}

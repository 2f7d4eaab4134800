package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumenter_RunPropagatesResult(t *testing.T) {
	instr, err := NewInstrumenter("ruleout-test")
	require.NoError(t, err)

	called := false
	err = instr.Run(context.Background(), "recording.process", func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, called)

	boom := errors.New("boom")
	err = instr.Run(context.Background(), "recording.process", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

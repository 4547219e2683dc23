package main

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestShutdownErr(t *testing.T) {
	require.NoError(t, shutdownErr(nil))
	require.NoError(t, shutdownErr(context.Canceled))
	require.NoError(t, shutdownErr(errors.Wrapf(context.Canceled, "applying state change %d", 3)))

	boom := errors.New("listen tcp: address in use")
	require.Equal(t, boom, shutdownErr(boom))
	require.ErrorIs(t, shutdownErr(errors.Wrap(context.DeadlineExceeded, "store")), context.DeadlineExceeded)
}

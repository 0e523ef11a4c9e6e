package render

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestChainErrorVisibleToStandardIs(t *testing.T) {
	err := chainError(errBoom, "create swapchain")

	require.True(t, stderrors.Is(err, ErrSurfaceChainCreation))
	require.True(t, stderrors.Is(err, errBoom))
	require.True(t, errors.Is(err, ErrSurfaceChainCreation))
	require.True(t, errors.Is(err, errBoom))
	require.False(t, stderrors.Is(err, ErrExtensionQuery))
	require.Equal(t, "create swapchain: boom", err.Error())
}

func TestClassifySurvivesWrapping(t *testing.T) {
	err := errors.Wrap(Classify(errBoom, ErrOutOfDate), "draw")

	require.True(t, stderrors.Is(err, ErrOutOfDate))
	require.True(t, errors.Is(err, ErrOutOfDate))
	require.Equal(t, "draw: boom", err.Error())
	require.Contains(t, fmt.Sprintf("%+v", err), "classified as: swapchain out of date")
}

func TestClassifyNil(t *testing.T) {
	require.NoError(t, Classify(nil, ErrOutOfDate))
}

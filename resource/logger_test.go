package resource

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSetLoggerNil(t *testing.T) {
	defer SetLogger(zap.NewNop())

	SetLogger(nil)
	require.NotNil(t, Logger())
	require.NotPanics(t, func() { Logger().Info("after nil logger") })
}

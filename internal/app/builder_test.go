package app_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/watchdag/internal/app"
)

func TestNewApp_WiresComponents(t *testing.T) {
	components, err := app.NewApp()
	require.NoError(t, err)
	require.NotNil(t, components)
	require.NotNil(t, components.App)
	require.NotNil(t, components.Logger)
}

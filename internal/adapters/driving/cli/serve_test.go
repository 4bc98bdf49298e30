package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCmd_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("addr")
	require.NotNil(t, flag)
	assert.Equal(t, "127.0.0.1:8080", flag.DefValue)
}

func TestServeCmd_ErrorsWithoutServices(t *testing.T) {
	defer resetServices()()
	SetServices(&Services{})

	_, err := execute(t, "", "serve")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestMCPServeCmd_Flags(t *testing.T) {
	flag := mcpServeCmd.Flags().Lookup("port")
	require.NotNil(t, flag)
	assert.Equal(t, "0", flag.DefValue)
}

func TestMCPServeCmd_ErrorsWithoutQueryService(t *testing.T) {
	defer resetServices()()
	SetServices(&Services{})

	_, err := execute(t, "", "mcp", "serve")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "validating ports")
}

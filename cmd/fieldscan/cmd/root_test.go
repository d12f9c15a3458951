package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	assert.NotNil(t, rootCmd)
	assert.Equal(t, "fieldscan", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootCommandHelp(t *testing.T) {
	output, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"--help"})
	require.NoError(t, err)

	assert.Contains(t, output, "form fields")
	assert.Contains(t, output, "Available Commands:")
	assert.Contains(t, output, "Usage:")

	// Reset so later tests that run the root command don't see help again.
	require.NoError(t, rootCmd.Flags().Set("help", "false"))
}

func TestRootCommandVersion(t *testing.T) {
	output, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"--version"})
	require.NoError(t, err)

	assert.Contains(t, output, "fieldscan version")

	// Reset so later tests that run the bare root command show help again.
	require.NoError(t, rootCmd.PersistentFlags().Set("version", "false"))
}

func TestRootCommandSubcommands(t *testing.T) {
	subcommands := rootCmd.Commands()
	commandNames := make([]string, len(subcommands))
	for i, subcmd := range subcommands {
		commandNames[i] = subcmd.Name()
	}

	expectedCommands := []string{"detect", "eval", "batch", "annotate", "serve", "config"}
	for _, expected := range expectedCommands {
		assert.Contains(t, commandNames, expected, "Expected subcommand '%s' not found", expected)
	}
}

func TestRootCommandInvalidFlag(t *testing.T) {
	_, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"--invalid-flag"})
	require.Error(t, err)
}

// Helper function to execute command and capture output.
func executeCommandAndCaptureOutput(t *testing.T, cmd *cobra.Command, args []string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return strings.TrimSpace(buf.String()), err
}

package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStep_IsFatal verifies that only lint and install failures are
// downgraded to warnings.
func TestStep_IsFatal(t *testing.T) {
	tests := []struct {
		step  Step
		fatal bool
	}{
		{StepProvision, true},
		{StepCompile, true},
		{StepLint, false},
		{StepPackage, true},
		{StepInstall, false},
	}

	for _, tt := range tests {
		t.Run(tt.step.String(), func(t *testing.T) {
			assert.Equal(t, tt.fatal, tt.step.IsFatal())
		})
	}
}

// TestKindForStep checks the step-to-taxonomy mapping.
func TestKindForStep(t *testing.T) {
	tests := []struct {
		step     Step
		expected ErrorKind
	}{
		{StepProvision, KindProvisioning},
		{StepCompile, KindBuild},
		{StepLint, KindQuality},
		{StepPackage, KindPackaging},
		{StepInstall, KindInstall},
		{Step("unknown"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.step.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, KindForStep(tt.step))
		})
	}
}

// TestCLIError_Error verifies the message format with and without an
// underlying error.
func TestCLIError_Error(t *testing.T) {
	plain := WrapCLIError(KindBuild, "compilation failed", nil)
	assert.Equal(t, "compilation failed", plain.Error())
	assert.Equal(t, ExitGeneralError, plain.Code)

	wrapped := WrapCLIError(KindSettings, "invalid configuration", fmt.Errorf("bad suffix"))
	assert.Equal(t, "invalid configuration: bad suffix", wrapped.Error())
}

// TestCLIError_Unwrap ensures errors.Is and errors.As see through CLIError.
func TestCLIError_Unwrap(t *testing.T) {
	sentinel := errors.New("boom")
	err := error(WrapCLIError(KindPackaging, "packaging failed", sentinel))

	assert.ErrorIs(t, err, sentinel)

	var cliErr *CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, KindPackaging, cliErr.Kind)
}

// TestUnknownOptionError checks that the offending token is echoed.
func TestUnknownOptionError(t *testing.T) {
	err := UnknownOptionError("--bogus")
	assert.Equal(t, KindConfiguration, err.Kind)
	assert.Equal(t, ExitGeneralError, err.Code)
	assert.Contains(t, err.Error(), "--bogus")
}

func TestCLIError_WithHint(t *testing.T) {
	err := WrapCLIError(KindProvisioning, "failed to install vsce", nil).
		WithHint("npm install -g @vscode/vsce")
	assert.Equal(t, "npm install -g @vscode/vsce", err.Hint)
}

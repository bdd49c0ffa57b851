package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/extpack/internal/model"
)

// TestParseCommandLine covers the word-splitting rules applied to
// configured commands.
func TestParseCommandLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected []string
	}{
		{"simple", "npm run compile", []string{"npm", "run", "compile"}},
		{"extra whitespace", "  vsce   package ", []string{"vsce", "package"}},
		{"double quotes", `vsce package --out "my dir/ext.vsix"`, []string{"vsce", "package", "--out", "my dir/ext.vsix"}},
		{"single quotes", `npm run 'lint:fix'`, []string{"npm", "run", "lint:fix"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			argv, err := ParseCommandLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, argv)
		})
	}
}

// TestParseCommandLine_ExpandsEnv verifies that $VAR references are
// resolved from the process environment.
func TestParseCommandLine_ExpandsEnv(t *testing.T) {
	t.Setenv("EXTPACK_TEST_TARGET", "production")

	argv, err := ParseCommandLine("npm run build:$EXTPACK_TEST_TARGET")
	require.NoError(t, err)
	assert.Equal(t, []string{"npm", "run", "build:production"}, argv)
}

func TestParseCommandLine_Errors(t *testing.T) {
	for _, line := range []string{"", "   ", `vsce "package`} {
		t.Run(line, func(t *testing.T) {
			_, err := ParseCommandLine(line)
			assert.Error(t, err)
		})
	}
}

// TestNewCommand verifies that extra arguments are appended unparsed.
func TestNewCommand(t *testing.T) {
	cmd, err := NewCommand(model.StepInstall, "/work", "code --install-extension", "/work/my ext-1.0.0.vsix")
	require.NoError(t, err)

	assert.Equal(t, model.StepInstall, cmd.Step)
	assert.Equal(t, "/work", cmd.Dir)
	assert.Equal(t, []string{"code", "--install-extension", "/work/my ext-1.0.0.vsix"}, cmd.Argv)
	assert.Equal(t, "code --install-extension /work/my ext-1.0.0.vsix", cmd.String())
}

// TestQuoteArg verifies that quoted words survive ParseCommandLine intact.
func TestQuoteArg(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"foo-1.0.0.vsix", "foo-1.0.0.vsix"},
		{"my ext-1.0.0.vsix", "'my ext-1.0.0.vsix'"},
		{"$HOME.vsix", "'$HOME.vsix'"},
		{"", "''"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			quoted := QuoteArg(tt.in)
			assert.Equal(t, tt.expected, quoted)

			argv, err := ParseCommandLine("code " + quoted)
			require.NoError(t, err)
			assert.Equal(t, []string{"code", tt.in}, argv)
		})
	}
}

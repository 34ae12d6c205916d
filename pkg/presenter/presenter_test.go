package presenter

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	skilltypes "github.com/jingkaihe/skillctl/pkg/types/skills"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTerminal() (*Terminal, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewWithOptions(&out, &errOut, ColorNever), &out, &errOut
}

func TestColorModeFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		noColor  string
		envColor string
		expected ColorMode
	}{
		{"NO_COLOR set", "1", "always", ColorNever},
		{"always", "", "always", ColorAlways},
		{"force", "", "force", ColorAlways},
		{"never", "", "never", ColorNever},
		{"off", "", "off", ColorNever},
		{"default", "", "", ColorAuto},
		{"invalid value", "", "sometimes", ColorAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("NO_COLOR")
			if tt.noColor != "" {
				t.Setenv("NO_COLOR", tt.noColor)
			}
			t.Setenv("SKILLCTL_COLOR", tt.envColor)
			assert.Equal(t, tt.expected, colorModeFromEnv())
		})
	}
}

func TestError(t *testing.T) {
	term, out, errOut := newTestTerminal()

	term.Error(errors.New("skill not found: x"), "failed to describe skill")
	assert.Equal(t, "[ERROR] failed to describe skill: skill not found: x\n", errOut.String())

	errOut.Reset()
	term.Error(errors.New("boom"), "")
	assert.Equal(t, "[ERROR] boom\n", errOut.String())

	errOut.Reset()
	term.Error(nil, "ignored")
	assert.Empty(t, errOut.String())
	assert.Empty(t, out.String())
}

func TestStatusStreams(t *testing.T) {
	term, out, errOut := newTestTerminal()

	term.Success("registry written")
	term.Warning("skills directory not found")
	term.Info("fyi")
	term.Section("Skills")
	term.Separator()

	assert.Contains(t, out.String(), "✓ registry written\n")
	assert.Contains(t, out.String(), "fyi\n")
	assert.Contains(t, out.String(), "Skills\n------\n")
	assert.Contains(t, out.String(), strings.Repeat("-", 60))
	assert.Equal(t, "⚠ skills directory not found\n", errOut.String())
}

func TestQuiet(t *testing.T) {
	term, out, errOut := newTestTerminal()
	term.SetQuiet(true)

	term.Success("done")
	term.Warning("careful")
	term.Info("fyi")
	term.Section("Skills")
	term.Separator()
	assert.Empty(t, out.String())
	assert.Empty(t, errOut.String())

	term.Error(errors.New("boom"), "")
	assert.Contains(t, errOut.String(), "boom")

	require.NoError(t, term.JSON(map[string]int{"total": 2}))
	assert.Equal(t, "{\n  \"total\": 2\n}\n", out.String())
}

func TestTable(t *testing.T) {
	term, out, _ := newTestTerminal()

	term.Table([]string{"NAME", "STATUS"}, [][]string{
		{"mock_validator", "ready"},
		{"legacy", "discovered"},
	})

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "NAME            STATUS", lines[0])
	assert.Equal(t, "----            ------", lines[1])
	assert.Equal(t, "mock_validator  ready", lines[2])
	assert.Equal(t, "legacy          discovered", lines[3])
}

func TestResult(t *testing.T) {
	term, out, _ := newTestTerminal()

	ok := skilltypes.Success("mock_validator", skilltypes.Payload{"validation_passed": true})
	ok.Duration = 1500 * time.Microsecond
	term.Result(ok)
	assert.Contains(t, out.String(), "✓ mock_validator SUCCESS (2ms)")
	assert.Contains(t, out.String(), `"validation_passed": true`)

	out.Reset()
	term.Result(skilltypes.Failure("nope", errors.New("skill not found: nope")))
	assert.Equal(t, "✗ nope FAILURE: skill not found: nope\n", out.String())
}

func TestJSONMarshalError(t *testing.T) {
	term, _, _ := newTestTerminal()
	err := term.JSON(make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to marshal output")
}

func TestPackageLevelFunctions(t *testing.T) {
	var out, errOut bytes.Buffer
	restore := SetOutput(&out, &errOut)
	defer restore()

	Error(errors.New("test error"), "error context")
	Success("success message")
	Warning("warning message")
	Info("info message")
	Section("Title")
	Table([]string{"A"}, [][]string{{"1"}})
	Result(skilltypes.Success("s", nil))
	require.NoError(t, JSON([]string{"x"}))
	Separator()

	for _, want := range []string{"success message", "info message", "Title", "1", "✓ s SUCCESS", `"x"`} {
		assert.Contains(t, out.String(), want)
	}
	assert.Contains(t, errOut.String(), "error context: test error")
	assert.Contains(t, errOut.String(), "warning message")

	SetQuiet(true)
	out.Reset()
	Info("should not appear")
	assert.Empty(t, out.String())
}

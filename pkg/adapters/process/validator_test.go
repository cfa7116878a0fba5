package process

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
}

func TestValidator_Validate(t *testing.T) {
	skipOnWindows(t)
	ctx := context.Background()

	t.Run("Exit Zero Passes", func(t *testing.T) {
		v := NewValidator("sh", []string{"-c", "cat >/dev/null"})
		out, err := v.Validate(ctx, "<Student/>")
		require.NoError(t, err)
		assert.True(t, out.Passed)
	})

	t.Run("Non Zero Exit Reports Stderr", func(t *testing.T) {
		v := NewValidator("sh", []string{"-c", "cat >/dev/null; echo 'element not allowed' >&2; exit 3"})
		out, err := v.Validate(ctx, "<Student/>")
		require.NoError(t, err)
		assert.False(t, out.Passed)
		assert.Equal(t, "element not allowed", out.ErrorMessage)
	})

	t.Run("Silent Failure Names Exit Status", func(t *testing.T) {
		v := NewValidator("sh", []string{"-c", "exit 4"})
		out, err := v.Validate(ctx, "x")
		require.NoError(t, err)
		assert.False(t, out.Passed)
		assert.Equal(t, "sh exited with status 4", out.ErrorMessage)
	})

	t.Run("Candidate On Stdin", func(t *testing.T) {
		v := NewValidator("sh", []string{"-c", `grep -q '<Student' || { echo "wrong root" >&2; exit 1; }`})
		out, err := v.Validate(ctx, "<StaffPersonal/>")
		require.NoError(t, err)
		assert.Equal(t, "wrong root", out.ErrorMessage)

		out, err = v.Validate(ctx, "<Student/>")
		require.NoError(t, err)
		assert.True(t, out.Passed)
	})

	t.Run("JSON Verdict Wins", func(t *testing.T) {
		v := NewValidator("sh", []string{"-c", `echo '{"passed": false, "errorMessage": "cvc-pattern-valid"}'`})
		out, err := v.Validate(ctx, "x")
		require.NoError(t, err)
		assert.False(t, out.Passed)
		assert.Equal(t, "cvc-pattern-valid", out.ErrorMessage)
	})

	t.Run("Env Passed Through", func(t *testing.T) {
		v := NewValidator("sh", []string{"-c", `echo "$DATAGEN_ROOT" >&2; exit 1`}, WithEnv(map[string]string{"DATAGEN_ROOT": "StudentPersonal"}))
		out, err := v.Validate(ctx, "x")
		require.NoError(t, err)
		assert.Equal(t, "StudentPersonal", out.ErrorMessage)
	})

	t.Run("Missing Command Is Transport Error", func(t *testing.T) {
		v := NewValidator("datagen-no-such-validator", nil)
		_, err := v.Validate(ctx, "x")
		assert.ErrorContains(t, err, "run datagen-no-such-validator")
	})
}

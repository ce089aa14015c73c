package cli

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/phantom-sandbox/internal/output"
	"github.com/mrz1836/phantom-sandbox/internal/version"
)

// withBuildInfo stamps build values and restores them on cleanup.
func withBuildInfo(t *testing.T, v, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate, origRoot := buildVersion, buildCommit, buildDate, rootCmd.Version
	t.Cleanup(func() {
		buildVersion, buildCommit, buildDate = origVersion, origCommit, origDate
		rootCmd.Version = origRoot
	})
	SetBuildInfo(v, commit, date)
}

// releaseServer serves tag as the latest release.
func releaseServer(t *testing.T, tag string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"tag_name":"` + tag + `","html_url":"https://example.test/releases/` + tag + `"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSetBuildInfo(t *testing.T) {
	withBuildInfo(t, "1.2.3", "abc123", "2026-10-01")
	assert.Equal(t, "1.2.3", rootCmd.Version)
	assert.Equal(t, "abc123", buildCommit)
}

func TestVersion_JSON(t *testing.T) {
	env := setupTestEnv(t, output.FormatJSON)
	withBuildInfo(t, "1.2.3", "abc123", "2026-10-01")

	cmd, buf := env.newCmd()
	require.NoError(t, runVersion(cmd, nil))

	decoded := decodeJSON[map[string]any](t, buf)
	assert.Equal(t, "1.2.3", decoded["version"])
	assert.Equal(t, "abc123", decoded["commit"])
	assert.NotEmpty(t, decoded["go_version"])
	assert.NotContains(t, decoded, "update")
}

func TestVersion_Text(t *testing.T) {
	env := setupTestEnv(t, output.FormatText)
	withBuildInfo(t, "1.2.3", "abc123", "2026-10-01")

	cmd, buf := env.newCmd()
	require.NoError(t, runVersion(cmd, nil))

	text := buf.String()
	assert.Contains(t, text, "sandbox 1.2.3")
	assert.Contains(t, text, "commit: abc123")
	assert.Contains(t, text, "built:  2026-10-01")
}

func TestVersion_Check(t *testing.T) {
	t.Run("NewerJSON", func(t *testing.T) {
		env := setupTestEnv(t, output.FormatJSON)
		withBuildInfo(t, "1.2.3", "", "")
		releaseChecker = version.NewChecker(version.WithBaseURL(releaseServer(t, "v1.3.0").URL))
		versionCheck = true

		cmd, buf := env.newCmd()
		require.NoError(t, runVersion(cmd, nil))

		decoded := decodeJSON[map[string]any](t, buf)
		update, ok := decoded["update"].(map[string]any)
		require.True(t, ok, buf.String())
		assert.Equal(t, "v1.3.0", update["latest"])
		assert.Equal(t, true, update["update_available"])
	})

	t.Run("LatestText", func(t *testing.T) {
		env := setupTestEnv(t, output.FormatText)
		withBuildInfo(t, "1.3.0", "", "")
		releaseChecker = version.NewChecker(version.WithBaseURL(releaseServer(t, "v1.3.0").URL))
		versionCheck = true

		cmd, buf := env.newCmd()
		require.NoError(t, runVersion(cmd, nil))
		assert.Contains(t, buf.String(), "latest release (v1.3.0)")
	})

	t.Run("APIError", func(t *testing.T) {
		env := setupTestEnv(t, output.FormatText)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)
		releaseChecker = version.NewChecker(version.WithBaseURL(srv.URL))
		versionCheck = true

		cmd, _ := env.newCmd()
		err := runVersion(cmd, nil)
		require.ErrorIs(t, err, version.ErrGitHubAPIFailed)
	})
}

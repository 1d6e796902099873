package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestConfig points the CLI at a test store and returns the config
// file path and the token file path.
func writeTestConfig(t *testing.T, baseURL string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	tokenFile := filepath.Join(dir, "token")
	cfgPath := filepath.Join(dir, "config.yaml")

	cfg := fmt.Sprintf(`client:
  api_base_url: %q
  email: alice@example.com
  token_file: %q
`, baseURL, tokenFile)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))
	return cfgPath, tokenFile
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSendCommandDeliversMessage(t *testing.T) {
	var got struct {
		Body           string `json:"message"`
		ConversationID string `json:"id"`
		To             string `json:"to"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sendMessage", r.URL.Path)
		require.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfgPath, tokenFile := writeTestConfig(t, srv.URL)
	require.NoError(t, os.WriteFile(tokenFile, []byte("token-1\n"), 0o600))

	out, err := runCommand(t, "send", "bob@example.com", "hello", "there", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Sent.")
	assert.Equal(t, "hello there", got.Body)
	assert.Equal(t, "bob@example.com", got.To)
	assert.Equal(t, "bob@example.com", got.ConversationID)
}

func TestSendCommandSurfacesRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	cfgPath, tokenFile := writeTestConfig(t, srv.URL)
	require.NoError(t, os.WriteFile(tokenFile, []byte("token-1\n"), 0o600))

	_, err := runCommand(t, "send", "bob@example.com", "hello", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot send a message")
}

func TestLoginCommandSavesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/login", r.URL.Path)
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "alice@example.com", req.Email)
		require.Equal(t, "hunter2", req.Password)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"token": "fresh-token"})
	}))
	defer srv.Close()

	cfgPath, tokenFile := writeTestConfig(t, srv.URL)

	root := newRootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(bytes.NewBufferString("hunter2\n"))
	root.SetArgs([]string{"login", "--config", cfgPath})
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(tokenFile)
	require.NoError(t, err)
	assert.Equal(t, "fresh-token\n", string(data))
}

func TestWatchCommandRequiresLogin(t *testing.T) {
	cfgPath, _ := writeTestConfig(t, "http://127.0.0.1:0")

	_, err := runCommand(t, "watch", "bob@example.com", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

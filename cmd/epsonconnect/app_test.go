package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func newTestServer(t *testing.T, tokenCalls *int32) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/1/printing/oauth2/auth/token":
			atomic.AddInt32(tokenCalls, 1)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "access-1",
				"refresh_token": "refresh-1",
				"expires_in":    3600,
				"subject_id":    "device-1",
			})
		case "/api/1/printing/printers/device-1":
			assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"printer_name": "EP-879A",
				"serial_no":    "X123",
				"ec_connected": true,
			})
		case "/api/1/scanning/scanners/device-1/destinations":
			if r.Method == http.MethodPut {
				var dest map[string]string
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&dest))
				assert.Equal(t, map[string]string{
					"id":          "d1",
					"alias_name":  "archive",
					"type":        "url",
					"destination": "https://archive.example.com",
				}, dest)
				w.WriteHeader(http.StatusNoContent)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"destinations": []map[string]any{
					{"id": "d1", "alias_name": "office", "type": "mail", "destination": "office@example.com"},
				},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	return server
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := newApp("test", &stdout, &stderr)
	err := app.Run(context.Background(), append([]string{"epsonconnect"}, args...))
	return stdout.String(), err
}

func TestApp_Info(t *testing.T) {
	var tokenCalls int32
	server := newTestServer(t, &tokenCalls)

	out, err := runApp(t,
		"--email", "printer@example.com",
		"--client-id", "id",
		"--client-secret", "secret",
		"--base-url", server.URL,
		"info",
	)
	require.NoError(t, err)

	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "EP-879A", info["printer_name"])
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls))
}

func TestApp_ScanList(t *testing.T) {
	var tokenCalls int32
	server := newTestServer(t, &tokenCalls)

	out, err := runApp(t,
		"--email", "printer@example.com",
		"--client-id", "id",
		"--client-secret", "secret",
		"--base-url", server.URL,
		"scan", "list",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "office@example.com")
}

func TestApp_ScanUpdate(t *testing.T) {
	var tokenCalls int32
	server := newTestServer(t, &tokenCalls)

	_, err := runApp(t,
		"--email", "printer@example.com",
		"--client-id", "id",
		"--client-secret", "secret",
		"--base-url", server.URL,
		"scan", "update", "--type", "url", "d1", "archive", "https://archive.example.com",
	)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls))

	_, err = runApp(t, "scan", "update", "d1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update requires an ID")
}

func TestApp_MissingCredentials(t *testing.T) {
	t.Setenv("EPSON_CONNECT_API_PRINTER_EMAIL", "")
	t.Setenv("EPSON_CONNECT_API_CLIENT_ID", "")
	t.Setenv("EPSON_CONNECT_API_CLIENT_SECRET", "")

	_, err := runApp(t, "info")
	require.Error(t, err)

	exitErr, ok := err.(cli.ExitCoder)
	require.True(t, ok)
	assert.Equal(t, 2, exitErr.ExitCode())
	assert.Contains(t, err.Error(), "printer email cannot be empty")
}

func TestApp_PrintRequiresFile(t *testing.T) {
	_, err := runApp(t, "print")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one file")
}

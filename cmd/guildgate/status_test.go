// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GuildGate Contributors

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// healthServer serves the probe endpoints with configurable readiness.
func healthServer(t *testing.T, ready bool) string {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/healthz/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if ready {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestStatus_Healthy(t *testing.T) {
	addr := healthServer(t, true)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"status", "--metrics-addr", addr})

	require.NoError(t, cmd.Execute())
	output := buf.String()
	assert.Contains(t, output, "live:  true")
	assert.Contains(t, output, "ready: true")
}

func TestStatus_NotReady(t *testing.T) {
	addr := healthServer(t, false)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"status", "--metrics-addr", addr})

	require.Error(t, cmd.Execute())
	assert.Contains(t, buf.String(), "ready: false")
}

func TestStatus_JSONOutput(t *testing.T) {
	addr := healthServer(t, true)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"status", "--metrics-addr", addr, "--json"})

	require.NoError(t, cmd.Execute())

	var status ServiceStatus
	require.NoError(t, json.Unmarshal(buf.Bytes(), &status))
	assert.Equal(t, addr, status.Addr)
	assert.True(t, status.Live)
	assert.True(t, status.Ready)
}

func TestStatus_Unreachable(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	// Reserved TEST-NET address, nothing listens here.
	cmd.SetArgs([]string{"status", "--metrics-addr", "192.0.2.1:1"})

	require.Error(t, cmd.Execute())
	assert.Contains(t, buf.String(), "error:")
}

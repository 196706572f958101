package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

func Test_makeHostName(t *testing.T) {
	opts.Notify.HostName = "test"
	assert.Equal(t, "test", makeHostName())

	opts.Notify.HostName = ""
	exp, err := os.Hostname()
	require.NoError(t, err)
	assert.Equal(t, exp, makeHostName())
}

func Test_makeNotifier(t *testing.T) {
	opts.Notify.Destinations = nil
	opts.Notify.From = ""
	assert.Nil(t, makeNotifier())

	opts.Notify.Destinations = []string{"mailto:test@example.com"}
	notif := makeNotifier()
	require.NotNil(t, notif)
	assert.Equal(t, "ardora@"+makeHostName(), opts.Notify.From,
		"side effect of creating notifier with empty From is setting the From based on hostname")
	opts.Notify.Destinations, opts.Notify.From = nil, ""
}

func Test_setupLogsWithLogsDisabled(t *testing.T) {
	opts.Log.Enabled = false
	assert.Equal(t, os.Stdout, setupLogs())
}

func Test_setupLogsToFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "ardora.log")

	opts.Log.Enabled = true
	opts.Log.Filename = fname
	opts.Log.MaxSize = 100
	opts.Log.MaxBackups = 7
	opts.Log.MaxAge = 0
	opts.Log.EnabledCompress = false
	defer func() {
		opts.Log.Enabled, opts.Log.Filename = false, ""
		setupLogs()
	}()

	out := setupLogs()
	assert.IsType(t, &lumberjack.Logger{}, out)

	logger := out.(*lumberjack.Logger)
	assert.Equal(t, fname, logger.Filename)
	assert.Equal(t, 100, logger.MaxSize)
	assert.Equal(t, 7, logger.MaxBackups)
	assert.Equal(t, 0, logger.MaxAge)
	assert.False(t, logger.Compress)
}

func Test_run(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	opts.Listen = addr
	opts.DB = filepath.Join(t.TempDir(), "ardora.db")
	opts.Concurrency = 2
	opts.RateLimit = 0
	opts.Backup.Schedule = "@daily"
	opts.Backup.Dir = t.TempDir()
	defer func() { opts.Backup.Schedule = "" }()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/ping")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	req, err := http.NewRequest(http.MethodPost, "http://"+addr+"/api/v1/add_ardora",
		strings.NewReader(`{"course":10,"name":"Crossword","ardora_id":"123456"}`))
	require.NoError(t, err)
	req.Header.Set("X-Ardora-User", "5")
	req.Header.Set("X-Ardora-Roles", "teacher")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":true`)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop")
	}
}

func Test_runBadSchedule(t *testing.T) {
	opts.DB = filepath.Join(t.TempDir(), "ardora.db")
	opts.Backup.Schedule = "not a spec"
	defer func() { opts.Backup.Schedule = "" }()
	err := run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backup scheduler")
}

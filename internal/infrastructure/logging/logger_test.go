package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Output: &buf})
	require.NoError(t, err)
	require.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("cycle_id", "abc").Info("cycle applied")
	require.Contains(t, buf.String(), "cycle applied")
	require.Contains(t, buf.String(), "abc")
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	require.Error(t, err)
}

func TestNew_WritesToFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.log")
	var buf bytes.Buffer
	logger, err := New(Options{File: file, Output: &buf})
	require.NoError(t, err)

	logger.Warn("rate limited")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Contains(t, string(data), "rate limited")
}

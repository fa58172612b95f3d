package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithSessionID(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	WithSessionID(log, "ABCD1234").Info("turn started")

	assert.Contains(t, buf.String(), "session_id=ABCD1234")
	assert.Contains(t, buf.String(), "turn started")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	WithError(log, errors.New("connection refused")).Error("storage unavailable")

	assert.Contains(t, buf.String(), "connection refused")
	assert.Contains(t, buf.String(), "storage unavailable")
}

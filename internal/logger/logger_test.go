package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicerecon/internal/config"
	"invoicerecon/internal/logger"
)

func TestNew_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l, err := logger.New(config.LogConfig{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())

	logger.Component(l, "batch").Info("processing")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "batch", line["component"])
	assert.Equal(t, "processing", line["msg"])
}

func TestNew_Invalid(t *testing.T) {
	_, err := logger.New(config.LogConfig{Level: "loud"}, nil)
	assert.Error(t, err)

	_, err = logger.New(config.LogConfig{Level: "info", Format: "xml"}, nil)
	assert.Error(t, err)
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
)

func TestCustomHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := &log.Logger{Handler: &CustomHandler{Writer: &buf}, Level: log.DebugLevel}

	logger.WithFields(log.Fields{"name": "historical", "rows": 42}).
		WithError(errors.New("boom")).
		Warn("snapshot unusable")

	line := buf.String()
	assert.Contains(t, line, " W snapshot unusable")
	assert.Contains(t, line, "error=boom name=historical rows=42")
	assert.Equal(t, byte('\n'), line[len(line)-1])
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		env  string
		want log.Level
	}{
		{"", log.ErrorLevel},
		{"debug", log.DebugLevel},
		{"WARN", log.WarnLevel},
		{"bogus", log.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("PROPCACHE_LOG", tt.env)
			InitLogger()
			logger, ok := log.Log.(*log.Logger)
			assert.True(t, ok)
			assert.Equal(t, tt.want, logger.Level)
		})
	}
}

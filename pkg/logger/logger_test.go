package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{" WARN ", logrus.WarnLevel},
		{"", logrus.InfoLevel},
		{"loud", logrus.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.input), tt.input)
	}
}

func TestLogStep(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(logrus.DebugLevel)
	l.SetOutput(&buf)

	err := l.LogStep(l.WithScan("scan-1", "AMASS"), "pull", func() error {
		return errors.New("registry unreachable")
	})

	assert.EqualError(t, err, "registry unreachable")
	out := buf.String()
	assert.Contains(t, out, "Step started")
	assert.Contains(t, out, "Step failed")
	assert.Contains(t, out, "step=pull")
	assert.Contains(t, out, "scan_id=scan-1")
}

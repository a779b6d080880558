package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestLoggerLevels(t *testing.T) {
	color.NoColor = true

	tests := []struct {
		name    string
		logger  func(out, err *bytes.Buffer) Logger
		wantOut string
		wantErr string
	}{
		{
			name:    "quiet",
			logger:  func(out, err *bytes.Buffer) Logger { return Logger{Out: out, Err: err} },
			wantOut: "",
			wantErr: "[warn] warn\n",
		},
		{
			name:    "verbose",
			logger:  func(out, err *bytes.Buffer) Logger { return Logger{Verbose: true, Out: out, Err: err} },
			wantOut: "[info] info 1\n",
			wantErr: "[warn] warn\n",
		},
		{
			name:    "debug",
			logger:  func(out, err *bytes.Buffer) Logger { return Logger{Debug: true, Out: out, Err: err} },
			wantOut: "[info] info 1\n[debug] debug\n",
			wantErr: "[warn] warn\n[error] failed\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			l := tt.logger(&out, &errOut)
			l.Infof("info %d", 1)
			l.Debugf("debug")
			l.Warnf("warn")
			l.Errorf("failed")

			if out.String() != tt.wantOut {
				t.Errorf("stdout = %q, want %q", out.String(), tt.wantOut)
			}
			if errOut.String() != tt.wantErr {
				t.Errorf("stderr = %q, want %q", errOut.String(), tt.wantErr)
			}
		})
	}
}

func TestErrorfAndReturn(t *testing.T) {
	var errOut bytes.Buffer
	l := Logger{Err: &errOut}

	err := l.ErrorfAndReturn("open %s", "bucket")
	if err == nil || err.Error() != "open bucket" {
		t.Fatalf("err = %v, want open bucket", err)
	}
	if strings.Contains(errOut.String(), "bucket") {
		t.Error("errors are only printed in debug mode")
	}
}

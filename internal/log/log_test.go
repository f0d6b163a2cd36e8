package log

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestHostLevel(t *testing.T) {
	tests := []struct {
		in      int
		want    zapcore.Level
		wantErr bool
	}{
		{10, zapcore.DebugLevel, false},
		{20, zapcore.InfoLevel, false},
		{30, zapcore.WarnLevel, false},
		{40, zapcore.ErrorLevel, false},
		{50, zapcore.DPanicLevel, false},
		{5, zapcore.DebugLevel, false},
		{0, 0, true},
		{-10, 0, true},
	}

	for _, tt := range tests {
		got, err := HostLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("HostLevel(%d) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("HostLevel(%d) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetLevel(t *testing.T) {
	if err := Init(false); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if Level() != zapcore.InfoLevel {
		t.Errorf("Level() = %v after Init(false)", Level())
	}

	if err := SetLevel(10); err != nil {
		t.Fatalf("SetLevel(10) error = %v", err)
	}
	if !GetZapLogger().Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug not enabled after SetLevel(10)")
	}

	if err := SetLevel(40); err != nil {
		t.Fatalf("SetLevel(40) error = %v", err)
	}
	if GetZapLogger().Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn enabled after SetLevel(40)")
	}

	if err := SetLevel(0); err == nil {
		t.Error("SetLevel(0) error = nil")
	}
}

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Faultbox/multires/internal/config"
	"github.com/Faultbox/multires/internal/multires"
)

func TestDemo(t *testing.T) {
	tests := []struct {
		name     string
		workers  int
		withMask bool
	}{
		{"serial with mask", 1, true},
		{"parallel with mask", 4, true},
		{"serial without mask", 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Reshape.Workers = tt.workers
			cfg.Demo.WithMask = tt.withMask

			res, err := demo(cfg)
			if err != nil {
				t.Fatalf("demo failed: %v", err)
			}
			if res.Sculpted == res.Original {
				t.Error("expected sculpt to change the layers")
			}
			if res.Resynced != res.Sculpted {
				t.Error("expected second sync to be idempotent")
			}
			if res.AfterUndo != res.Original {
				t.Error("expected undo to restore the original layers")
			}
			if res.AfterRedo != res.Sculpted {
				t.Error("expected redo to restore the sculpted layers")
			}
			if got := res.Tags&multires.TagMask != 0; got != tt.withMask {
				t.Errorf("mask tag = %v, want %v", got, tt.withMask)
			}
		})
	}
}

func TestRunDemoOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := runDemo(config.Default(), &buf); err != nil {
		t.Fatalf("runDemo failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"idempotent: true", "matches original: true", "matches sculpted: true"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

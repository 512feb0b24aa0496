package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestWithFieldChain(t *testing.T) {
	var buf bytes.Buffer
	log := New("test", Options{Output: &buf})

	log.WithField("agent_id", "a1").
		WithField("competition_id", "c1").
		Info("agent joined")

	out := buf.String()
	for _, want := range []string{"agent_id=a1", "competition_id=c1", "agent joined", "component=test"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q: %s", want, out)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New("test", Options{Level: "warn", Output: &buf})

	log.Info("should be dropped")
	log.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should be dropped") {
		t.Fatalf("info line emitted at warn level: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Fatalf("warn line missing: %s", out)
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	log := New("gateway", Options{JSON: true, Output: &buf})

	log.WithField("path", "/health").Info("request")

	out := buf.String()
	if !strings.Contains(out, `"path":"/health"`) || !strings.Contains(out, `"component":"gateway"`) {
		t.Fatalf("unexpected JSON output: %s", out)
	}
}

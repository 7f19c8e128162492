package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderMeter(t *testing.T) {
	cases := []struct {
		level int
		want  string
	}{
		{0, "[          ]   0"},
		{50, "[#####     ]  50"},
		{100, "[##########] 100"},
		{150, "[##########] 100"},
		{-5, "[          ]   0"},
	}
	for _, tc := range cases {
		if got := renderMeter(tc.level, 10); got != tc.want {
			t.Fatalf("renderMeter(%d) = %q, want %q", tc.level, got, tc.want)
		}
	}
}

func TestLevelMeterSilentWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	m := newLevelMeter(&buf)
	m.Start()
	m.Update(80)
	m.Stop()
	if buf.Len() != 0 {
		t.Fatalf("expected no output for non-terminal writer, got %q", buf.String())
	}
}

func TestLevelMeterDrawsWhenEnabled(t *testing.T) {
	var buf bytes.Buffer
	m := &levelMeter{w: &buf, enabled: true, width: 10}
	m.Update(50)
	if buf.Len() != 0 {
		t.Fatal("meter should not draw before Start")
	}
	m.Start()
	m.Update(50)
	if !strings.Contains(buf.String(), "[#####     ]") {
		t.Fatalf("unexpected meter output %q", buf.String())
	}
	m.Stop()
	if !strings.HasSuffix(buf.String(), "\r") {
		t.Fatal("Stop should clear the meter line")
	}
}

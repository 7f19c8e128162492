package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

const (
	meterLabel    = "level "
	meterMinWidth = 10
	meterMaxWidth = 50
)

// levelMeter draws the live input level on one terminal line. It is silent
// when w is not a terminal.
type levelMeter struct {
	w       io.Writer
	enabled bool
	width   int

	mu     sync.Mutex
	active bool
}

func newLevelMeter(w io.Writer) *levelMeter {
	enabled := shouldColorize(w)
	width := meterMaxWidth
	if enabled {
		width = min(max(terminalWidth(w, 80)-len(meterLabel)-8, meterMinWidth), meterMaxWidth)
	}
	return &levelMeter{w: w, enabled: enabled, width: width}
}

func (m *levelMeter) Start() {
	m.mu.Lock()
	m.active = m.enabled
	m.mu.Unlock()
}

// Stop clears the meter line.
func (m *levelMeter) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return
	}
	m.active = false
	fmt.Fprint(m.w, "\r"+strings.Repeat(" ", len(meterLabel)+m.width+7)+"\r")
}

// Update is the capture level observer.
func (m *levelMeter) Update(level int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return
	}
	fmt.Fprint(m.w, "\r"+meterLabel+renderMeter(level, m.width))
}

// renderMeter draws level (0-100) as a bar of width cells plus the number.
func renderMeter(level, width int) string {
	level = min(max(level, 0), 100)
	filled := level * width / 100
	return fmt.Sprintf("[%s%s] %3d", strings.Repeat("#", filled), strings.Repeat(" ", width-filled), level)
}

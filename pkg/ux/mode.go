// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// Mode selects how much styling terminal output carries.
type Mode string

const (
	// ModeRich enables colors, icons and boxes.
	ModeRich Mode = "rich"

	// ModePlain outputs unstyled text suitable for files and pipes.
	ModePlain Mode = "plain"

	// ModeAuto resolves to ModeRich on a terminal and ModePlain otherwise.
	ModeAuto Mode = "auto"
)

var (
	currentMode = ModeAuto
	modeMu      sync.RWMutex
)

// GetMode returns the process-wide output mode.
func GetMode() Mode {
	modeMu.RLock()
	defer modeMu.RUnlock()
	return currentMode
}

// SetMode updates the process-wide output mode.
func SetMode(m Mode) {
	modeMu.Lock()
	defer modeMu.Unlock()
	currentMode = m
}

// ParseMode converts a flag value to a Mode. Unknown values are ModeAuto.
func ParseMode(s string) Mode {
	switch strings.ToLower(s) {
	case "rich", "color", "colour", "always":
		return ModeRich
	case "plain", "none", "never", "machine":
		return ModePlain
	default:
		return ModeAuto
	}
}

// InitMode sets the mode from DEPGRAPH_COLOR and NO_COLOR.
func InitMode() {
	if os.Getenv("NO_COLOR") != "" {
		SetMode(ModePlain)
		return
	}
	if env := os.Getenv("DEPGRAPH_COLOR"); env != "" {
		SetMode(ParseMode(env))
	}
}

// Resolve turns ModeAuto into a concrete mode for output file f.
func (m Mode) Resolve(f *os.File) Mode {
	if m != ModeAuto {
		return m
	}
	if f != nil && IsTerminal(f) {
		return ModeRich
	}
	return ModePlain
}

// IsTerminal reports whether f is a terminal, including Cygwin/MSYS ptys.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

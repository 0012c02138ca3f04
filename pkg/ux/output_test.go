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
	"bytes"
	"strings"
	"testing"
)

// =============================================================================
// Icon.Render Tests
// =============================================================================

func TestIcon_Render(t *testing.T) {
	for _, icon := range []Icon{IconSuccess, IconWarning, IconError, IconArrow, IconBullet} {
		if !strings.Contains(icon.Render(), string(icon)) {
			t.Errorf("Render(%q) lost the icon glyph", icon)
		}
	}
}

// =============================================================================
// Printer Tests
// =============================================================================

func TestPrinter_PlainHasNoEscapes(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, ModePlain)

	p.Title("Dependency report")
	p.Section("Totals")
	p.KV("nodes", 12)
	p.Bullet("src/a.ts")
	p.Success("done")
	p.Warning("cap hit")
	p.Muted("footnote")
	p.Box("Title", "content")
	p.WarningBox("Careful", "content")

	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Errorf("plain output contains ANSI escapes: %q", out)
	}
	for _, want := range []string{
		"Dependency report\n=================\n",
		"nodes:",
		"12",
		"  - src/a.ts",
		"OK: done",
		"WARN: cap hit",
		"Title: content",
		"WARN Careful: content",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrinter_AutoIsPlain(t *testing.T) {
	p := NewPrinter(&bytes.Buffer{}, ModeAuto)
	if p.Rich() {
		t.Error("unresolved auto mode should print plain")
	}
}

func TestPrinter_RichKeepsText(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, ModeRich)

	p.Bullet("src/a.ts")
	p.Warning("cap hit")

	out := buf.String()
	if !strings.Contains(out, "src/a.ts") || !strings.Contains(out, "cap hit") {
		t.Errorf("rich output lost text: %q", out)
	}
	if !strings.Contains(out, string(IconBullet)) {
		t.Errorf("rich bullet should use %q: %q", IconBullet, out)
	}
}

func TestPrinter_ProgressBar(t *testing.T) {
	plain := NewPrinter(&bytes.Buffer{}, ModePlain)
	if got := plain.ProgressBar(3, 10, 20); got != "3/10" {
		t.Errorf("ProgressBar = %q, expected 3/10", got)
	}
	if got := plain.ProgressBar(0, 0, 20); got != "0/1" {
		t.Errorf("ProgressBar with zero total = %q, expected 0/1", got)
	}

	rich := NewPrinter(&bytes.Buffer{}, ModeRich)
	if got := rich.ProgressBar(5, 10, 10); !strings.Contains(got, "50%") {
		t.Errorf("ProgressBar = %q, expected 50%%", got)
	}
}

// =============================================================================
// Mode Tests
// =============================================================================

func TestParseMode(t *testing.T) {
	tests := map[string]Mode{
		"rich":   ModeRich,
		"ALWAYS": ModeRich,
		"plain":  ModePlain,
		"never":  ModePlain,
		"auto":   ModeAuto,
		"":       ModeAuto,
		"bogus":  ModeAuto,
	}
	for in, want := range tests {
		if got := ParseMode(in); got != want {
			t.Errorf("ParseMode(%q) = %q, expected %q", in, got, want)
		}
	}
}

func TestMode_Resolve(t *testing.T) {
	if got := ModeRich.Resolve(nil); got != ModeRich {
		t.Errorf("explicit rich resolved to %q", got)
	}
	if got := ModePlain.Resolve(nil); got != ModePlain {
		t.Errorf("explicit plain resolved to %q", got)
	}
	if got := ModeAuto.Resolve(nil); got != ModePlain {
		t.Errorf("auto without a file resolved to %q, expected plain", got)
	}
}

func TestInitMode_NoColor(t *testing.T) {
	defer SetMode(GetMode())
	t.Setenv("NO_COLOR", "1")
	t.Setenv("DEPGRAPH_COLOR", "rich")

	InitMode()

	if GetMode() != ModePlain {
		t.Errorf("NO_COLOR should force plain, got %q", GetMode())
	}
}

func TestInitMode_Env(t *testing.T) {
	defer SetMode(GetMode())
	t.Setenv("NO_COLOR", "")
	t.Setenv("DEPGRAPH_COLOR", "rich")

	InitMode()

	if GetMode() != ModeRich {
		t.Errorf("DEPGRAPH_COLOR=rich should give rich, got %q", GetMode())
	}
}

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
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Aleutian color palette - deep ocean teals and arctic waters
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // Bright teal - highlights, success
	ColorTealPrimary = lipgloss.Color("#20B9B4") // Primary teal - main brand color
	ColorTealDeep    = lipgloss.Color("#16858E") // Deep teal - borders, accents
	ColorSlate       = lipgloss.Color("#2C4A54") // Slate - muted text, borders

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style

	Box        lipgloss.Style
	WarningBox lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Subtitle:  lipgloss.NewStyle().Foreground(ColorTealPrimary),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSlate),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorTealBright).Bold(true),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
	WarningBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorWarning).
		Padding(0, 1),
}

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
)

// Render returns the icon with appropriate styling
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	default:
		return string(i)
	}
}

// Printer writes styled or plain lines to w depending on its mode.
//
// # Thread Safety
//
// Not safe for concurrent use; callers serialise writes.
type Printer struct {
	w    io.Writer
	mode Mode
}

// NewPrinter returns a Printer. ModeAuto is treated as ModePlain; resolve
// it against the destination file first with Mode.Resolve.
func NewPrinter(w io.Writer, mode Mode) *Printer {
	if mode == ModeAuto {
		mode = ModePlain
	}
	return &Printer{w: w, mode: mode}
}

// Rich reports whether the printer emits styling.
func (p *Printer) Rich() bool { return p.mode == ModeRich }

func (p *Printer) style(s lipgloss.Style, text string) string {
	if !p.Rich() {
		return text
	}
	return s.Render(text)
}

// Title prints a styled title.
func (p *Printer) Title(text string) {
	if !p.Rich() {
		fmt.Fprintf(p.w, "%s\n%s\n", text, strings.Repeat("=", len(text)))
		return
	}
	fmt.Fprintln(p.w, Styles.Title.Render(text))
}

// Section prints a section heading preceded by a blank line.
func (p *Printer) Section(text string) {
	fmt.Fprintf(p.w, "\n%s\n", p.style(Styles.Subtitle, text))
}

// Blank prints an empty line.
func (p *Printer) Blank() { fmt.Fprintln(p.w) }

// KV prints an aligned key/value line.
func (p *Printer) KV(key string, value any) {
	fmt.Fprintf(p.w, "  %s %v\n", p.style(Styles.Muted, fmt.Sprintf("%-18s", key+":")), value)
}

// Bullet prints an indented list item.
func (p *Printer) Bullet(text string) {
	icon := string(IconBullet)
	if !p.Rich() {
		icon = "-"
	}
	fmt.Fprintf(p.w, "  %s %s\n", icon, text)
}

// Success prints a success message with checkmark.
func (p *Printer) Success(text string) {
	if !p.Rich() {
		fmt.Fprintf(p.w, "OK: %s\n", text)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
}

// Warning prints a warning message.
func (p *Printer) Warning(text string) {
	if !p.Rich() {
		fmt.Fprintf(p.w, "WARN: %s\n", text)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
}

// Muted prints secondary text.
func (p *Printer) Muted(text string) {
	fmt.Fprintln(p.w, p.style(Styles.Muted, text))
}

// Emphasis returns text in the highlight style, or unchanged in plain mode.
func (p *Printer) Emphasis(text string) string {
	return p.style(Styles.Highlight, text)
}

// Box prints text in a rounded box.
func (p *Printer) Box(title, content string) {
	if !p.Rich() {
		fmt.Fprintf(p.w, "%s: %s\n", title, content)
		return
	}
	fmt.Fprintln(p.w, Styles.Box.Width(60).Render(Styles.Title.Render(title)+"\n"+content))
}

// WarningBox prints text in a warning-styled box.
func (p *Printer) WarningBox(title, content string) {
	if !p.Rich() {
		fmt.Fprintf(p.w, "WARN %s: %s\n", title, content)
		return
	}
	titleLine := Styles.Warning.Bold(true).Render(title)
	fmt.Fprintln(p.w, Styles.WarningBox.Width(60).Render(titleLine+"\n"+content))
}

// ProgressBar renders a simple progress bar
func (p *Printer) ProgressBar(current, total int, width int) string {
	if total <= 0 {
		total = 1
	}
	if !p.Rich() {
		return fmt.Sprintf("%d/%d", current, total)
	}
	pct := float64(current) / float64(total)
	filled := int(pct * float64(width))

	bar := Styles.Success.Render(repeatChar('█', filled)) +
		Styles.Muted.Render(repeatChar('░', width-filled))

	return fmt.Sprintf("%s %3.0f%%", bar, pct*100)
}

func repeatChar(c rune, n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(string(c), n)
}

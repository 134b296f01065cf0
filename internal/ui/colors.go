package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// DefaultHeaderLength is the width of the star rule around a [Header].
const DefaultHeaderLength = 30

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title   lipgloss.Style
	header  lipgloss.Style
	success lipgloss.Style
	error   lipgloss.Style
	warning lipgloss.Style
	help    lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:   NewBold(t).MarginBottom(1),
		header:  NewBold(t),
		success: NewBold(s),
		error:   NewBold(e),
		warning: NewStyle(w),
		help:    NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// Header frames message between two rules of length stars, preceded by a blank line.
// A length below one uses [DefaultHeaderLength].
func Header(message string, length int) string {
	if length < 1 {
		length = DefaultHeaderLength
	}
	rule := strings.Repeat("*", length)
	return "\n" + rule + "\n" + styles.header.Render(message) + "\n" + rule
}

// Success renders s in the success color.
func Success(s string) string { return styles.success.Render(s) }

// Warning renders s in the warning color.
func Warning(s string) string { return styles.warning.Render(s) }

// Error renders s in the error color.
func Error(s string) string { return styles.error.Render(s) }

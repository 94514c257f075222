// Package cliui holds the terminal styling and progress output shared by the
// docqa commands.
package cliui

import (
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
)

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

var (
	SuccessMark = fg("82").Render("✓")
	FailMark    = fg("196").Render("✗")

	StepStyle  = fg("245")
	KeyStyle   = fg("75").Bold(true)
	ValueStyle = fg("252")
	DimStyle   = fg("241")
	TitleStyle = fg("212").Bold(true)
	ModeStyle  = fg("214")

	spinnerStyle = fg("82")
)

// Mark is SuccessMark for a nil error and FailMark otherwise.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// RenderMarkdown renders markdown for the terminal, wrapped at 80 columns.
// On failure the raw content is returned with the error.
func RenderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
	if err != nil {
		return content, err
	}
	out, err := r.Render(content)
	if err != nil {
		return content, err
	}
	return out, nil
}

// Package ui provides colored terminal output for the CLI importer.
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

const headerWidth = 60

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	infoColor    = color.New(color.FgWhite)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	blue         = color.New(color.FgBlue).SprintFunc()
	yellow       = color.New(color.FgYellow).SprintFunc()
)

// Header prints a banner with the text centered over a rule line.
func Header(text string) {
	line := strings.Repeat("=", headerWidth)
	headerColor.Println(line)
	headerColor.Println(center(text, headerWidth))
	headerColor.Println(line)
}

// Step prints a numbered progress step.
func Step(n, total int, format string, args ...any) {
	fmt.Printf("%s %s\n", blue(fmt.Sprintf("[%d/%d]", n, total)), fmt.Sprintf(format, args...))
}

// Success prints a green success line.
func Success(format string, args ...any) {
	successColor.Printf("✓ "+format+"\n", args...)
}

// Info prints a plain informational line.
func Info(format string, args ...any) {
	infoColor.Printf(format+"\n", args...)
}

// Warning prints a yellow warning line.
func Warning(format string, args ...any) {
	warnColor.Printf("! "+format+"\n", args...)
}

// Error prints a red error line.
func Error(format string, args ...any) {
	errorColor.Printf("✗ "+format+"\n", args...)
}

// BlueText returns the text colored blue for inline use.
func BlueText(text string) string {
	return blue(text)
}

// YellowText returns the text colored yellow for inline use.
func YellowText(text string) string {
	return yellow(text)
}

// center left-pads the text to sit in the middle of width. Text wider than
// width is returned unchanged.
func center(text string, width int) string {
	if len(text) >= width {
		return text
	}
	return strings.Repeat(" ", (width-len(text))/2) + text
}

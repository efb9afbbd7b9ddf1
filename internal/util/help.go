package util

import "github.com/fatih/color"

var green = color.New(color.FgGreen).SprintFunc()
var whiteBold = color.New(color.FgWhite, color.Bold).SprintFunc()

// HelpSection formats a titled block for a command's long help.
func HelpSection(title string, body string) string {
	return green(title) + "\n\n" + whiteBold(body)
}

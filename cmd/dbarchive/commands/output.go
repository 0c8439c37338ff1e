package commands

import (
	"github.com/fatih/color"
)

// Output styles. fatih/color disables them when stdout is not a terminal
// or NO_COLOR is set.
var (
	bold   = color.New(color.Bold).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

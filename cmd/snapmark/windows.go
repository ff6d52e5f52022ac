package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/example/snapmark/internal/capture"
)

var listWindowsFn = capture.ListWindows

type windowsCmd struct {
	*root
	fs  *flag.FlagSet
	out io.Writer
}

func parseWindowsCmd(args []string, r *root) (*windowsCmd, error) {
	fs := flag.NewFlagSet("windows", flag.ExitOnError)
	cmd := &windowsCmd{root: r, fs: fs, out: os.Stdout}
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (c *windowsCmd) Run() error {
	windows, err := listWindowsFn()
	if err != nil {
		return err
	}
	if len(windows) == 0 {
		fmt.Fprintln(c.out, "no windows available")
		return nil
	}
	fmt.Fprintln(c.out, "available windows, topmost first (* marks the active window):")
	for _, win := range windows {
		marker := " "
		if win.Active {
			marker = "*"
		}
		fmt.Fprintf(c.out, "%s %s\n", marker, formatWindowLabel(win))
	}
	fmt.Fprintln(c.out, "selectors: index:<n>, id:<hex>, pid:<pid>, class:<name>, title:<text>, active, substring match")
	return nil
}

func formatWindowLabel(win capture.WindowInfo) string {
	title := win.Title
	if title == "" {
		title = "(untitled)"
	}
	label := fmt.Sprintf("%d: %s [id 0x%x", win.Index, title, win.ID)
	if win.Class != "" {
		label += " class " + win.Class
	}
	if win.PID != 0 {
		label += fmt.Sprintf(" pid %d", win.PID)
	}
	r := win.Outer
	return label + fmt.Sprintf("] %dx%d+%d+%d", r.Dx(), r.Dy(), r.Min.X, r.Min.Y)
}

func (c *windowsCmd) FlagSet() *flag.FlagSet { return c.fs }
func (c *windowsCmd) Template() string { return "windows.txt" }

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

type versionCmd struct {
	*root
	out io.Writer
}

func (v *versionCmd) FlagSet() *flag.FlagSet { return nil }
func (v *versionCmd) Template() string { return "version.txt" }

func (v *versionCmd) Run() error {
	out := v.out
	if out == nil {
		out = os.Stdout
	}
	line := fmt.Sprintf("%s version %s", v.program, version)
	var extras []string
	if c := strings.TrimSpace(commit); c != "" {
		extras = append(extras, "commit "+c)
	}
	if d := strings.TrimSpace(date); d != "" {
		extras = append(extras, "built "+d)
	}
	if len(extras) > 0 {
		line += " (" + strings.Join(extras, ", ") + ")"
	}
	_, err := fmt.Fprintln(out, line)
	return err
}

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/example/snapmark/internal/config"
)

type configCmd struct {
	*root
	fs  *flag.FlagSet
	out io.Writer
}

func (c *configCmd) FlagSet() *flag.FlagSet { return c.fs }
func (c *configCmd) Template() string { return "config.txt" }

func parseConfigCmd(args []string, r *root) (*configCmd, error) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	c := &configCmd{root: r, fs: fs, out: os.Stdout}
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *configCmd) Run() error {
	args := c.fs.Args()
	if len(args) < 1 {
		return &UsageError{of: c}
	}
	switch args[0] {
	case "print":
		_, err := fmt.Fprint(c.out, c.config.String())
		return err
	case "save":
		return c.runSave()
	default:
		return fmt.Errorf("unknown config command: %s", args[0])
	}
}

// runSave writes the loaded configuration back to where it came from, or
// the user config path.
func (c *configCmd) runSave() error {
	loader := config.NewLoader(version, c.configPath)
	if loader.OverridePath == "" {
		loader.OverridePath = loader.GetConfigPath()
	}
	path, err := loader.Save(c.config)
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	c.logger.Printf("configuration saved to %s", path)
	return nil
}

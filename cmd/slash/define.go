package main

import (
	"flag"
	"os"

	"github.com/therealutkarshpriyadarshi/slash/pkg/config"
)

// runDefine emits a default configuration document (spec §6's `define`
// command) from config.Default(); with -env, SLASH_* environment
// overrides are layered on top of those defaults, and without it the
// environment is ignored.
func runDefine(args []string) error {
	fs := flag.NewFlagSet("define", flag.ExitOnError)
	out := fs.String("out", "-", "output path, or \"-\" for stdout")
	fromEnv := fs.Bool("env", false, "layer SLASH_* environment overrides onto the defaults")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *fromEnv {
		cfg = config.LoadFromEnv()
	}

	if *out == "-" {
		data, err := config.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}
	return config.WriteYAML(*out, cfg)
}

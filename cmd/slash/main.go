// Command slash is the operational CLI spec §6 describes as the
// out-of-scope collaborator driving the clustering engine: `help`,
// `version`, `define`, `assess`, `cluster`, `recluster`, plus an ambient
// `serve` subcommand (SPEC_FULL §2.4/§2.6) exposing liveness and
// progress over gRPC health and REST. Dispatch follows the teacher's
// cmd/cli/main.go: a top-level switch over os.Args[1], each subcommand
// parsing its own flag.FlagSet.
package main

import (
	"fmt"
	"os"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "define":
		err = runDefine(args)
	case "assess":
		err = runAssess(args)
	case "cluster":
		err = runCluster(args, false)
	case "recluster":
		err = runCluster(args, true)
	case "serve":
		err = runServe(args)
	case "version":
		fmt.Printf("slash version %s\n", version)
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		showUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "slash %s: %v\n", command, err)
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Print(`slash - Hilbert-curve single-link clustering

Usage:
  slash <command> [flags]

Commands:
  define       emit a default configuration document
  assess       run the fast ClusteringTendency triage (C10) only
  cluster      run the full pipeline over unlabeled input
  recluster    run the full pipeline over already-labeled input,
               comparing the result against the original labels
  serve        run the optional health/metrics service surface
  version      print the version and exit
  help         show this message

Run 'slash <command> -h' for flags accepted by a given command.
`)
}

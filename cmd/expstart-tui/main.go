package main

import (
	"fmt"
	"os"

	"github.com/handiism/expstart/internal/config"
	"github.com/handiism/expstart/internal/tui"
	flag "github.com/spf13/pflag"
)

func main() {
	configFlag := flag.StringP("config", "c", config.DefaultPath(), "Path to config file (JSON or YAML)")
	flag.Parse()

	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := tui.Run(settings, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

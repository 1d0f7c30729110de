package main

import "flag"

// Options holds CLI options for the shipper.
type Options struct {
	ConfigPath string
	Host       string
	Port       int
	Tag        string
	Message    string
}

// ParseFlags parses CLI flags from args and returns Options.
func ParseFlags(args []string) Options {
	fs := flag.NewFlagSet("logship", flag.ExitOnError)
	var opts Options
	fs.StringVar(&opts.ConfigPath, "config", "", "Path to YAML config file")
	fs.StringVar(&opts.Host, "host", "", "Collector host (overrides sender.host)")
	fs.IntVar(&opts.Port, "port", 0, "Collector port (overrides sender.port)")
	fs.StringVar(&opts.Tag, "tag", "", "Event tag (overrides tag)")
	fs.StringVar(&opts.Message, "message", "", "Ship a single message instead of reading stdin")
	_ = fs.Parse(args)
	return opts
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/g4b1nagy/PhotoTrip/pkg/pathtime"
	"github.com/g4b1nagy/PhotoTrip/pkg/timestamp"
)

const noMatch = "no match"

func newParseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "parse [text...]",
		Short: "Parse metadata timestamp strings",
		Long:  `Parse timestamps written the way metadata tools print them, e.g. "2021:11:27 19:00:11.610+01:00".`,
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			p := timestamp.NewParser(opts.logger.Named("timestamp"), opts.timestampOptions())
			for _, s := range args {
				if t, ok := p.Parse(s); ok {
					cmd.Printf("%s\t%s\n", s, timestamp.Format(t))
				} else {
					cmd.Printf("%s\t%s\n", s, noMatch)
				}
			}
		},
	}
}

func newExtractCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "extract [path...]",
		Short: "Extract timestamps from file paths",
		Long:  "Show every date found in each path, and the one chosen as its timestamp.",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			e := pathtime.NewExtractor(opts.logger.Named("filename"), pathtime.Options{Timestamp: opts.timestampOptions()})
			for _, p := range args {
				cmd.Println(p)
				for _, c := range e.Candidates(p) {
					cmd.Printf("  %-22s %s\n", c.Recognizer, p[c.Start:c.End])
				}
				if t, ok := e.Extract(p); ok {
					cmd.Printf("  => %s\n", timestamp.Format(t))
				} else {
					cmd.Printf("  => %s\n", noMatch)
				}
			}
		},
	}
}

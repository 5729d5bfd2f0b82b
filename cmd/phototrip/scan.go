package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/g4b1nagy/PhotoTrip/pkg/scan"
)

func newScanCmd(opts *options) *cobra.Command {
	var (
		maxDepth int
		allFiles bool
	)

	scanCmd := &cobra.Command{
		Use:   "scan [directory]",
		Short: "Scan a directory for media files",
		Long:  "Scan a directory and print all media files found (relative to the scan root).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			directory := args[0]

			scanOpts := scan.DefaultOptions()
			scanOpts.MaxDepth = maxDepth
			scanOpts.AllFiles = allFiles

			records, err := scan.ScanRecords(os.DirFS(directory), ".", scanOpts)
			if err != nil {
				return err
			}

			if opts.json {
				if records == nil {
					records = []scan.Record{}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(records); err != nil {
					return err
				}
			} else {
				for _, r := range records {
					cmd.Println(r.Path)
				}
			}

			if opts.verbose {
				cmd.PrintErrf("found %d media files\n", len(records))
			}

			return nil
		},
	}

	addScanFlags(scanCmd.Flags(), &maxDepth, &allFiles)

	return scanCmd
}

func addScanFlags(flags *pflag.FlagSet, maxDepth *int, allFiles *bool) {
	flags.IntVar(maxDepth, "max-depth", -1, "maximum recursion depth (0 = no recursion)")
	flags.BoolVar(allFiles, "all", false, "list every regular file, not only photos and videos")
}

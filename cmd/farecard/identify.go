package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var identifyCmd = &cobra.Command{
	Use:   "identify <dump>...",
	Short: "Print the card family, name and serial of dumps",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dumps, err := newFetcher().fetchAll(ctx, args)
		if err != nil {
			return err
		}
		registry, closeFn, err := openRegistry(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		defer tw.Flush()
		for i, d := range dumps {
			id, err := registry.Identify(d)
			if err != nil {
				fmt.Fprintf(tw, "%s\t-\t%v\n", args[i], err)
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", args[i], id.Family, id.Name, id.Serial)
		}
		return nil
	},
}

/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/obotesoftech/prisonreturns/internal/stations"
	"github.com/spf13/cobra"
)

// stationCmd represents the station command
var stationCmd = &cobra.Command{
	Use:   "station [email]",
	Short: "Show the station a mailbox is bound to",
	Long: `Prints the station for one mailbox, or the whole directory when no
mailbox is given.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if len(args) == 1 {
			fmt.Fprintln(out, stations.Lookup(args[0]))
			return
		}
		for _, entry := range stations.All() {
			fmt.Fprintf(out, "%-32s %s\n", entry.Identifier, entry.Station)
		}
	},
}

func init() {
	rootCmd.AddCommand(stationCmd)
}

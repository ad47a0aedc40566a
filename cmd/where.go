package cmd

import (
	"encoding/json"

	"github.com/cinegate/cinegate/color"
	"github.com/cinegate/cinegate/style"
	"github.com/cinegate/cinegate/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// location is a directory cinegate reads from or writes to.
type location struct {
	Name   string
	Flag   string
	Short  string
	Path   func() string
	Hidden bool
}

var locations = []location{
	{Name: "Config", Flag: "config", Short: "c", Path: where.Config},
	{Name: "Resolvers", Flag: "resolvers", Short: "r", Path: where.Resolvers},
	{Name: "Logs", Flag: "logs", Short: "l", Path: where.Logs},
	{Name: "Cache", Flag: "cache", Path: where.Cache},
	{Name: "Browser", Flag: "browser", Path: where.Browser, Hidden: true},
	{Name: "Temp", Flag: "temp", Path: where.Temp, Hidden: true},
}

func init() {
	rootCmd.AddCommand(whereCmd)

	for _, l := range locations {
		whereCmd.Flags().BoolP(l.Flag, l.Short, false, "print only the "+l.Name+" directory")
		if l.Hidden {
			lo.Must0(whereCmd.Flags().MarkHidden(l.Flag))
		}
	}

	whereCmd.Flags().BoolP("json", "j", false, "print directories as JSON")
	whereCmd.MarkFlagsMutuallyExclusive(lo.Map(locations, func(l location, _ int) string {
		return l.Flag
	})...)
}

var whereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where config, resolver scripts, logs and caches live",
	Run: func(cmd *cobra.Command, args []string) {
		for _, l := range locations {
			if lo.Must(cmd.Flags().GetBool(l.Flag)) {
				cmd.Println(l.Path())
				return
			}
		}

		visible := lo.Reject(locations, func(l location, _ int) bool {
			return l.Hidden
		})

		if lo.Must(cmd.Flags().GetBool("json")) {
			paths := lo.SliceToMap(visible, func(l location) (string, string) {
				return l.Flag, l.Path()
			})
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			handleErr(enc.Encode(paths))
			return
		}

		header := style.New().Bold(true).Foreground(color.HiPurple).Render
		for i, l := range visible {
			if i > 0 {
				cmd.Println()
			}
			cmd.Printf("%s %s\n", header(l.Name), style.Fg(color.Yellow)("--"+l.Flag))
			cmd.Println(l.Path())
		}
	},
}

package cmd

import (
	"os"
	"strings"

	"github.com/cinegate/cinegate/color"
	"github.com/cinegate/cinegate/dispatch"
	"github.com/cinegate/cinegate/icon"
	"github.com/cinegate/cinegate/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serversCmd)
	serversCmd.AddCommand(serversListCmd)

	serversListCmd.Flags().StringP("filter", "f", "", "Show only servers fuzzily matching this name")
	serversListCmd.Flags().BoolP("raw", "r", false, "Print one name per line without decoration")
	serversListCmd.SetOut(os.Stdout)
}

var serversCmd = &cobra.Command{
	Use:   "servers",
	Short: "Inspect the servers sources can be resolved on",
}

var serversListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in and scripted servers with their aliases",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		servers := registry(nil, nil).Filter(lo.Must(cmd.Flags().GetString("filter")))

		if lo.Must(cmd.Flags().GetBool("raw")) {
			for _, s := range servers {
				cmd.Println(s.Name)
			}
			return
		}

		for _, s := range servers {
			mark := icon.Get(icon.Server)
			if s.Kind == dispatch.Scripted {
				mark = icon.Get(icon.Lua)
			}

			line := style.Fg(color.Purple)(mark) + " " + style.Bold(s.Name)
			if len(s.Aliases) > 0 {
				line += " " + style.Faint("("+strings.Join(s.Aliases, ", ")+")")
			}
			cmd.Println(line)
		}
	},
}

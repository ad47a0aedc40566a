package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/cinegate/cinegate/color"
	"github.com/cinegate/cinegate/fetch"
	"github.com/cinegate/cinegate/icon"
	"github.com/cinegate/cinegate/style"
	"github.com/cinegate/cinegate/util"
	"github.com/cinegate/cinegate/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// clearables are removed by clear; the resolution and failure caches live under Cache.
var clearables = []location{
	{Name: "resolved manifests", Flag: "resolutions", Short: "r", Path: where.Resolutions},
	{Name: "remembered failures", Flag: "failures", Short: "f", Path: where.Failures},
	{Name: "cache directory", Flag: "cache", Short: "c", Path: where.Cache},
	{Name: "downloaded browser", Flag: "browser", Short: "b", Path: where.Browser},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	for _, c := range clearables {
		clearCmd.Flags().BoolP(c.Flag, c.Short, false, "clear "+c.Name)
	}
	clearCmd.Flags().BoolP("all", "a", false, "clear everything above")
	clearCmd.Flags().StringArrayP("source", "s", nil, "forget the cached outcome of one source, as server:id or server:embed-url")
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget cached resolutions and remove downloaded artifacts",
	Run: func(cmd *cobra.Command, args []string) {
		all := lo.Must(cmd.Flags().GetBool("all"))
		selected := lo.Filter(clearables, func(c location, _ int) bool {
			return all || lo.Must(cmd.Flags().GetBool(c.Flag))
		})

		sources := lo.Must(cmd.Flags().GetStringArray("source"))
		if len(selected) == 0 && len(sources) == 0 {
			handleErr(cmd.Help())
			return
		}

		if len(sources) > 0 {
			forget(cmd, sources)
		}

		for _, c := range selected {
			erase := util.PrintErasable(fmt.Sprintf("%s Clearing %s...", icon.Get(icon.Progress), c.Name))
			err := util.Delete(c.Path())
			erase()

			if errors.Is(err, fs.ErrNotExist) {
				cmd.Printf("%s %s already empty\n", style.Faint(icon.Get(icon.Skip)), util.Capitalize(c.Name))
				continue
			}
			handleErr(err)

			cmd.Printf("%s %s cleared\n", style.Fg(color.Green)(icon.Get(icon.Success)), util.Capitalize(c.Name))
		}
	},
}

// forget drops single cache entries, each given as server:id.
func forget(cmd *cobra.Command, refs []string) {
	d, _, err := dispatcher(fetch.Interactive)
	handleErr(err)

	for _, ref := range refs {
		server, id, ok := strings.Cut(ref, ":")
		if !ok || server == "" || id == "" {
			handleErr(fmt.Errorf("expected server:id, got %q", ref))
		}

		handleErr(d.Forget(server, sourceID(id)))
		cmd.Printf("%s forgot %s %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), style.Fg(color.Purple)(server), style.Fg(color.Yellow)(sourceID(id)))
	}
}

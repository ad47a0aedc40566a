package cmd

import (
	"os"

	"github.com/cinegate/cinegate/color"
	"github.com/cinegate/cinegate/icon"
	"github.com/cinegate/cinegate/key"
	"github.com/cinegate/cinegate/source"
	"github.com/cinegate/cinegate/store"
	"github.com/cinegate/cinegate/style"
	"github.com/cinegate/cinegate/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(storeSchemaCmd, storeStatsCmd, storeSourcesCmd)

	storeSchemaCmd.SetOut(os.Stdout)
	storeStatsCmd.SetOut(os.Stdout)
	storeSourcesCmd.SetOut(os.Stdout)
}

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect content documents",
}

var storeSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of content documents",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printSchema(cmd, store.Schema())
	},
}

var storeStatsCmd = &cobra.Command{
	Use:   "stats [files...]",
	Short: "Count resolved and unresolved sources per document",
	Run: func(cmd *cobra.Command, args []string) {
		files := args
		if len(files) == 0 {
			files = viper.GetStringSlice(key.StoreFiles)
		}

		for _, path := range files {
			doc, err := store.Load(path)
			if err != nil {
				cmd.Printf("%s %s\n", style.Fg(color.Red)(icon.Get(icon.Fail)), err)
				continue
			}

			var total, resolved int
			_ = store.Walk(doc, func(_ string, _ *source.Entry, src *source.VideoSource) error {
				total++
				if src.Resolved() {
					resolved++
				}
				return nil
			})

			cmd.Printf("%s %s: %s, %s resolved\n",
				style.Fg(color.Purple)(icon.Get(icon.Link)),
				style.Bold(path),
				util.Quantify(total, "source", "sources"),
				style.Fg(color.Green)(util.Quantify(resolved, "source", "sources")),
			)
		}
	},
}

var storeSourcesCmd = &cobra.Command{
	Use:   "sources <file>",
	Short: "List the sources of every entry, grouped by language",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := store.Load(args[0])
		handleErr(err)

		for _, l := range store.List(doc) {
			cmd.Printf("%s %s\n", style.Bold(l.Entry.Title), style.Faint(l.Collection+" "+l.Entry.ID()))
			for _, g := range l.Groups {
				cmd.Printf("  %s\n", style.Fg(color.Purple)(g.Language))
				for _, src := range g.Sources {
					mark := style.Faint(icon.Get(icon.Skip))
					if src.Resolved() {
						mark = style.Fg(color.Green)(icon.Get(icon.Success))
					}
					cmd.Printf("    %s %s %s\n", mark, src.ServerName, style.Faint(src.SourceID()))
				}
			}
		}
	},
}

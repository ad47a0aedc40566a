package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/cinegate/cinegate/batch"
	"github.com/cinegate/cinegate/color"
	"github.com/cinegate/cinegate/fetch"
	"github.com/cinegate/cinegate/icon"
	"github.com/cinegate/cinegate/key"
	"github.com/cinegate/cinegate/style"
	"github.com/cinegate/cinegate/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().BoolP("force", "f", false, "Re-resolve sources that already have a resolved_url")
	lo.Must0(viper.BindPFlag(key.BatchForce, batchCmd.Flags().Lookup("force")))

	batchCmd.Flags().DurationP("delay", "d", 0, "Delay between two requests to the same server")
	lo.Must0(viper.BindPFlag(key.BatchDelay, batchCmd.Flags().Lookup("delay")))

	batchCmd.SetOut(os.Stdout)
}

var batchCmd = &cobra.Command{
	Use:   "batch [files...]",
	Short: "Resolve the sources stored in content documents",
	Long: `Resolve every unresolved source of the given content documents, or of
store.files when none are given, and write the manifest URLs back.
Sources that fail are stored as null and retried on the next run.`,
	Run: func(cmd *cobra.Command, args []string) {
		files := args
		if len(files) == 0 {
			files = viper.GetStringSlice(key.StoreFiles)
		}
		if len(files) == 0 {
			handleErr(errors.New("no documents given and store.files is empty"))
		}

		d, _, err := dispatcher(fetch.BatchPolicy())
		handleErr(err)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runner := &batch.Runner{
			Dispatcher: d,
			Delay:      viper.GetDuration(key.BatchDelay),
			Force:      viper.GetBool(key.BatchForce),
			Notify: func(e batch.Event) {
				if e.Result.Success {
					cmd.Printf("%s %s %s %s\n",
						style.Fg(color.Green)(icon.Get(icon.Success)),
						style.Bold(e.Entry.Title),
						style.Fg(color.Purple)(e.Result.Server),
						style.Faint(e.Result.URL))
					return
				}
				cmd.Printf("%s %s %s %s\n",
					style.Fg(color.Red)(icon.Get(icon.Fail)),
					style.Bold(e.Entry.Title),
					style.Fg(color.Purple)(e.Result.Server),
					style.Fg(color.Red)(e.Result.Error))
			},
		}

		report, err := runner.Run(ctx, files)

		cmd.Printf("\n%s %s, %s resolved, %s failed, %s skipped\n",
			icon.Get(icon.Progress),
			util.Quantify(report.Files, "file", "files"),
			style.Fg(color.Green)(util.Quantify(report.Resolved, "source", "sources")),
			style.Fg(color.Red)(util.Quantify(report.Failed, "source", "sources")),
			style.Faint(util.Quantify(report.Skipped, "source", "sources")),
		)
		handleErr(err)
	},
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/cinegate/cinegate/color"
	"github.com/cinegate/cinegate/dispatch"
	"github.com/cinegate/cinegate/fetch"
	"github.com/cinegate/cinegate/icon"
	"github.com/cinegate/cinegate/key"
	"github.com/cinegate/cinegate/open"
	"github.com/cinegate/cinegate/proxy"
	"github.com/cinegate/cinegate/source"
	"github.com/cinegate/cinegate/style"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().BoolP("json", "j", false, "Print the result as JSON")
	resolveCmd.Flags().Bool("schema", false, "Print the JSON schema of the result and exit")
	resolveCmd.Flags().BoolP("proxy", "p", false, "Print a proxy link instead of the manifest URL")
	resolveCmd.Flags().BoolP("force", "f", false, "Ignore cached results")
	resolveCmd.Flags().BoolP("open", "o", false, "Open the result with cli.open_with or the system handler")

	resolveCmd.SetOut(os.Stdout)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <server> <source-id | embed-url>",
	Short: "Resolve one source to its HLS manifest URL",
	Example: `  cinegate resolve streamwish abc123
  cinegate resolve sw https://streamwish.to/e/abc123 --proxy`,
	Args: func(cmd *cobra.Command, args []string) error {
		if lo.Must(cmd.Flags().GetBool("schema")) {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	ValidArgsFunction: completionServers,
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("schema")) {
			printSchema(cmd, (&jsonschema.Reflector{}).Reflect(&dispatch.Result{}))
			return
		}

		d, _, err := dispatcher(fetch.Interactive)
		handleErr(err)

		res := d.Resolve(context.Background(), dispatch.Request{
			Server:   args[0],
			SourceID: sourceID(args[1]),
			Force:    lo.Must(cmd.Flags().GetBool("force")),
		})

		if res.Success && lo.Must(cmd.Flags().GetBool("proxy")) {
			res.URL = proxy.Link(publicBase(), res.URL)
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetEscapeHTML(false)
			handleErr(encoder.Encode(res))
			if !res.Success {
				os.Exit(1)
			}
			return
		}

		handleErr(res.Err)

		mark := icon.Get(icon.Success)
		if res.Cached {
			mark = icon.Get(icon.Cached)
		}
		cmd.Printf("%s %s %s\n", style.Fg(color.Green)(mark), style.Fg(color.Purple)(res.Server), style.Fg(color.Yellow)(res.URL))

		if lo.Must(cmd.Flags().GetBool("open")) {
			handleErr(open.Start(res.URL, viper.GetString(key.CliOpenWith)))
		}
	},
}

// sourceID accepts either a bare id or a whole embed URL.
func sourceID(arg string) string {
	if strings.Contains(arg, "://") {
		return (&source.VideoSource{EmbedURL: arg}).SourceID()
	}
	return arg
}

// publicBase is where a local "cinegate serve" would be reached.
func publicBase() string {
	if public := viper.GetString(key.ServerPublicURL); public != "" {
		return public
	}

	host, port, err := net.SplitHostPort(viper.GetString(key.ServerAddress))
	if err != nil {
		return "http://localhost"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s", net.JoinHostPort(host, port))
}

func printSchema(cmd *cobra.Command, schema *jsonschema.Schema) {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	handleErr(encoder.Encode(schema))
}

func completionServers(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return registry(nil, nil).Names(), cobra.ShellCompDirectiveNoFileComp
}

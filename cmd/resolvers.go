package cmd

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/cinegate/cinegate/color"
	"github.com/cinegate/cinegate/constant"
	"github.com/cinegate/cinegate/filesystem"
	"github.com/cinegate/cinegate/icon"
	"github.com/cinegate/cinegate/key"
	"github.com/cinegate/cinegate/network"
	"github.com/cinegate/cinegate/resolver/custom"
	"github.com/cinegate/cinegate/style"
	"github.com/cinegate/cinegate/util"
	"github.com/cinegate/cinegate/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(resolversCmd)
}

var resolversCmd = &cobra.Command{
	Use:   "resolvers",
	Short: "Manage Lua resolver scripts",
	Long: fmt.Sprintf(`Manage Lua resolver scripts.

Every *%s file in the resolvers directory adds a server named after the file.
A script defines %s(id) returning a manifest URL, or nil and a reason, and may
define %s(id) and an %s table.`, custom.Extension, constant.ResolveFn, constant.EmbedURLFn, constant.AliasesVar),
}

func init() {
	resolversCmd.AddCommand(resolversListCmd)
	resolversListCmd.Flags().StringP("id", "i", "{id}", "source id used to show each script's embed page")
	resolversListCmd.SetOut(os.Stdout)
}

var resolversListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed scripts and report broken ones",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		id := lo.Must(cmd.Flags().GetString("id"))
		scripts, err := custom.LoadDir(where.Resolvers(), nil)
		for _, s := range scripts {
			cmd.Printf("%s %s %s\n", style.Fg(color.Purple)(icon.Get(icon.Lua)), style.Bold(s.Name), style.Faint(s.Path))

			embed, embedErr := s.EmbedURL(context.Background(), id)
			switch {
			case embedErr != nil:
				cmd.Printf("  %s %s\n", style.Fg(color.Red)(icon.Get(icon.Warn)), embedErr)
			case embed != "":
				cmd.Printf("  %s\n", style.Fg(color.Yellow)(embed))
			}
		}
		if err != nil {
			cmd.Printf("%s %s\n", style.Fg(color.Red)(icon.Get(icon.Warn)), err)
		}
	},
}

func init() {
	resolversCmd.AddCommand(resolversInstallCmd)
}

var resolversInstallCmd = &cobra.Command{
	Use:   "install <url>...",
	Short: "Download resolver scripts, keeping only ones that load",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		client := network.NewClient(network.Options{Timeout: viper.GetDuration(key.FetchTimeout)})
		for _, rawURL := range args {
			target, changed, err := custom.Install(ctx, client, rawURL, where.Resolvers())
			handleErr(err)

			if changed {
				fmt.Printf("%s installed %s\n", icon.Get(icon.Success), style.Fg(color.Yellow)(target))
			} else {
				fmt.Printf("%s %s is up to date\n", icon.Get(icon.Skip), style.Fg(color.Yellow)(target))
			}
		}
	},
}

func init() {
	resolversCmd.AddCommand(resolversRemoveCmd)
	resolversRemoveCmd.Flags().StringArrayP("name", "n", []string{}, "Name of the script(s) to remove")
	lo.Must0(resolversRemoveCmd.RegisterFlagCompletionFunc("name", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		entries, err := filesystem.API().ReadDir(where.Resolvers())
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		return lo.FilterMap(entries, func(item os.FileInfo, _ int) (string, bool) {
			if !strings.HasSuffix(item.Name(), custom.Extension) {
				return "", false
			}
			return util.FileStem(item.Name()), true
		}), cobra.ShellCompDirectiveNoFileComp
	}))
}

var resolversRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove resolver scripts",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range lo.Must(cmd.Flags().GetStringArray("name")) {
			path := filepath.Join(where.Resolvers(), name+custom.Extension)
			handleErr(filesystem.API().Remove(path))
			fmt.Printf("%s removed %s\n", icon.Get(icon.Success), style.Fg(color.Yellow)(name))
		}
	},
}

func init() {
	resolversCmd.AddCommand(resolversGenCmd)

	resolversGenCmd.Flags().StringP("name", "n", "", "Server name the script registers")
	resolversGenCmd.Flags().StringP("url", "u", "", "Base URL of the embed host")

	lo.Must0(resolversGenCmd.MarkFlagRequired("name"))
	lo.Must0(resolversGenCmd.MarkFlagRequired("url"))
}

var resolversGenCmd = &cobra.Command{
	Use:   "gen",
	Short: "Scaffold a new Lua resolver script",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.SetOut(os.Stdout)

		author := "Anonymous"
		if usr, err := user.Current(); err == nil {
			author = usr.Username
		}

		s := struct {
			Name       string
			URL        string
			Author     string
			ResolveFn  string
			EmbedURLFn string
			AliasesVar string
		}{
			Name:       strings.ToLower(util.SanitizeFilename(lo.Must(cmd.Flags().GetString("name")))),
			URL:        strings.TrimRight(lo.Must(cmd.Flags().GetString("url")), "/"),
			Author:     author,
			ResolveFn:  constant.ResolveFn,
			EmbedURLFn: constant.EmbedURLFn,
			AliasesVar: constant.AliasesVar,
		}
		if s.Name == "" {
			handleErr(fmt.Errorf("invalid script name %q", lo.Must(cmd.Flags().GetString("name"))))
		}

		funcMap := template.FuncMap{
			"repeat": strings.Repeat,
			"plus":   func(a, b int) int { return a + b },
			"max":    util.Max[int],
		}

		tmpl, err := template.New("resolver").Funcs(funcMap).Parse(constant.ResolverTemplate)
		handleErr(err)

		target := filepath.Join(where.Resolvers(), s.Name+custom.Extension)
		f, err := filesystem.API().Create(target)
		handleErr(err)

		defer util.Ignore(f.Close)

		handleErr(tmpl.Execute(f, s))
		cmd.Println(target)
	},
}

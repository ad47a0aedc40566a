package cmd

import (
	"encoding/json"
	"runtime"
	"strings"
	"text/template"

	"github.com/cinegate/cinegate/color"
	"github.com/cinegate/cinegate/constant"
	"github.com/cinegate/cinegate/style"
	"github.com/cinegate/cinegate/version"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

type buildInfo struct {
	App       string `json:"app"`
	Version   string `json:"version"`
	Revision  string `json:"revision"`
	BuiltAt   string `json:"built_at"`
	BuiltBy   string `json:"built_by"`
	Platform  string `json:"platform"`
	GoVersion string `json:"go_version"`
}

func currentBuild() buildInfo {
	return buildInfo{
		App:       constant.Cinegate,
		Version:   constant.Version,
		Revision:  constant.Revision,
		BuiltAt:   strings.TrimSpace(constant.BuiltAt),
		BuiltBy:   constant.BuiltBy,
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		GoVersion: runtime.Version(),
	}
}

var versionTemplate = template.Must(template.New("version").Funcs(template.FuncMap{
	"faint":  style.Faint,
	"bold":   style.Bold,
	"accent": style.Fg(color.Purple),
}).Parse(`{{ accent "▇▇▇" }} {{ accent .App }}

  {{ faint "Version" }}      {{ bold .Version }}
  {{ faint "Revision" }}     {{ bold .Revision }}
  {{ faint "Built at" }}     {{ bold .BuiltAt }}
  {{ faint "Built by" }}     {{ bold .BuiltBy }}
  {{ faint "Platform" }}     {{ bold .Platform }}
  {{ faint "Go" }}           {{ bold .GoVersion }}
`))

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("short", "s", false, "print only the version")
	versionCmd.Flags().BoolP("json", "j", false, "print build metadata as JSON")
	versionCmd.MarkFlagsMutuallyExclusive("short", "json")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build metadata, and check for a newer release",
	Run: func(cmd *cobra.Command, args []string) {
		switch {
		case lo.Must(cmd.Flags().GetBool("short")):
			cmd.Println(constant.Version)
		case lo.Must(cmd.Flags().GetBool("json")):
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(currentBuild()))
		default:
			handleErr(versionTemplate.Execute(cmd.OutOrStdout(), currentBuild()))
			version.Notify(cmd.OutOrStdout())
		}
	},
}

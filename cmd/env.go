package cmd

import (
	"os"
	"sort"

	"github.com/cinegate/cinegate/auth"
	"github.com/cinegate/cinegate/color"
	"github.com/cinegate/cinegate/config"
	"github.com/cinegate/cinegate/style"
	"github.com/cinegate/cinegate/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// envVar is one variable cinegate reads at startup.
type envVar struct {
	name   string
	secret bool
}

func envVars() []envVar {
	vars := []envVar{{name: where.EnvConfigPath}}
	for _, name := range config.EnvExposed {
		f := config.Default[name]
		vars = append(vars, envVar{name: f.Env(), secret: auth.IsSecret(name)})
	}

	sort.Slice(vars, func(i, j int) bool {
		return vars[i].name < vars[j].name
	})
	return vars
}

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.Flags().BoolP("set-only", "s", false, "only variables that are set")
	envCmd.Flags().BoolP("unset-only", "u", false, "only variables that are unset")
	envCmd.MarkFlagsMutuallyExclusive("set-only", "unset-only")
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "List the environment variables cinegate understands",
	Long: `List the environment variables cinegate understands and their values in this process.
Secret values are masked; unset secrets fall back to the system keyring.`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			setOnly   = lo.Must(cmd.Flags().GetBool("set-only"))
			unsetOnly = lo.Must(cmd.Flags().GetBool("unset-only"))
			name      = style.New().Bold(true).Foreground(color.Purple).Render
		)

		for _, v := range envVars() {
			value, present := os.LookupEnv(v.name)
			present = present && value != ""

			if (setOnly && !present) || (unsetOnly && present) {
				continue
			}

			switch {
			case !present:
				value = style.Fg(color.Red)("unset")
			case v.secret:
				value = style.Fg(color.Yellow)("********")
			default:
				value = style.Fg(color.Green)(value)
			}

			cmd.Printf("%s=%s\n", name(v.name), value)
		}
	},
}

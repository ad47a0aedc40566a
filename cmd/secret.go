package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cinegate/cinegate/auth"
	"github.com/cinegate/cinegate/color"
	"github.com/cinegate/cinegate/icon"
	"github.com/cinegate/cinegate/style"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(secretCmd)
	secretCmd.AddCommand(secretSetCmd, secretDeleteCmd)
}

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Keep credentials in the system keyring",
	Long: fmt.Sprintf(`Keep credentials in the system keyring instead of the config file.
Supported keys: %s`, strings.Join(auth.Secrets, ", ")),
}

func completionSecrets(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return auth.Secrets, cobra.ShellCompDirectiveNoFileComp
}

var secretSetCmd = &cobra.Command{
	Use:               "set <key> [value]",
	Short:             "Store a credential. The value is read from stdin when omitted",
	Args:              cobra.RangeArgs(1, 2),
	ValidArgsFunction: completionSecrets,
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]
		if !auth.IsSecret(name) {
			handleErr(fmt.Errorf("%s is not a secret, expected one of %s", name, strings.Join(auth.Secrets, ", ")))
		}

		var value string
		if len(args) == 2 {
			value = args[1]
		} else {
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				handleErr(fmt.Errorf("read value: %w", err))
			}
			value = strings.TrimSpace(line)
		}
		if value == "" {
			handleErr(errors.New("empty value"))
		}

		handleErr(auth.SetSecret(name, value))
		fmt.Printf("%s stored %s in the keyring\n", style.Fg(color.Green)(icon.Get(icon.Success)), style.Fg(color.Purple)(name))
	},
}

var secretDeleteCmd = &cobra.Command{
	Use:               "delete <key>",
	Short:             "Remove a stored credential",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionSecrets,
	Run: func(cmd *cobra.Command, args []string) {
		if !auth.IsSecret(args[0]) {
			handleErr(fmt.Errorf("%s is not a secret", args[0]))
		}
		handleErr(auth.DeleteSecret(args[0]))
		fmt.Printf("%s deleted %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), style.Fg(color.Purple)(args[0]))
	},
}

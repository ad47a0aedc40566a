package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cinegate/cinegate/auth"
	"github.com/cinegate/cinegate/color"
	"github.com/cinegate/cinegate/config"
	"github.com/cinegate/cinegate/constant"
	"github.com/cinegate/cinegate/filesystem"
	"github.com/cinegate/cinegate/icon"
	"github.com/cinegate/cinegate/style"
	"github.com/cinegate/cinegate/where"
	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func configPath() string {
	return filepath.Join(where.Config(), constant.Cinegate+".toml")
}

func errUnknownKey(name string) error {
	closest := lo.MinBy(lo.Keys(config.Default), func(a, b string) bool {
		return levenshtein.Distance(name, a) < levenshtein.Distance(name, b)
	})

	return fmt.Errorf(
		"unknown key %s, did you mean %s?",
		style.Fg(color.Red)(name),
		style.Fg(color.Yellow)(closest),
	)
}

// field resolves the key from the first argument or the --key flag.
func field(cmd *cobra.Command, args []string) config.Field {
	name := lo.Must(cmd.Flags().GetString("key"))
	if len(args) > 0 {
		name = args[0]
	}

	if name == "" {
		handleErr(errors.New("key is required as an argument or --key flag"))
	}

	f, ok := config.Default[name]
	if !ok {
		handleErr(errUnknownKey(name))
	}

	return f
}

// parseValue converts raw input to the type of the field's factory default.
func parseValue(f config.Field, raw []string) (any, error) {
	if len(raw) == 0 {
		return nil, errors.New("value is required as an argument or --value flag")
	}

	switch f.Value.(type) {
	case int:
		n, err := strconv.Atoi(raw[0])
		if err != nil {
			return nil, fmt.Errorf("%s expects an integer, got %q", f.Key, raw[0])
		}
		return n, nil
	case bool:
		b, err := strconv.ParseBool(raw[0])
		if err != nil {
			return nil, fmt.Errorf("%s expects a boolean, got %q", f.Key, raw[0])
		}
		return b, nil
	case time.Duration:
		d, err := time.ParseDuration(raw[0])
		if err != nil {
			return nil, fmt.Errorf("%s expects a duration such as 30s, got %q", f.Key, raw[0])
		}
		return d, nil
	case []string:
		return raw, nil
	default:
		return raw[0], nil
	}
}

func persistConfig() {
	err := viper.WriteConfig()

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		err = viper.SafeWriteConfig()
	}

	handleErr(err)
}

func completionConfigKeys(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return lo.Keys(config.Default), cobra.ShellCompDirectiveNoFileComp
}

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change resolver, proxy and browser settings",
}

func init() {
	configCmd.AddCommand(configInfoCmd)
	configInfoCmd.Flags().StringSliceP("key", "k", nil, "only show these keys")
	configInfoCmd.Flags().StringP("section", "s", "", "only show keys of a section, e.g. browser")
	configInfoCmd.Flags().BoolP("json", "j", false, "print fields as JSON")
	_ = configInfoCmd.RegisterFlagCompletionFunc("key", completionConfigKeys)
	_ = configInfoCmd.RegisterFlagCompletionFunc("section", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return configSections(), cobra.ShellCompDirectiveNoFileComp
	})
}

func section(name string) string {
	head, _, _ := strings.Cut(name, ".")
	return head
}

func configSections() []string {
	sections := lo.Uniq(lo.Map(lo.Keys(config.Default), func(name string, _ int) string {
		return section(name)
	}))
	sort.Strings(sections)
	return sections
}

var configInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Describe configuration fields",
	Run: func(cmd *cobra.Command, args []string) {
		var (
			keys    = lo.Must(cmd.Flags().GetStringSlice("key"))
			only    = lo.Must(cmd.Flags().GetString("section"))
			asJSON  = lo.Must(cmd.Flags().GetBool("json"))
			fields  []config.Field
			unknown = lo.Filter(keys, func(k string, _ int) bool {
				_, ok := config.Default[k]
				return !ok
			})
		)

		if len(unknown) > 0 {
			handleErr(errUnknownKey(unknown[0]))
		}

		for name, f := range config.Default {
			if len(keys) > 0 && !lo.Contains(keys, name) {
				continue
			}
			if only != "" && section(name) != only {
				continue
			}
			fields = append(fields, f)
		}

		sort.Slice(fields, func(i, j int) bool {
			return fields[i].Key < fields[j].Key
		})

		if asJSON {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(fields))
			return
		}

		out := cmd.OutOrStdout()
		for i, f := range fields {
			if i == 0 || section(fields[i-1].Key) != section(f.Key) {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out, style.Bold("["+section(f.Key)+"]"))
			}
			fmt.Fprintln(out, f.Pretty())
			fmt.Fprintln(out)
		}
	},
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configSetCmd.Flags().StringP("key", "k", "", "key to change")
	configSetCmd.Flags().StringSliceP("value", "v", nil, "new value")
	_ = configSetCmd.RegisterFlagCompletionFunc("key", completionConfigKeys)
}

var configSetCmd = &cobra.Command{
	Use:               "set [key] [value...]",
	Short:             "Change a configuration value and write it to the config file",
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		f := field(cmd, args)

		raw := lo.Must(cmd.Flags().GetStringSlice("value"))
		if len(args) > 1 {
			raw = args[1:]
		}

		v, err := parseValue(f, raw)
		handleErr(err)

		if auth.IsSecret(f.Key) {
			cmd.Printf(
				"%s %s is a secret, consider %s instead\n",
				style.Fg(color.Yellow)(icon.Get(icon.Warn)),
				style.Fg(color.Purple)(f.Key),
				style.Bold(constant.Cinegate+" secret set "+f.Key),
			)
		}

		viper.Set(f.Key, v)
		persistConfig()

		cmd.Printf(
			"%s set %s to %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			style.Fg(color.Purple)(f.Key),
			style.Fg(color.Yellow)(fmt.Sprint(v)),
		)
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configGetCmd.Flags().StringP("key", "k", "", "key to read")
	_ = configGetCmd.RegisterFlagCompletionFunc("key", completionConfigKeys)
}

var configGetCmd = &cobra.Command{
	Use:               "get [key]",
	Short:             "Print the effective value of a key",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		f := field(cmd, args)

		if auth.IsSecret(f.Key) && viper.GetString(f.Key) != "" {
			cmd.Println(strings.Repeat("*", 8))
			return
		}

		cmd.Println(viper.Get(f.Key))
	},
}

func init() {
	configCmd.AddCommand(configWriteCmd)
	configWriteCmd.Flags().BoolP("force", "f", false, "overwrite an existing config file")
}

var configWriteCmd = &cobra.Command{
	Use:   "write",
	Short: "Write the current configuration to " + constant.Cinegate + ".toml",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("force")) {
			handleErr(filesystem.API().Remove(configPath()))
		}

		handleErr(viper.SafeWriteConfig())
		cmd.Printf("%s wrote %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), configPath())
	},
}

func init() {
	configCmd.AddCommand(configDeleteCmd)
}

var configDeleteCmd = &cobra.Command{
	Use:     "delete",
	Aliases: []string{"remove"},
	Short:   "Delete the config file",
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(filesystem.API().Remove(configPath()))
		cmd.Printf("%s deleted %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), configPath())
	},
}

func init() {
	configCmd.AddCommand(configResetCmd)
	configResetCmd.Flags().StringP("key", "k", "", "key to reset")
	configResetCmd.Flags().BoolP("all", "a", false, "reset every key")
	configResetCmd.MarkFlagsMutuallyExclusive("key", "all")
	configResetCmd.MarkFlagsOneRequired("key", "all")
	_ = configResetCmd.RegisterFlagCompletionFunc("key", completionConfigKeys)
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore factory defaults",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("all")) {
			for name, f := range config.Default {
				viper.Set(name, f.Value)
			}
			persistConfig()
			cmd.Printf("%s reset all config values\n", style.Fg(color.Green)(icon.Get(icon.Success)))
			return
		}

		f := field(cmd, nil)
		viper.Set(f.Key, f.Value)
		persistConfig()

		cmd.Printf(
			"%s reset %s to %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			style.Fg(color.Purple)(f.Key),
			style.Fg(color.Yellow)(fmt.Sprint(f.Value)),
		)
	},
}

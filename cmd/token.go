package cmd

import (
	"os"

	"github.com/cinegate/cinegate/hls"
	"github.com/cinegate/cinegate/proxy"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenEncodeCmd, tokenDecodeCmd)

	tokenEncodeCmd.Flags().BoolP("link", "l", false, "Print the whole proxy link")
	tokenEncodeCmd.SetOut(os.Stdout)
	tokenDecodeCmd.SetOut(os.Stdout)
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Encode and decode proxy stream tokens",
}

var tokenEncodeCmd = &cobra.Command{
	Use:   "encode <url>",
	Short: "Encode an absolute URL as a proxy token",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// Decoding back validates the URL the same way the proxy will.
		_, err := hls.Decode(hls.Encode(args[0]))
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("link")) {
			cmd.Println(proxy.Link(publicBase(), args[0]))
			return
		}
		cmd.Println(hls.Encode(args[0]))
	},
}

var tokenDecodeCmd = &cobra.Command{
	Use:   "decode <token>",
	Short: "Decode a proxy token back to its URL",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		target, err := hls.Decode(args[0])
		handleErr(err)
		cmd.Println(target)
	},
}

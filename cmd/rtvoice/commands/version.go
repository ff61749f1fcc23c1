package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/majnioui/openai-realtime-voice-to-voice-example/cmd/rtvoice/internal/build"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/cli"
)

var versionFormat string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if versionFormat == "" {
			fmt.Fprintln(out, build.String())
			if IsVerbose() {
				fmt.Fprintf(out, "  go:     %s\n", build.Get().Go)
				if cfg, err := GetConfig(); err == nil {
					fmt.Fprintf(out, "  config: %s\n", cfg.Dir)
				} else {
					fmt.Fprintf(out, "  config: (unavailable: %v)\n", err)
				}
			}
			return nil
		}
		f, err := cli.ParseFormat(versionFormat)
		if err != nil {
			return err
		}
		return cli.Output(out, build.Get(), f)
	},
}

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "", "output format: yaml or json")
	rootCmd.AddCommand(versionCmd)
}

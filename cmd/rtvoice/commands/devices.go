package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/audio/portaudio"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/cli"
)

var devicesFormat string

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("init audio: %w", err)
		}
		defer portaudio.Terminate()

		devs, err := portaudio.Devices()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if devicesFormat != "" {
			f, err := cli.ParseFormat(devicesFormat)
			if err != nil {
				return err
			}
			return cli.Output(out, devs, f)
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "INDEX\tDEFAULT\tIN\tOUT\tRATE\tNAME")
		for _, d := range devs {
			def := ""
			switch {
			case d.IsDefaultInput && d.IsDefaultOutput:
				def = "in,out"
			case d.IsDefaultInput:
				def = "in"
			case d.IsDefaultOutput:
				def = "out"
			}
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%.0f\t%s\n",
				d.Index, def, d.MaxInputChannels, d.MaxOutputChannels, d.DefaultSampleRate, d.Name)
		}
		return w.Flush()
	},
}

func init() {
	devicesCmd.Flags().StringVar(&devicesFormat, "format", "", "output format: yaml or json")
	rootCmd.AddCommand(devicesCmd)
}

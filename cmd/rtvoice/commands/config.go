package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/majnioui/openai-realtime-voice-to-voice-example/cmd/rtvoice/internal/config"
	"github.com/majnioui/openai-realtime-voice-to-voice-example/pkg/cli"
)

func validateServiceName(service string) error {
	switch service {
	case config.ServiceVoice, config.ServiceBackend:
		return nil
	}
	return fmt.Errorf("unknown service %q (want %s or %s)", service, config.ServiceVoice, config.ServiceBackend)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage contexts and service configuration",
	Long: `Manage contexts and service configuration.

A context is a named directory holding voice.yaml (used by talk) and
backend.yaml (used by serve).

Examples:
  rtvoice config list
  rtvoice config add-context laptop
  rtvoice config use-context laptop
  rtvoice config set laptop voice mic_reenable_delay 150ms
  rtvoice config set laptop backend instructions_file ./prompt.yaml
  rtvoice config show laptop voice`,
}

var configListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		names, err := cfg.ListContexts()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(names) == 0 {
			fmt.Fprintln(out, "No contexts configured.")
			fmt.Fprintln(out, "Create one with: rtvoice config add-context <name>")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CURRENT\tNAME\tSERVICES")
		for _, name := range names {
			current := ""
			if name == cfg.CurrentContext {
				current = "*"
			}
			services, _ := config.ListServices(cfg.ContextDir(name))
			fmt.Fprintf(w, "%s\t%s\t%s\n", current, name, strings.Join(services, ", "))
		}
		return w.Flush()
	},
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Create a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if err := cfg.AddContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "Context %q created.", args[0])
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context and its service files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if err := cfg.DeleteContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "Context %q deleted.", args[0])
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if err := cfg.UseContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "Switched to context %q.", args[0])
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <context> <service> <key> <value>",
	Short: "Set a service config value",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		ctxName, service, key, value := args[0], args[1], args[2], args[3]
		if err := validateServiceName(service); err != nil {
			return err
		}
		dir, err := cfg.ResolveContext(ctxName)
		if err != nil {
			return err
		}
		if err := config.SetValue(dir, service, key, value); err != nil {
			return err
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "Set %s.%s = %s (context: %s)", service, key, value, ctxName)
		return nil
	},
}

var configShowFormat string

var configShowCmd = &cobra.Command{
	Use:   "show [context] <service>",
	Short: "Print a service config",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		ctxName, service := "", args[0]
		if len(args) == 2 {
			ctxName, service = args[0], args[1]
		}
		if err := validateServiceName(service); err != nil {
			return err
		}
		dir, err := cfg.ResolveContext(ctxName)
		if err != nil {
			return err
		}
		f, err := cli.ParseFormat(configShowFormat)
		if err != nil {
			return err
		}

		var v any
		switch service {
		case config.ServiceVoice:
			v, err = config.LoadService[config.Voice](dir, service)
		default:
			v, err = config.LoadService[config.Backend](dir, service)
		}
		if err != nil {
			return err
		}
		return cli.Output(cmd.OutOrStdout(), v, f)
	},
}

func init() {
	configShowCmd.Flags().StringVar(&configShowFormat, "format", "", "output format: yaml or json")

	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configShowCmd)

	rootCmd.AddCommand(configCmd)
}


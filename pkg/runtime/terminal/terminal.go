package terminal

import (
	"fmt"
	"io"
	"os"

	"github.com/de-tools/report-assistant/pkg/logging"
	"github.com/de-tools/report-assistant/pkg/runtime/terminal/commands"
	"github.com/de-tools/report-assistant/pkg/runtime/terminal/export"
	"github.com/de-tools/report-assistant/pkg/services/config"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	env      *commands.Environment
	reporter *export.Reporter
	rootCmd  *cobra.Command
	output   io.Writer

	configPath   string
	profilesPath string
	profile      string
	verbose      bool
	logCloser    io.Closer
}

// Options contain configuration for the CLI
type Options struct {
	Output io.Writer
	Input  io.Reader
	Args   []string

	// Environment skips config loading when set.
	Environment *commands.Environment
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	env := opts.Environment
	preset := env != nil
	if env == nil {
		env = &commands.Environment{Input: opts.Input}
	}

	cli := &CLI{
		env:      env,
		reporter: export.NewReporter(opts.Output),
		output:   opts.Output,
	}

	cli.rootCmd = cli.newRootCmd(preset)
	cli.rootCmd.SetOut(opts.Output)
	if opts.Args != nil {
		cli.rootCmd.SetArgs(opts.Args)
	}
	return cli
}

func (cli *CLI) Execute() error {
	defer cli.close()
	return cli.rootCmd.Execute()
}

func (cli *CLI) newRootCmd(preset bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "assistant",
		Short:         "Reporting assistant tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	if !preset {
		cmd.PersistentPreRunE = cli.loadEnvironment
	}

	cmd.PersistentFlags().StringVarP(&cli.configPath, "config", "c", "", "Path to the YAML configuration file")
	cmd.PersistentFlags().StringVar(&cli.profilesPath, "profiles", "", "Path to the profiles file (default $HOME/.reportassistantcfg)")
	cmd.PersistentFlags().StringVarP(&cli.profile, "profile", "p", "", "Backend profile to use")
	cmd.PersistentFlags().BoolVarP(&cli.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(commands.NewCompileCmd(cli.env, cli.reporter))
	cmd.AddCommand(commands.NewClassifyCmd(cli.env, cli.reporter))
	cmd.AddCommand(commands.NewChatCmd(cli.env, cli.reporter, cli.output))
	cmd.AddCommand(commands.NewHistoryCmd(cli.env, cli.reporter))

	return cmd
}

func (cli *CLI) loadEnvironment(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(cli.configPath)
	if err != nil {
		return err
	}

	if cli.profile != "" {
		path := cli.profilesPath
		if path == "" {
			if path, err = config.DefaultProfilesPath(); err != nil {
				return err
			}
		}
		registry, err := config.NewRegistry(path)
		if err != nil {
			return fmt.Errorf("failed to load profiles: %w", err)
		}
		profile, err := registry.GetProfile(cmd.Context(), cli.profile)
		if err != nil {
			return err
		}
		cfg.ApplyProfile(profile)
	}

	if cli.verbose {
		cfg.Log.Level = "debug"
	}
	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}

	cli.env.Config = cfg
	cli.env.Logger = logger
	cli.logCloser = closer
	return nil
}

func (cli *CLI) close() {
	_ = cli.env.Close()
	if cli.logCloser != nil {
		_ = cli.logCloser.Close()
	}
}

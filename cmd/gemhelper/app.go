package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/gemhelper/internal/config"
	"github.com/kingrea/gemhelper/internal/helper"
	"github.com/kingrea/gemhelper/internal/logging"
	"github.com/kingrea/gemhelper/internal/runner"
	"github.com/kingrea/gemhelper/internal/task"
	"github.com/kingrea/gemhelper/internal/tui"
	"github.com/kingrea/gemhelper/internal/ui"
)

// app holds the process streams and global flags. Tests swap the streams,
// the environment and the runner factory.
type app struct {
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
	lookupEnv func(string) (string, bool)
	newRunner func(a *app, logger *zap.Logger) runner.Runner

	dir       string
	name      string
	tagPrefix string
	remote    string
	verbose   bool
	progress  bool
}

func newApp() *app {
	return &app{
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		lookupEnv: os.LookupEnv,
		newRunner: execRunner,
	}
}

func execRunner(a *app, logger *zap.Logger) runner.Runner {
	return runner.NewExec(
		runner.WithLogger(logger),
		runner.WithStdio(a.stdin, a.stdout, a.stderr),
	)
}

// run executes args and returns the process exit code.
func (a *app) run(ctx context.Context, args []string) int {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		ui.New(a.stdout, a.stderr).Error("%s", strings.TrimRight(err.Error(), "\n"))
		return 1
	}
	return 0
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "gemhelper",
		Short: "Build, install and release a Ruby gem",
		Long: `gemhelper packages the gem in the current directory and drives its release.

The gemspec is discovered automatically; use --name when the directory holds
more than one. Settings are read from .gemhelper.yml and the environment
(GEM_COMMAND, gem_push, BUNDLE_GEM__PUSH_KEY, RUBYGEMS_HOST).`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&a.dir, "dir", "C", "", "gem root directory (defaults to the working directory)")
	flags.StringVar(&a.name, "name", "", "gem name, selecting <name>.gemspec")
	flags.StringVar(&a.tagPrefix, "tag-prefix", "", "prefix for release tags, e.g. v")
	flags.StringVar(&a.remote, "remote", "", "git remote to push releases to")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "trace subprocess calls")
	flags.BoolVar(&a.progress, "progress", false, "show a live progress view")

	for _, cmd := range helper.Commands {
		root.AddCommand(a.taskCommand(cmd))
	}
	root.AddCommand(a.tasksCommand())
	return root
}

func (a *app) taskCommand(def helper.Command) *cobra.Command {
	use := def.Name
	for _, arg := range def.ArgNames {
		use += " [" + arg + "]"
	}
	name := def.Name
	return &cobra.Command{
		Use:   use,
		Short: def.Summary,
		Args:  cobra.MaximumNArgs(len(def.ArgNames)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTask(cmd, name, args)
		},
	}
}

func (a *app) tasksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List tasks with descriptions for this gem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.session(cmd, a.stdout, a.stderr)
			if err != nil {
				return err
			}
			defer s.close()
			defs := s.tasks.Registry().Definitions()
			width := 0
			for _, def := range defs {
				if n := len(def.Usage()); n > width {
					width = n
				}
			}
			for _, def := range defs {
				fmt.Fprintf(a.stdout, "gemhelper %-*s  # %s\n", width, def.Usage(), def.Description)
			}
			return nil
		},
	}
}

// session is the loaded helper bound into a task runner.
type session struct {
	logger *zap.Logger
	tasks  *task.Runner
}

func (s *session) close() {
	_ = s.logger.Sync()
}

func (a *app) session(cmd *cobra.Command, out, errOut io.Writer) (*session, error) {
	logger := logging.New(a.stderr, a.verbose)
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	h, err := helper.New(cmd.Context(), cfg,
		helper.WithRunner(a.newRunner(a, logger)),
		helper.WithUI(ui.New(out, errOut)),
		helper.WithLogger(logger),
		helper.WithInteractivePush(!a.progress),
	)
	if err != nil {
		return nil, err
	}
	reg := task.NewRegistry()
	if err := helper.RegisterTasks(reg, h); err != nil {
		return nil, err
	}
	tasks, err := task.NewRunner(reg, task.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &session{logger: logger, tasks: tasks}, nil
}

func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadWithEnv(a.dir, a.lookupEnv)
	if err != nil {
		return nil, err
	}
	if a.name != "" {
		cfg.Name = a.name
	}
	if cmd.Flags().Changed("tag-prefix") {
		cfg.TagPrefix = a.tagPrefix
	}
	if a.remote != "" {
		cfg.Remote = a.remote
	}
	return cfg, nil
}

func (a *app) runTask(cmd *cobra.Command, name string, args []string) error {
	if !a.progress {
		s, err := a.session(cmd, a.stdout, a.stderr)
		if err != nil {
			return err
		}
		defer s.close()
		_, err = s.tasks.Run(cmd.Context(), name, args)
		return err
	}

	transcript := &ui.Transcript{}
	s, err := a.session(cmd, transcript, transcript)
	if err != nil {
		return err
	}
	defer s.close()
	plan, err := s.tasks.Plan(name, args)
	if err != nil {
		return err
	}
	return tui.Run(cmd.Context(), s.tasks, plan, transcript,
		tea.WithInput(a.stdin),
		tea.WithOutput(a.stdout),
	)
}

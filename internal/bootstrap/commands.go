package bootstrap

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	urfavecli "github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/chmouel/zygal/internal/buildinfo"
	"github.com/chmouel/zygal/internal/config"
	"github.com/chmouel/zygal/internal/git"
	"github.com/chmouel/zygal/internal/log"
	"github.com/chmouel/zygal/internal/prompt"
	"github.com/chmouel/zygal/internal/theme"
	"github.com/chmouel/zygal/internal/watch"
)

//go:embed templates/init.zsh
var zshInit []byte

//go:embed templates/init.bash
var bashInit []byte

// segmentCommand returns the segment subcommand definition.
func segmentCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:  "segment",
		Usage: "Print only the git segment (empty outside a repository)",
		Flags: []urfavecli.Flag{
			&urfavecli.BoolFlag{
				Name:  "escape",
				Usage: "Escape the segment for the configured shell",
			},
		},
		Action: handleSegmentAction,
	}
}

func handleSegmentAction(ctx context.Context, cmd *urfavecli.Command) error {
	rt, err := loadRuntime(ctx, cmd)
	if err != nil {
		return err
	}

	segment, err := gitSegment(ctx, newGitService(rt.cfg, stderr(cmd)), rt.cfg, rt.dir)
	if err != nil {
		return err
	}
	if segment == "" {
		return nil
	}

	segment = prompt.TruncateBranch(segment, rt.cfg.MaxBranchLength)
	if cmd.Bool("escape") {
		segment = prompt.Escape(rt.cfg.Shell, segment)
	}
	_, err = fmt.Fprintln(stdout(cmd), segment)
	return err
}

// initCommand returns the init subcommand definition.
func initCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "init",
		Usage:     "Print the shell hook that installs the prompt",
		ArgsUsage: "<zsh|bash>",
		Action:    handleInitAction,
	}
}

func handleInitAction(_ context.Context, cmd *urfavecli.Command) error {
	if cmd.NArg() == 0 {
		return fmt.Errorf("usage: zygal init <zsh|bash>")
	}

	shell := cmd.Args().First()
	out := stdout(cmd)
	switch config.NormalizeShell(shell) {
	case config.ShellZsh:
		_, err := out.Write(zshInit)
		return err
	case config.ShellBash:
		_, err := out.Write(bashInit)
		return err
	default:
		return fmt.Errorf("unsupported shell: %s (supported: zsh, bash)", shell)
	}
}

// watchCommand returns the watch subcommand definition.
func watchCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:   "watch",
		Usage:  "Refresh the git segment whenever the repository changes",
		Action: handleWatchAction,
	}
}

func handleWatchAction(ctx context.Context, cmd *urfavecli.Command) error {
	rt, err := loadRuntime(ctx, cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := newGitService(rt.cfg, stderr(cmd))
	watcher := watch.NewWatcher(svc, rt.dir, rt.cfg.WatchDebounce, git.GitDir, log.Printf)
	if err := watcher.Start(ctx); err != nil {
		if errors.Is(err, watch.ErrNotRepository) {
			return fmt.Errorf("%s: %w", rt.dir, err)
		}
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Stop()

	fetch := func(ctx context.Context) (string, bool, error) {
		segment, inRepo, err := svc.Segment(ctx, rt.dir)
		if err != nil {
			log.Printf("watch: %v", err)
			if rt.cfg.Strict {
				return "", inRepo, err
			}
			return "", inRepo, nil
		}
		return prompt.TruncateBranch(segment, rt.cfg.MaxBranchLength), inRepo, nil
	}

	out := stdout(cmd)
	file, isFile := out.(*os.File)
	if !isFile || !term.IsTerminal(int(file.Fd())) {
		return watch.Stream(ctx, out, fetch, watcher.Events())
	}

	model := watch.NewModel(ctx, prompt.DirSegment(rt.dir, rt.home), rt.cfg.ResolvedTheme(), fetch, watcher.Events())
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(file))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running watch view: %w", err)
	}
	return nil
}

// themesCommand returns the themes subcommand definition.
func themesCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:  "themes",
		Usage: "List available color themes",
		Action: func(_ context.Context, cmd *urfavecli.Command) error {
			printThemes(cmd)
			return nil
		},
	}
}

// printThemes prints available themes with their segment colors.
func printThemes(cmd *urfavecli.Command) {
	out := stdout(cmd)
	names := theme.AvailableThemes()
	sort.Strings(names)
	fmt.Fprintln(out, "Available themes (dir fg/bg, git fg/bg):")
	for _, name := range names {
		th := theme.GetTheme(name)
		marker := " "
		if name == theme.DefaultName() {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %-16s %s/%s  %s/%s\n", marker, name, th.DirFg, th.DirBg, th.GitFg, th.GitBg)
	}
}

// versionCommand returns the version subcommand definition.
func versionCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(_ context.Context, cmd *urfavecli.Command) error {
			printVersion(cmd)
			return nil
		},
	}
}

// printVersion prints version information.
func printVersion(cmd *urfavecli.Command) {
	buildinfo.Enrich()
	fmt.Fprintf(stdout(cmd), "zygal version %s\ncommit: %s\nbuilt at: %s\nbuilt by: %s\n",
		buildinfo.Version(), buildinfo.Commit(), buildinfo.Date(), buildinfo.BuiltBy())
}

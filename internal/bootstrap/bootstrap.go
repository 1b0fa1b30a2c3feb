package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	urfavecli "github.com/urfave/cli/v3"

	"github.com/chmouel/zygal/internal/buildinfo"
	"github.com/chmouel/zygal/internal/completion"
	"github.com/chmouel/zygal/internal/config"
	"github.com/chmouel/zygal/internal/git"
	"github.com/chmouel/zygal/internal/log"
	"github.com/chmouel/zygal/internal/prompt"
)

// NewCommand builds the zygal root command.
func NewCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:                  "zygal",
		Usage:                 "Render a two-line shell prompt with a compact git status",
		Version:               buildinfo.Describe(),
		EnableShellCompletion: true,
		Flags:                 globalFlags(),
		Commands: []*urfavecli.Command{
			segmentCommand(),
			initCommand(),
			watchCommand(),
			themesCommand(),
			versionCommand(),
		},
		Action:        handlePromptAction,
		ShellComplete: completeGlobalFlags,
		After: func(_ context.Context, _ *urfavecli.Command) error {
			return log.Close()
		},
	}
}

// completeGlobalFlags prints completion candidates: flag values, config keys
// or subcommands and flags.
func completeGlobalFlags(_ context.Context, cmd *urfavecli.Command) {
	names := make([]string, 0, len(cmd.Commands))
	for _, sub := range cmd.Commands {
		if !sub.Hidden {
			names = append(names, sub.Name)
		}
	}
	out := stdout(cmd)
	for _, candidate := range completion.Suggest(os.Args[1:], names) {
		fmt.Fprintln(out, candidate)
	}
}

// Run executes the command line and returns the error to report, if any.
func Run(ctx context.Context, args []string) error {
	return NewCommand().Run(ctx, args)
}

// session is the resolved state shared by every command.
type session struct {
	cfg  *config.AppConfig
	dir  string
	home string
}

func stdout(cmd *urfavecli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func stderr(cmd *urfavecli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}

// loadRuntime resolves the target directory and layers configuration:
// file, git config, then --theme/--shell and --config overrides.
func loadRuntime(ctx context.Context, cmd *urfavecli.Command) (*session, error) {
	errOut := stderr(cmd)

	debugLogFlag := cmd.String("debug-log")
	if debugLogFlag != "" {
		path := debugLogFlag
		if expanded, err := config.ExpandPath(debugLogFlag); err == nil {
			path = expanded
		}
		if err := log.SetFile(path); err != nil {
			fmt.Fprintf(errOut, "Error opening debug log file %q: %v\n", path, err)
		}
	}

	dir, err := resolveDir(cmd.String("dir"))
	if err != nil {
		return nil, err
	}

	cfg, loadErr := config.LoadConfig(ctx, cmd.String("config-file"), dir)
	if loadErr != nil {
		log.Printf("config: %v", loadErr)
		if cfg == nil {
			cfg = config.DefaultConfig()
		}
	}

	if err := applyShellFlag(cfg, cmd.String("shell")); err != nil {
		return nil, err
	}
	if err := applyThemeFlag(cfg, cmd.String("theme")); err != nil {
		return nil, err
	}

	// Apply CLI config overrides (highest precedence)
	if overrides := cmd.StringSlice("config"); len(overrides) > 0 {
		if err := cfg.ApplyCLIOverrides(overrides); err != nil {
			return nil, fmt.Errorf("error applying config overrides: %w", err)
		}
	}

	// config problems reach stderr only in strict mode
	if loadErr != nil && cfg.Strict {
		fmt.Fprintf(errOut, "Error loading config: %v\n", loadErr)
	}

	if debugLogFlag == "" {
		if cfg.DebugLog != "" {
			path := cfg.DebugLog
			if expanded, err := config.ExpandPath(cfg.DebugLog); err == nil {
				path = expanded
			}
			if err := log.SetFile(path); err != nil {
				fmt.Fprintf(errOut, "Error opening debug log file from config %q: %v\n", path, err)
			}
		} else {
			// No debug log configured, discard any buffered logs
			_ = log.SetFile("")
		}
	}

	home, _ := os.UserHomeDir()
	log.Printf("runtime: dir=%s shell=%s theme=%s", dir, cfg.Shell, cfg.Theme)
	return &session{cfg: cfg, dir: dir, home: home}, nil
}

func resolveDir(dirFlag string) (string, error) {
	if dirFlag == "" {
		return os.Getwd()
	}
	expanded, err := config.ExpandPath(dirFlag)
	if err != nil {
		return "", fmt.Errorf("error expanding dir: %w", err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

func applyShellFlag(cfg *config.AppConfig, shell string) error {
	if shell == "" {
		return nil
	}
	normalized := config.NormalizeShell(shell)
	if normalized == "" {
		return fmt.Errorf("unknown shell %q (supported: zsh, bash, plain)", shell)
	}
	cfg.Shell = normalized
	return nil
}

// applyThemeFlag applies theme configuration from command line flag.
func applyThemeFlag(cfg *config.AppConfig, themeName string) error {
	if themeName == "" {
		return nil
	}
	normalized := config.NormalizeThemeName(themeName)
	if normalized == "" {
		return fmt.Errorf("unknown theme %q", themeName)
	}
	cfg.Theme = normalized
	return nil
}

// newGitService creates a git service for prompt rendering. Notifications
// only reach stderr in strict mode; otherwise they go to the debug log.
func newGitService(cfg *config.AppConfig, errOut io.Writer) *git.Service {
	notify := func(message, severity string) {
		log.Printf("%s: %s", severity, message)
		if cfg.Strict {
			fmt.Fprintf(errOut, "Error: %s\n", message)
		}
	}
	svc := git.NewService(notify, nil)
	svc.SetTimeout(cfg.GitTimeout)
	return svc
}

// gitSegment returns the encoded git segment for dir, or "" outside a
// repository. Failures hide the segment unless strict mode is on and git
// cannot run at all.
func gitSegment(ctx context.Context, svc *git.Service, cfg *config.AppConfig, dir string) (string, error) {
	segment, inRepo, err := svc.Segment(ctx, dir)
	if err != nil {
		if cfg.Strict && errors.Is(err, git.ErrGitUnavailable) {
			return "", err
		}
		log.Printf("git segment hidden: %v", err)
		return "", nil
	}
	if !inRepo {
		return "", nil
	}
	return segment, nil
}

// handlePromptAction prints the full prompt for the configured shell.
func handlePromptAction(ctx context.Context, cmd *urfavecli.Command) error {
	rt, err := loadRuntime(ctx, cmd)
	if err != nil {
		return err
	}

	svc := newGitService(rt.cfg, stderr(cmd))
	segment, err := gitSegment(ctx, svc, rt.cfg, rt.dir)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(stdout(cmd), prompt.Render(prompt.Options{
		Shell:           rt.cfg.Shell,
		Dir:             rt.dir,
		Home:            rt.home,
		Segment:         segment,
		Theme:           rt.cfg.ResolvedTheme(),
		MaxBranchLength: rt.cfg.MaxBranchLength,
		ShowIcons:       rt.cfg.ShowIcons,
	}))
	return err
}

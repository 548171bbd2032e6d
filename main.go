// stringsync — keeps localized .strings files in sync with a base file.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/minios-linux/stringsync/config"
	"github.com/minios-linux/stringsync/langmeta"
	"github.com/minios-linux/stringsync/lockfile"
	"github.com/minios-linux/stringsync/merge"
	"github.com/minios-linux/stringsync/stringsfile"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var errUsage = errors.New("expected a base file and at least one target file")

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	configPath    string
	encodingName  string
	strictSource  bool
	stripComments bool
	trackLock     bool
	dryRun        bool
	verbose       bool
	quiet         bool
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "stringsync BASE TARGET [TARGET...]",
		Short: "Sync localized .strings files with a base file",
		Long: `stringsync rewrites each TARGET .strings file so it has exactly the keys,
order and surrounding lines of BASE. Existing translations in TARGET are kept;
keys missing from TARGET get the BASE value. Keys that are no longer in BASE
are removed.

Without arguments, the sets listed in .stringsync.yaml are synced.

Commands:
  check       Report targets that are out of sync (exit 1 if any)
  version     Show version information`,
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupLogging,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := runSync(cmd, args, dryRun)
			return err
		},
	}

	// Global persistent flags, inherited by all subcommands
	pf := root.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default ./"+config.FileName+")")
	pf.StringVar(&encodingName, "encoding", "", "File encoding: utf-16, utf-16le, utf-16be, utf-8")
	pf.BoolVar(&strictSource, "strict", false, "Fail when a target file cannot be read")
	pf.BoolVar(&stripComments, "strip-comments", false, "Drop comment and blank lines from targets")
	pf.BoolVar(&trackLock, "lock", false, "Track base values in "+lockfile.LockFileName+" and report stale translations")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Only print warnings and errors")
	root.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would change without writing")

	_ = root.RegisterFlagCompletionFunc("encoding", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"utf-16", "utf-16le", "utf-16be", "utf-8"}, cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(
		newCheckCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("stringsync failed")
		os.Exit(1)
	}
}

func setupLogging(cmd *cobra.Command, args []string) error {
	switch {
	case verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case quiet:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	return nil
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "stringsync version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// check (dry run, fails when anything is out of sync)
// ---------------------------------------------------------------------------

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check BASE TARGET [TARGET...]",
		Short: "Report targets that are out of sync",
		Long: `Compare every TARGET with what a sync against BASE would produce.
No file is written. Exits with status 1 when at least one target differs,
which makes it usable as a CI gate.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			changed, err := runSync(cmd, args, true)
			if err != nil {
				return err
			}
			if changed > 0 {
				return fmt.Errorf("%d target(s) out of sync", changed)
			}
			log.Info().Msg("All targets are in sync")
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// sync
// ---------------------------------------------------------------------------

// job is one base file and its targets.
type job struct {
	name    string
	base    string
	targets []string
}

// loadConfig applies config file, environment and flags, in increasing
// order of precedence.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("encoding") {
		enc, err := stringsfile.ParseEncoding(encodingName)
		if err != nil {
			return nil, err
		}
		cfg.Encoding = enc
	}
	if flags.Changed("strict") {
		cfg.StrictSource = strictSource
	}
	if flags.Changed("strip-comments") {
		cfg.StripComments = stripComments
	}
	if flags.Changed("lock") {
		cfg.Lock = trackLock
	}
	return cfg, nil
}

// resolveJobs turns positional arguments, or the configured sets when
// there are none, into jobs.
func resolveJobs(args []string, cfg *config.Config) ([]job, error) {
	switch {
	case len(args) >= 2:
		return []job{{name: "cli", base: args[0], targets: args[1:]}}, nil
	case len(args) == 0 && len(cfg.Sets) > 0:
		jobs := make([]job, 0, len(cfg.Sets))
		for _, s := range cfg.Sets {
			jobs = append(jobs, job{name: s.Name, base: s.Base, targets: s.Targets})
		}
		return jobs, nil
	}
	return nil, errUsage
}

// runSync syncs (or, with dry, only compares) every job and returns the
// number of targets that differ from the synced result.
func runSync(cmd *cobra.Command, args []string, dry bool) (int, error) {
	// One path can never be valid, whatever the config says.
	if len(args) == 1 {
		_ = cmd.Usage()
		return 0, errUsage
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return 0, err
	}
	jobs, err := resolveJobs(args, cfg)
	if err != nil {
		_ = cmd.Usage()
		return 0, err
	}

	var lock *lockfile.LockFile
	if cfg.Lock {
		if lock, err = lockfile.Load(cfg.Dir); err != nil {
			return 0, err
		}
	}

	opts := merge.Options{
		Encoding:      cfg.Encoding,
		StripComments: cfg.StripComments,
		StrictSource:  cfg.StrictSource,
		DryRun:        dry,
	}
	opts.OnTarget = func(r *merge.Result) {
		reportTarget(r, opts, lock)
	}

	log.Debug().
		Str("encoding", cfg.Encoding.String()).
		Bool("strict_source", cfg.StrictSource).
		Bool("strip_comments", cfg.StripComments).
		Bool("lock", cfg.Lock).
		Str("config", cfg.Path).
		Msg("Configuration")

	changed := 0
	for _, j := range jobs {
		log.Info().Str("set", j.name).Str("base", j.base).Int("targets", len(j.targets)).Msg("Syncing from base")

		sum, err := merge.Run(j.base, j.targets, opts)
		if sum != nil {
			changed += sum.Changed()
		}
		if err != nil {
			if lockErr := saveLock(lock, dry); lockErr != nil {
				log.Error().Err(lockErr).Msg("Saving lock file")
			}
			return changed, fmt.Errorf("set %s: %w", j.name, err)
		}
	}

	return changed, saveLock(lock, dry)
}

// reportTarget logs the outcome for one target and updates lock tracking.
func reportTarget(r *merge.Result, opts merge.Options, lock *lockfile.LockFile) {
	meta, hasMeta := langmeta.FromPath(r.Path)
	ev := func(e *zerolog.Event) *zerolog.Event {
		return e.Str("target", r.Path).Func(func(e *zerolog.Event) {
			if !hasMeta {
				return
			}
			e.Str("lang", meta.Code).Str("language", meta.English)
			if meta.Name != meta.English {
				e.Str("native", meta.Name)
			}
			if meta.Flag != "" {
				e.Str("flag", meta.Flag)
			}
		})
	}

	if r.Missing {
		ev(log.Warn()).Err(r.LoadErr).Msg("Target not readable, treating it as untranslated")
	}

	msg := "Up to date"
	switch {
	case r.Changed && opts.DryRun:
		msg = "Out of sync"
	case r.Written:
		msg = "Updated"
	}
	e := ev(log.Info()).
		Int("kept", len(r.Kept)).
		Int("fallback", len(r.Fallback)).
		Int("dropped", len(r.Dropped))
	if opts.StripComments {
		e = e.Int("suppressed", r.Suppressed)
	}
	e.Msg(msg)

	if len(r.Fallback) > 0 {
		ev(log.Debug()).Strs("keys", r.Fallback).Msg("Untranslated keys use the base value")
	}
	if len(r.Dropped) > 0 {
		ev(log.Debug()).Strs("keys", r.Dropped).Msg("Removed keys no longer in base")
	}

	if lock == nil {
		return
	}
	key := lock.TargetKey(r.Path)
	if stale := lock.Stale(key, r.Kept, r.BaseValues); len(stale) > 0 {
		ev(log.Warn()).Strs("keys", stale).Msg("Base text changed, translations may be stale")
	}
	if !opts.DryRun {
		lock.Record(key, r.BaseValues)
	}
}

func saveLock(lock *lockfile.LockFile, dry bool) error {
	if lock == nil || dry {
		return nil
	}
	if err := lock.Save(); err != nil {
		return err
	}
	log.Debug().Str("path", lock.Path()).Str("summary", lock.Summary()).Msg("Lock file saved")
	return nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/KaramelBytes/chartloom/internal/dataset"
	"github.com/KaramelBytes/chartloom/internal/session"
	"github.com/KaramelBytes/chartloom/internal/share"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var (
	watchFlags    chartFlags
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-share a data file every time it changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if path == "-" || strings.Contains(path, "://") {
			return fmt.Errorf("watch needs a local file, got %s", path)
		}
		out := cmd.OutOrStdout()
		base := settings().ShareBaseURL
		s := newSession()
		reload := func() {
			ds, err := loadSource(cmd.Context(), path, nil)
			if err != nil {
				fmt.Fprintf(os.Stderr, "⚠ Warning: reload %s: %v\n", path, err)
				return
			}
			reshare(out, os.Stderr, s, ds, path, base, func(s *session.Session) error {
				return watchFlags.apply(cmd, s)
			})
		}
		reload()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(os.Stderr, "✓ Watching %s (Ctrl+C to stop)\n", path)
		return watchFile(ctx, path, watchDebounce, reload)
	},
}

// reshare loads ds into s, applies the chart overrides and prints a fresh
// link. When the new state does not fit in a token nothing is printed to out:
// the session still holds the previous token, which no longer matches the file.
func reshare(out, warn io.Writer, s *session.Session, ds *dataset.Dataset, name, base string, apply func(*session.Session) error) {
	s.LoadDataset(ds)
	if apply != nil {
		if err := apply(s); err != nil {
			fmt.Fprintf(warn, "⚠ Warning: %v\n", err)
		}
	}
	tok, err := s.RequestShare()
	switch {
	case errors.Is(err, share.ErrTokenTooLarge):
		fmt.Fprintf(warn, "⚠ Warning: %s is too large to share; the last printed link is stale\n", name)
		return
	case err != nil:
		fmt.Fprintf(warn, "⚠ Warning: share %s: %v\n", name, err)
		return
	}
	fmt.Fprintf(out, "%s  %s\n", time.Now().Format(time.TimeOnly), share.ShareURL(base, tok))
}

// watchFile calls onChange after path is written, created or renamed into
// place, once per burst of events within debounce. The parent directory is
// watched so that editors replacing the file are still seen. It returns
// when ctx is done.
func watchFile(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	var fire <-chan time.Time
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("file event", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			onChange()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchFlags.register(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 200*time.Millisecond, "wait this long after the last change before reloading")
}

package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const watchDebounce = 300 * time.Millisecond

var watchSkipDirs = map[string]bool{
	"node_modules":     true,
	".git":             true,
	"bower_components": true,
	".phpsniff":        true,
}

func newWatchCmd(d deps) *cobra.Command {
	var (
		flags   runFlags
		fix     bool
		maxRuns int
	)

	cmd := &cobra.Command{
		Use:   "watch [dirs...]",
		Short: "Re-scan PHP files as they change",
		Long:  "Watch directories recursively and scan every .php file written or created, in debounced batches.",
		RunE: func(cmd *cobra.Command, args []string) error {
			roots := args
			if len(roots) == 0 {
				roots = []string{"."}
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("watch init failed: %w", err)
			}
			defer watcher.Close()

			for _, root := range roots {
				info, err := os.Stat(root)
				if err != nil {
					return fmt.Errorf("watching %s: %w", root, err)
				}
				if !info.IsDir() {
					return fmt.Errorf("watching %s: not a directory", root)
				}
				if err := addWatchRecursive(watcher, root); err != nil {
					return fmt.Errorf("watching %s: %w", root, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for PHP changes\n", strings.Join(roots, ", "))

			ctx := cmd.Context()
			pending := make(map[string]bool)
			var (
				timer  *time.Timer
				timerC <-chan time.Time
				runs   int
			)

			for {
				select {
				case <-ctx.Done():
					return nil
				case ev, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if ev.Has(fsnotify.Create) {
						if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
							if err := addWatchRecursive(watcher, ev.Name); err != nil {
								slog.Warn("watching new directory failed", "dir", ev.Name, "error", err)
							}
							continue
						}
					}
					if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
						continue
					}
					if !strings.HasSuffix(ev.Name, ".php") {
						continue
					}
					pending[ev.Name] = true
					if timer == nil {
						timer = time.NewTimer(watchDebounce)
					} else {
						timer.Reset(watchDebounce)
					}
					timerC = timer.C
				case <-timerC:
					timerC = nil
					files := drainPending(pending)
					if len(files) == 0 {
						continue
					}
					if err := runSession(cmd, d, &flags, files, fix); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
					}
					runs++
					if maxRuns > 0 && runs >= maxRuns {
						return nil
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					slog.Warn("watch error", "error", err)
				}
			}
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&fix, "fix", false, "Apply phpcbf to fixable files after each scan")
	cmd.Flags().IntVar(&maxRuns, "max-runs", 0, "Exit after this many scans (0 watches until interrupted)")

	return cmd
}

// drainPending returns the pending files that still exist, sorted, and
// empties the set.
func drainPending(pending map[string]bool) []string {
	files := make([]string, 0, len(pending))
	for f := range pending {
		delete(pending, f)
		if _, err := os.Stat(f); err == nil {
			files = append(files, f)
		}
	}
	sort.Strings(files)
	return files
}

func addWatchRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root && watchSkipDirs[entry.Name()] {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

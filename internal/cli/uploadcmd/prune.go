// Package uploadcmd finds stored images no fault references any more.
package uploadcmd

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cuihairu/faultline/internal/cli/common"
	"github.com/cuihairu/faultline/internal/ingest"
	"github.com/cuihairu/faultline/internal/platform/objstore"
	"github.com/cuihairu/faultline/internal/repo/gorm/faults"
	"github.com/spf13/cobra"
)

type Options struct {
	// MinAge protects uploads of requests still in flight.
	MinAge time.Duration
	DryRun bool
	Now    time.Time
}

type Report struct {
	Scanned  int
	Orphans  []string
	Removed  int
	Failures int
}

// storedAt reads the unix-millis prefix ingest puts on every stored name.
func storedAt(key string) (time.Time, bool) {
	prefix, _, ok := strings.Cut(key, "-")
	if !ok {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// Prune deletes keys in store that are not among referenced image urls.
// Keys not named by the ingest pipeline are left alone.
func Prune(ctx context.Context, store objstore.Store, referenced []string, opts Options) (Report, error) {
	var rep Report
	lister, ok := store.(objstore.Lister)
	if !ok {
		return rep, fmt.Errorf("storage driver cannot list objects")
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	keep := make(map[string]struct{}, len(referenced))
	for _, u := range referenced {
		if k, ok := ingest.KeyFromURL(u); ok {
			keep[k] = struct{}{}
		}
	}
	keys, err := lister.List(ctx)
	if err != nil {
		return rep, fmt.Errorf("list uploads: %w", err)
	}
	sort.Strings(keys)
	rep.Scanned = len(keys)
	for _, k := range keys {
		if _, ok := keep[k]; ok {
			continue
		}
		at, ok := storedAt(k)
		if !ok || opts.Now.Sub(at) < opts.MinAge {
			continue
		}
		rep.Orphans = append(rep.Orphans, k)
		if opts.DryRun {
			continue
		}
		if err := store.Delete(ctx, k); err != nil {
			rep.Failures++
			slog.Warn("prune: delete failed", "key", k, "err", err)
			continue
		}
		rep.Removed++
	}
	return rep, nil
}

// NewPrune returns the `faultctl prune-uploads` command.
func NewPrune() *cobra.Command {
	var opts Options
	cmd := &cobra.Command{
		Use:   "prune-uploads",
		Short: "Delete stored images that no fault references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := common.FromCommand(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store, err := objstore.Open(ctx, common.StorageConfig(v))
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			gdb, err := common.OpenDB(v)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			if sqlDB, err := gdb.DB(); err == nil {
				defer sqlDB.Close()
			}
			urls, err := faults.NewRepo(gdb).ImageURLs(ctx)
			if err != nil {
				return err
			}
			rep, err := Prune(ctx, store, urls, opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, k := range rep.Orphans {
				fmt.Fprintln(out, k)
			}
			slog.Info("prune finished", "scanned", rep.Scanned, "orphans", len(rep.Orphans), "removed", rep.Removed, "failed", rep.Failures, "dry_run", opts.DryRun)
			if rep.Failures > 0 {
				return fmt.Errorf("%d uploads could not be removed", rep.Failures)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "list orphans without deleting")
	cmd.Flags().DurationVar(&opts.MinAge, "min-age", time.Hour, "skip uploads younger than this")
	return cmd
}

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"reelcache/internal/logging"
	"reelcache/internal/resolve"
	"reelcache/internal/services"
	"reelcache/internal/store"
	"reelcache/internal/tmdb"
)

// populateSummary reports one kind's run. Fresh titles were already cached
// and left untouched.
type populateSummary struct {
	Kind    string `json:"kind"`
	Listed  int    `json:"listed"`
	Cached  int64  `json:"cached"`
	Fresh   int64  `json:"fresh"`
	Skipped int64  `json:"skipped"`
}

// populateTally counts CacheTitle outcomes across workers.
type populateTally struct {
	start   time.Time
	cached  atomic.Int64
	fresh   atomic.Int64
	skipped atomic.Int64
}

// add records one CacheTitle result and reports whether the title was
// skipped over a catalog failure. A record stamped before the run started
// was fresh. Cancellation is returned even when the catalog client wrapped
// it in a catalog error.
func (t *populateTally) add(ctx context.Context, rec *store.TitleRecord, err error) (bool, error) {
	switch {
	case err == nil && rec != nil && rec.Timestamp.Before(t.start):
		t.fresh.Add(1)
		return false, nil
	case err == nil:
		t.cached.Add(1)
		return false, nil
	case ctx.Err() != nil:
		return false, ctx.Err()
	case tmdb.IsCatalogError(err):
		t.skipped.Add(1)
		return true, nil
	default:
		return false, err
	}
}

func newPopulateCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string
	var limit int
	var force bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "populate",
		Short: "Cache the most popular titles from the catalog",
		Long: `Page through the catalog's discover listing, most popular first, and cache
each title until --limit titles have been processed. Titles that are cached
and fresh are left alone unless --force is given. Only one populate run may
hold the data directory at a time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := populateKinds(kindFlag)
			if err != nil {
				return err
			}
			if limit <= 0 {
				return services.Wrap(services.ErrValidation, "populate", "flags", "--limit must be positive", nil)
			}

			return ctx.withRuntime(cmd, func(rt *runtime) error {
				lock := flock.New(rt.cfg.LockPath())
				locked, err := lock.TryLock()
				if err != nil {
					return services.Wrap(services.ErrStorage, "populate", "lock", rt.cfg.LockPath(), err)
				}
				if !locked {
					return fmt.Errorf("another populate run holds %s", rt.cfg.LockPath())
				}
				defer func() { _ = lock.Unlock() }()

				summaries := make([]populateSummary, 0, len(kinds))
				for _, kind := range kinds {
					summary, err := populateKind(cmd.Context(), rt, kind, limit, force)
					summaries = append(summaries, summary)
					if err != nil {
						return err
					}
				}

				if jsonOut {
					return writeJSON(cmd, summaries)
				}
				rows := make([][]string, 0, len(summaries))
				for _, s := range summaries {
					rows = append(rows, []string{
						s.Kind,
						humanize.Comma(int64(s.Listed)),
						humanize.Comma(s.Cached),
						humanize.Comma(s.Fresh),
						humanize.Comma(s.Skipped),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Kind", "Listed", "Cached", "Fresh", "Skipped"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", "all", "Kind to populate: movie, tv, or all")
	cmd.Flags().IntVar(&limit, "limit", 1000, "Titles to process per kind")
	cmd.Flags().BoolVar(&force, "force", false, "Refetch titles that are already cached and fresh")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func populateKinds(value string) ([]resolve.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "all":
		return []resolve.Kind{resolve.Movie, resolve.TV}, nil
	default:
		kind, err := resolve.KindByName(value)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "populate", "flags", "--kind", err)
		}
		return []resolve.Kind{kind}, nil
	}
}

// populateKind caches up to limit discover results of kind. Catalog failures
// skip the title; store failures abort the run.
func populateKind(ctx context.Context, rt *runtime, kind resolve.Kind, limit int, force bool) (populateSummary, error) {
	summary := populateSummary{Kind: kind.Name}
	logger := logging.NewComponentLogger(rt.logger, "populate").With(logging.String(logging.FieldKind, kind.Name))

	tally := &populateTally{start: time.Now()}
	p := pool.New().
		WithMaxGoroutines(max(rt.cfg.Batch.Concurrency, 1)).
		WithContext(ctx).
		WithCancelOnError()

	seen := make(map[int64]struct{})
	var listErr error
	for page := 1; len(seen) < limit; page++ {
		res, err := rt.catalog.Discover(ctx, kind.Name, page)
		if err != nil {
			listErr = err
			break
		}
		for _, d := range res.Results {
			if len(seen) >= limit {
				break
			}
			if _, dup := seen[d.ID]; dup || d.ID <= 0 {
				continue
			}
			seen[d.ID] = struct{}{}
			id, language := d.ID, d.OriginalLanguage
			p.Go(func(ctx context.Context) error {
				rec, err := rt.engine.CacheTitle(ctx, kind, id, language, force)
				skipped, tallyErr := tally.add(ctx, rec, err)
				if skipped {
					logging.WarnWithContext(logger, "skipping title", "populate_title_failed",
						logging.Int64(logging.FieldTMDBID, id),
						logging.Error(err),
						logging.String(logging.FieldImpact, "title not cached"),
					)
				}
				return tallyErr
			})
		}
		if len(res.Results) == 0 || page >= res.TotalPages {
			break
		}
	}

	waitErr := p.Wait()
	summary.Listed = len(seen)
	summary.Cached = tally.cached.Load()
	summary.Fresh = tally.fresh.Load()
	summary.Skipped = tally.skipped.Load()

	if waitErr != nil {
		if errors.Is(waitErr, context.Canceled) {
			return summary, waitErr
		}
		return summary, services.Wrap(services.ErrStorage, "populate", kind.Name, "", waitErr)
	}
	if listErr != nil {
		if errors.Is(listErr, context.Canceled) {
			return summary, listErr
		}
		return summary, services.Wrap(services.ErrCatalog, "populate", "discover "+kind.Name, "", listErr)
	}
	logger.Info("populate finished",
		logging.String(logging.FieldEventType, "populate_complete"),
		logging.Int("listed", summary.Listed),
		logging.Int64("cached", summary.Cached),
		logging.Int64("fresh", summary.Fresh),
		logging.Int64("skipped", summary.Skipped),
	)
	return summary, nil
}

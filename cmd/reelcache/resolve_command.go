package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"reelcache/internal/logging"
	"reelcache/internal/resolve"
	"reelcache/internal/services"
)

type resolveFlags struct {
	titles       []string
	year         int
	directors    []string
	actors       []string
	others       []string
	countries    []string
	tv           bool
	season       int
	episode      int
	subtitles    []string
	episodeYears []int
	force        bool
	minScore     float64
	json         bool
	pruneOrphans bool
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var flags resolveFlags

	cmd := &cobra.Command{
		Use:   "resolve [title]",
		Short: "Resolve a title against the cache and TMDB",
		Long: `Resolve a movie or TV show from free-text metadata. The local cache is
consulted first; TMDB is searched by person and title only when no cached
record matches confidently. With --tv and --season the matching episode is
resolved as well.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				flags.titles = append([]string{args[0]}, flags.titles...)
			}
			req, epReq := flags.requests(cmd)
			return ctx.withRuntime(cmd, func(rt *runtime) error {
				runCtx := services.WithRequestID(cmd.Context(), uuid.NewString())
				runCtx = services.WithKind(runCtx, req.Kind.Name)
				res, err := resolveOne(runCtx, rt, req, epReq)
				if err != nil {
					var orphan *resolve.OrphanError
					if flags.pruneOrphans && errors.As(err, &orphan) {
						if err := pruneOrphan(runCtx, rt, orphan); err != nil {
							return err
						}
						fmt.Fprintf(cmd.OutOrStdout(), "Removed orphaned %s record %d; no match\n", orphan.Kind, orphan.TMDBID)
						return nil
					}
					return err
				}
				view := newResolvedView(runCtx, res)
				if flags.json {
					return writeJSON(cmd, view)
				}
				if view == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "No match")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderKeyValues(view.pairs()))
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&flags.titles, "title", "t", nil, "Title to match (repeatable)")
	f.IntVarP(&flags.year, "year", "y", 0, "Release year")
	f.StringArrayVar(&flags.directors, "director", nil, "Director name (repeatable)")
	f.StringArrayVar(&flags.actors, "actor", nil, "Actor name (repeatable)")
	f.StringArrayVar(&flags.others, "other", nil, "Other crew member (repeatable)")
	f.StringArrayVar(&flags.countries, "country", nil, "Production country name or ISO code (repeatable)")
	f.BoolVar(&flags.tv, "tv", false, "Resolve a TV show instead of a movie")
	f.IntVar(&flags.season, "season", 0, "Season number (TV)")
	f.IntVar(&flags.episode, "episode", 0, "Episode number (TV)")
	f.StringArrayVar(&flags.subtitles, "subtitle", nil, "Episode title (TV, repeatable)")
	f.IntSliceVar(&flags.episodeYears, "episode-year", nil, "Episode air year (TV, repeatable)")
	f.BoolVar(&flags.force, "force", false, "Search TMDB and refresh even when the cache matches")
	f.Float64Var(&flags.minScore, "min-score", 0, "Override the final score threshold")
	f.BoolVar(&flags.json, "json", false, "Print the match as JSON")
	f.BoolVar(&flags.pruneOrphans, "prune-orphans", false, "Delete a cached record whose TMDB entry no longer exists")

	return cmd
}

func (f resolveFlags) requests(cmd *cobra.Command) (resolve.Request, resolve.EpisodeRequest) {
	req := resolve.Request{
		Kind:     kindFromFlag(f.tv),
		Titles:   f.titles,
		Year:     f.year,
		Director: f.directors,
		Actor:    f.actors,
		Other:    f.others,
		Country:  f.countries,
		Force:    f.force,
		MinScore: f.minScore,
	}
	epReq := resolve.EpisodeRequest{
		Subtitles:    f.subtitles,
		EpisodeYears: f.episodeYears,
		Force:        f.force,
	}
	if cmd.Flags().Changed("season") {
		season := f.season
		epReq.Season = &season
	}
	if cmd.Flags().Changed("episode") {
		episode := f.episode
		epReq.Episode = &episode
	}
	return req, epReq
}

// resolveOne runs a title lookup, chaining the episode lookup for TV
// requests that carry episode criteria.
func resolveOne(ctx context.Context, rt *runtime, req resolve.Request, epReq resolve.EpisodeRequest) (*resolve.Resolved, error) {
	var (
		res *resolve.Resolved
		err error
	)
	if req.Kind.Name == resolve.TV.Name && epReq.HasEpisode() {
		res, err = rt.engine.ResolveShow(ctx, req, epReq)
	} else {
		res, err = rt.engine.ResolveTitle(ctx, req)
	}
	if errors.Is(err, resolve.ErrInvalidRequest) {
		return nil, services.Wrap(services.ErrValidation, "resolve", "request", "", err)
	}
	return res, err
}

func pruneOrphan(ctx context.Context, rt *runtime, orphan *resolve.OrphanError) error {
	if err := rt.store.DeleteTitle(ctx, orphan.Kind, orphan.TMDBID); err != nil {
		return services.Wrap(services.ErrStorage, "store", "prune orphan", orphan.ID, err)
	}
	logging.WithContext(ctx, rt.logger).Info("removed orphaned record",
		logging.String(logging.FieldKind, orphan.Kind),
		logging.Int64(logging.FieldTMDBID, orphan.TMDBID),
	)
	return nil
}

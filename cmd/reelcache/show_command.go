package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"reelcache/internal/services"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var tv bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <tmdb-id>",
		Short: "Display a cached record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmdbID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || tmdbID <= 0 {
				return services.Wrap(services.ErrValidation, "show", "args", "tmdb id must be a positive integer", err)
			}
			kind := kindFromFlag(tv)

			return ctx.withRuntime(cmd, func(rt *runtime) error {
				res, err := rt.engine.Cached(cmd.Context(), kind, tmdbID)
				if err != nil {
					return services.Wrap(services.ErrStorage, "show", "get", "", err)
				}
				if res == nil {
					return fmt.Errorf("%s %d is not cached", kind.Name, tmdbID)
				}
				view := newResolvedView(cmd.Context(), res)
				if jsonOut {
					return writeJSON(cmd, view)
				}
				pairs := view.pairs()
				// Score is meaningless for a direct read.
				filtered := pairs[:0]
				for _, p := range pairs {
					if p[0] != "Score" {
						filtered = append(filtered, p)
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderKeyValues(filtered))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&tv, "tv", false, "Look up a TV show instead of a movie")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

package main

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"reelcache/internal/services"
)

type indexCount struct {
	Index     string `json:"index"`
	Documents int    `json:"documents"`
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show document counts per index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *runtime) error {
				counts, err := rt.store.Counts(cmd.Context())
				if err != nil {
					return services.Wrap(services.ErrStorage, "stats", "count", "", err)
				}
				stats := make([]indexCount, 0, len(counts))
				for name, n := range counts {
					stats = append(stats, indexCount{Index: name, Documents: n})
				}
				sort.Slice(stats, func(i, j int) bool { return stats[i].Index < stats[j].Index })

				if jsonOut {
					return writeJSON(cmd, stats)
				}
				rows := make([][]string, 0, len(stats))
				total := 0
				for _, s := range stats {
					rows = append(rows, []string{s.Index, humanize.Comma(int64(s.Documents))})
					total += s.Documents
				}
				rows = append(rows, []string{"total", humanize.Comma(int64(total))})
				fmt.Fprintf(cmd.OutOrStdout(), "Backend: %s\n", rt.cfg.Store.Backend)
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Index", "Documents"}, rows,
					[]columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

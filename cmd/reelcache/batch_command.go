package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"reelcache/internal/logging"
	"reelcache/internal/resolve"
	"reelcache/internal/services"
)

// batchLine is one parsed input line.
type batchLine struct {
	number int
	ref    string
	req    resolve.Request
	epReq  resolve.EpisodeRequest
	err    error
}

// batchResult is one JSONL output line.
type batchResult struct {
	Line      int           `json:"line"`
	Ref       string        `json:"ref,omitempty"`
	RequestID string        `json:"request_id"`
	Match     *resolvedView `json:"match"`
	Error     string        `json:"error,omitempty"`
}

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var concurrency int
	var force bool

	cmd := &cobra.Command{
		Use:   "batch <file.jsonl|->",
		Short: "Resolve a JSONL file of requests concurrently",
		Long: `Resolve one request per input line and write one JSON result per line, in
input order. Each line is an object with any of: title, year, director, actor,
other, country, tv, season, episode, subtitle, episode_year, force, min_score,
and ref (echoed back). Values may be strings or numbers; list fields accept a
single value or an array.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, closeInput, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeInput()

			lines, err := readBatch(input)
			if err != nil {
				return services.Wrap(services.ErrValidation, "batch", "read input", args[0], err)
			}
			if force {
				for i := range lines {
					lines[i].req.Force = true
					lines[i].epReq.Force = true
				}
			}

			return ctx.withRuntime(cmd, func(rt *runtime) error {
				workers := concurrency
				if workers <= 0 {
					workers = rt.cfg.Batch.Concurrency
				}
				results := runBatch(cmd.Context(), rt, lines, workers)

				failed := 0
				out := cmd.OutOrStdout()
				for _, res := range results {
					if res.Error != "" {
						failed++
					}
					if err := writeJSONLine(out, res); err != nil {
						return err
					}
				}
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d batch requests failed", failed, len(results))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Parallel resolutions (default: batch.concurrency)")
	cmd.Flags().BoolVar(&force, "force", false, "Force a catalog search for every line")
	return cmd
}

func openInput(cmd *cobra.Command, name string) (io.Reader, func(), error) {
	if name == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, services.Wrap(services.ErrValidation, "batch", "open input", name, err)
	}
	return f, func() { f.Close() }, nil
}

// runBatch resolves lines on a bounded pool. Results keep input order.
func runBatch(ctx context.Context, rt *runtime, lines []batchLine, workers int) []batchResult {
	results := make([]batchResult, len(lines))
	p := pool.New().WithMaxGoroutines(max(workers, 1))
	for i, line := range lines {
		requestID := uuid.NewString()
		results[i] = batchResult{Line: line.number, Ref: line.ref, RequestID: requestID}
		if line.err != nil {
			results[i].Error = line.err.Error()
			continue
		}
		p.Go(func() {
			lineCtx := services.WithRequestID(ctx, requestID)
			lineCtx = services.WithKind(lineCtx, line.req.Kind.Name)
			res, err := resolveOne(lineCtx, rt, line.req, line.epReq)
			if err != nil {
				logging.WarnWithContext(logging.WithContext(lineCtx, rt.logger), "batch line failed", "batch_line_failed",
					logging.Int("line", line.number),
					logging.Error(err),
					logging.String(logging.FieldImpact, "line reported with an error"),
				)
				results[i].Error = err.Error()
				return
			}
			results[i].Match = newResolvedView(lineCtx, res)
		})
	}
	p.Wait()
	return results
}

func readBatch(r io.Reader) ([]batchLine, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	var lines []batchLine
	number := 0
	for scanner.Scan() {
		number++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var raw map[string]any
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			lines = append(lines, batchLine{number: number, err: fmt.Errorf("line %d: %w", number, err)})
			continue
		}
		line, err := parseBatchLine(raw)
		line.number = number
		if err != nil {
			line.err = fmt.Errorf("line %d: %w", number, err)
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

func parseBatchLine(raw map[string]any) (batchLine, error) {
	var line batchLine
	var errs []error
	field := func(name string, fn func(any) error) {
		if v, ok := raw[name]; ok && v != nil {
			if err := fn(v); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
	}

	line.ref = cast.ToString(raw["ref"])
	line.req.Kind = resolve.Movie
	field("tv", func(v any) error {
		tv, err := cast.ToBoolE(v)
		line.req.Kind = kindFromFlag(tv)
		return err
	})
	field("title", func(v any) (err error) { line.req.Titles, err = stringList(v); return })
	field("year", func(v any) (err error) { line.req.Year, err = cast.ToIntE(v); return })
	field("director", func(v any) (err error) { line.req.Director, err = stringList(v); return })
	field("actor", func(v any) (err error) { line.req.Actor, err = stringList(v); return })
	field("other", func(v any) (err error) { line.req.Other, err = stringList(v); return })
	field("country", func(v any) (err error) { line.req.Country, err = stringList(v); return })
	field("force", func(v any) (err error) { line.req.Force, err = cast.ToBoolE(v); return })
	field("min_score", func(v any) (err error) { line.req.MinScore, err = cast.ToFloat64E(v); return })
	field("season", func(v any) error {
		n, err := cast.ToIntE(v)
		line.epReq.Season = &n
		return err
	})
	field("episode", func(v any) error {
		n, err := cast.ToIntE(v)
		line.epReq.Episode = &n
		return err
	})
	field("subtitle", func(v any) (err error) { line.epReq.Subtitles, err = stringList(v); return })
	field("episode_year", func(v any) error {
		if _, ok := v.([]any); !ok {
			v = []any{v}
		}
		years, err := cast.ToIntSliceE(v)
		line.epReq.EpisodeYears = years
		return err
	})
	line.epReq.Force = line.req.Force
	return line, errors.Join(errs...)
}

// stringList accepts a single string or a list of scalars.
func stringList(v any) ([]string, error) {
	if s, ok := v.(string); ok {
		return []string{s}, nil
	}
	return cast.ToStringSliceE(v)
}

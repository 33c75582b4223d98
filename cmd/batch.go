package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/klarifikasi/klarifikasi-api/internal/model"
)

var (
	batchConcurrency int
	batchFormat      string
	batchUser        int64
	batchLimit       int
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Check every claim in a file (one per line, - for stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		claims, err := loadClaims(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		if batchLimit > 0 && len(claims) > batchLimit {
			claims = claims[:batchLimit]
		}

		env, err := initApp(ctx, "check")
		if err != nil {
			return err
		}
		defer env.Close()

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.Concurrency
		}
		userID := userFlag(batchUser)
		results, err := processBatch(ctx, claims, concurrency, func(ctx context.Context, claim string) (*model.CheckResponse, error) {
			return env.Checker.Check(ctx, claim, userID)
		})
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), results, batchFormat)
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "parallel checks (default from config)")
	batchCmd.Flags().StringVar(&batchFormat, "format", "json", "output format: json or yaml")
	batchCmd.Flags().Int64Var(&batchUser, "user", 0, "record history for this user id (0 = anonymous)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of claims to check (0 = all)")
	rootCmd.AddCommand(batchCmd)
}

// loadClaims reads path, or stdin when path is "-".
func loadClaims(path string, stdin io.Reader) ([]string, error) {
	if path == "-" {
		return readClaims(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return readClaims(f)
}

// readClaims returns the non-empty lines of r, skipping # comments.
func readClaims(r io.Reader) ([]string, error) {
	var claims []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		claims = append(claims, line)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "batch: read claims")
	}
	return claims, nil
}

// checkFunc runs one claim check.
type checkFunc func(ctx context.Context, claim string) (*model.CheckResponse, error)

// batchResult is one line of batch output, in input order.
type batchResult struct {
	Claim    string               `json:"claim"`
	Response *model.CheckResponse `json:"response,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// processBatch checks claims concurrently. Individual failures are recorded
// in the result and do not abort the batch.
func processBatch(ctx context.Context, claims []string, concurrency int, check checkFunc) ([]batchResult, error) {
	results := make([]batchResult, len(claims))
	if len(claims) == 0 {
		zap.L().Info("no claims to check")
		return results, nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("claims", len(claims)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for i, claim := range claims {
		g.Go(func() error {
			log := zap.L().With(zap.String("claim", claim))
			results[i].Claim = claim

			resp, err := check(gctx, claim)
			if err != nil {
				failed.Add(1)
				results[i].Error = err.Error()
				log.Error("check failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			results[i].Response = resp
			log.Info("check complete", zap.String("result", summarize(resp)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return results, nil
}

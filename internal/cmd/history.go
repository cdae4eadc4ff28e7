package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chatlens/chatlens/internal/core/store"
	errwrap "github.com/chatlens/chatlens/internal/errors"
	"github.com/chatlens/chatlens/internal/observability"
	"github.com/chatlens/chatlens/internal/output"
)

var (
	historyKey   string
	historyLimit int
	purgeOlder   time.Duration
	clearKey     string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded chat exchanges",
	Long: `List recorded chat exchanges, newest first.

Use --key to filter by session key and --limit to control the page
size. Output format and file sinks follow the standard --output-format
and --out flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return errwrap.WrapInvalidInput(ctx, err, "invalid output format")
		}

		outPath, err := cmd.Flags().GetString("out")
		if err != nil {
			return err
		}

		db, err := openStore(ctx)
		if err != nil {
			return errwrap.WrapDatabaseError(ctx, err, "failed to open exchange store")
		}
		defer func() { _ = db.Close() }()

		exchanges, err := db.ListExchanges(ctx, store.ExchangeQuery{
			Key:   strings.TrimSpace(historyKey),
			Limit: historyLimit,
		})
		if err != nil {
			return errwrap.WrapDatabaseError(ctx, err, "failed to list exchanges")
		}

		rendered, err := output.NewFormatter(format).FormatHistory(exchanges)
		if err != nil {
			return errwrap.WrapDataProcessing(ctx, err, "failed to render history")
		}

		sink, err := openSink(outPath)
		if err != nil {
			return errwrap.WrapInternal(ctx, err, "failed to open output sink")
		}
		defer func() { _ = sink.close() }()

		if _, err := fmt.Fprintln(sink.writer, rendered); err != nil {
			return errwrap.WrapInternal(ctx, err, "failed to write output")
		}

		return nil
	},
}

var historyPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete old exchanges from the history store",
	Long:  "Delete exchanges older than the --older-than duration from the history store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if purgeOlder <= 0 {
			return errwrap.NewValidationError("--older-than must be a positive duration")
		}

		db, err := openStore(ctx)
		if err != nil {
			return errwrap.WrapDatabaseError(ctx, err, "failed to open exchange store")
		}
		defer func() { _ = db.Close() }()

		cutoff := time.Now().UTC().Add(-purgeOlder)
		removed, err := db.PurgeExchanges(ctx, cutoff)
		if err != nil {
			return errwrap.WrapDatabaseError(ctx, err, "failed to purge exchanges")
		}

		observability.CLILogger.Info(fmt.Sprintf("Purged %d exchange(s)", removed),
			zap.Int64("removed", removed),
			zap.Time("cutoff", cutoff))

		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete recorded exchanges",
	Long:  "Delete recorded exchanges. With --key only that session's exchanges are removed; without it the whole history is cleared.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := openStore(ctx)
		if err != nil {
			return errwrap.WrapDatabaseError(ctx, err, "failed to open exchange store")
		}
		defer func() { _ = db.Close() }()

		removed, err := db.ClearExchanges(ctx, strings.TrimSpace(clearKey))
		if err != nil {
			return errwrap.WrapDatabaseError(ctx, err, "failed to clear exchanges")
		}

		observability.CLILogger.Info(fmt.Sprintf("Cleared %d exchange(s)", removed),
			zap.Int64("removed", removed),
			zap.String("key", clearKey))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyPurgeCmd)
	historyCmd.AddCommand(historyClearCmd)

	historyCmd.Flags().StringVarP(&historyKey, "key", "k", "", "filter by session key")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "maximum number of exchanges to list")
	historyCmd.Flags().String("output-format", "table", "output format: table, json, markdown")
	historyCmd.Flags().StringP("out", "o", "", "write output to file instead of stdout")

	historyPurgeCmd.Flags().DurationVar(&purgeOlder, "older-than", 0, "delete exchanges older than this duration (e.g. 720h)")

	historyClearCmd.Flags().StringVarP(&clearKey, "key", "k", "", "clear only this session key's exchanges")
}

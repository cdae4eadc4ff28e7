package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chatlens/chatlens/internal/config"
	"github.com/chatlens/chatlens/internal/core"
	"github.com/chatlens/chatlens/internal/core/engine"
	errwrap "github.com/chatlens/chatlens/internal/errors"
	"github.com/chatlens/chatlens/internal/genai"
	"github.com/chatlens/chatlens/internal/observability"
)

var (
	chatKey     string
	chatNoStore bool
)

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Send a single chat message",
	Long: `Send a single chat message to the configured provider and print the
response. The exchange is recorded in the local history store unless
--no-store is set.

The same admission window applies as in server mode, scoped to this
process. Use --key to pick the session key the exchange is recorded
under.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		message := strings.TrimSpace(strings.Join(args, " "))
		if message == "" {
			return errwrap.NewValidationError("message is required")
		}

		cfg, err := config.Load(ctx, cfgFile)
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "config load failed")
		}

		client, err := genai.NewClient(cfg.GenAI)
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "failed to configure provider client")
		}

		var recorder engine.ExchangeRecorder
		if !chatNoStore {
			db, err := openStore(ctx)
			if err != nil {
				return errwrap.WrapDatabaseError(ctx, err, "failed to open exchange store")
			}
			defer func() { _ = db.Close() }()
			recorder = db
		}

		controller := engine.NewController(engine.ControllerConfig{
			MaxRequests: cfg.Admission.MaxRequests,
			Window:      cfg.Admission.Window,
			MaxKeys:     cfg.Admission.MaxKeys,
		})
		dispatcher := engine.NewDispatcher(controller, client, recorder, nil, engine.DispatcherConfig{
			Timeout: cfg.GenAI.Timeout,
		})

		text, outcome := dispatcher.Handle(ctx, chatKey, message)

		fmt.Println(text)

		if outcome.Kind != core.OutcomeSuccess {
			observability.CLILogger.Warn("Chat turn did not succeed",
				zap.String("outcome", string(outcome.Kind)),
				zap.Int("retry_after_seconds", outcome.RetryAfterSeconds()))
			return errwrap.NewExternalServiceError("chat turn ended with outcome: " + string(outcome.Kind))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVarP(&chatKey, "key", "k", engine.DefaultKey, "session key for admission control and history")
	chatCmd.Flags().BoolVar(&chatNoStore, "no-store", false, "skip recording the exchange in the history store")
}

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chatlens/chatlens/internal/config"
	errwrap "github.com/chatlens/chatlens/internal/errors"
	"github.com/chatlens/chatlens/internal/genai"
)

var modelsJSON bool

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available from the configured provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load(ctx, cfgFile)
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "config load failed")
		}

		client, err := genai.NewClient(cfg.GenAI)
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "failed to configure provider client")
		}

		models, err := client.ListModels(ctx)
		if err != nil {
			return errwrap.WrapExternalService(ctx, err, "failed to list provider models")
		}

		if modelsJSON {
			data, err := json.MarshalIndent(models, "", "  ")
			if err != nil {
				return errwrap.WrapDataProcessing(ctx, err, "failed to render models")
			}
			fmt.Println(string(data))
			return nil
		}

		for _, model := range models {
			fmt.Println(model)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)

	modelsCmd.Flags().BoolVar(&modelsJSON, "json", false, "output as JSON")
}

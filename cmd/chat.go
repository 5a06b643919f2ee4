package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/vensonaa/enterprise-invoice-automation/internal/model"
)

var chatSuggest bool

var chatCmd = &cobra.Command{
	Use:   "chat <invoice-id> [question]",
	Short: "Ask questions about an extracted invoice",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		inv, err := env.Store.GetInvoice(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "chat")
		}
		if inv.Result == nil || inv.Status != model.StatusCompleted {
			return eris.Errorf("invoice %s has no completed extraction", args[0])
		}

		if chatSuggest {
			questions, err := env.Assistant.SuggestQuestions(ctx, inv.Result.ExtractedData)
			if err != nil {
				return eris.Wrap(err, "suggest questions")
			}
			for _, q := range questions {
				fmt.Println("-", q)
			}
			return nil
		}

		if len(args) != 2 {
			return eris.New("a question or --suggest is required")
		}

		answer, err := env.Assistant.Ask(ctx, inv.Result.ExtractedData, args[1])
		if err != nil {
			return eris.Wrap(err, "chat")
		}
		fmt.Println(answer)
		return nil
	},
}

func init() {
	chatCmd.Flags().BoolVar(&chatSuggest, "suggest", false, "print suggested questions instead of asking one")
	rootCmd.AddCommand(chatCmd)
}

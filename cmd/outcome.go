package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/attribution/internal/outcome"
)

var (
	outcomeOrgID      string
	outcomeStrategyID string
	outcomeCampaignID string
	outcomeContentID  string
)

var outcomeCmd = &cobra.Command{
	Use:   "outcome",
	Short: "Aggregate attributions into a strategy outcome and reinforce the graph",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx, "check")
		if err != nil {
			return err
		}
		defer env.Close()

		o, err := env.Aggregator.Record(ctx, outcome.RecordRequest{
			OrgID:      outcomeOrgID,
			StrategyID: outcomeStrategyID,
			CampaignID: outcomeCampaignID,
			ContentID:  outcomeContentID,
		})
		if err != nil {
			return err
		}

		if err := env.Graph.Reinforce(ctx, o); err != nil {
			zap.L().Warn("graph reinforcement failed",
				zap.String("strategy_id", o.StrategyID),
				zap.Error(err),
			)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(o)
	},
}

func init() {
	outcomeCmd.Flags().StringVar(&outcomeOrgID, "org", "", "organization ID (required)")
	outcomeCmd.Flags().StringVar(&outcomeStrategyID, "strategy", "", "strategy ID to record under (required)")
	outcomeCmd.Flags().StringVar(&outcomeCampaignID, "campaign", "", "scope attributions to a campaign ID")
	outcomeCmd.Flags().StringVar(&outcomeContentID, "content", "", "scope attributions to a content ID")
	_ = outcomeCmd.MarkFlagRequired("org")
	_ = outcomeCmd.MarkFlagRequired("strategy")
	rootCmd.AddCommand(outcomeCmd)
}

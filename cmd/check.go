package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/attribution/internal/model"
)

var (
	checkOrgID       string
	checkURL         string
	checkTitle       string
	checkText        string
	checkTextFile    string
	checkSourceType  string
	checkOutlet      string
	checkPublishedAt string
	checkReach       int64
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one candidate content item through the attribution cascade",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		text := checkText
		if checkTextFile != "" {
			data, err := os.ReadFile(checkTextFile)
			if err != nil {
				return eris.Wrap(err, "read text file")
			}
			text = string(data)
		}
		if text == "" {
			return eris.New("either --text or --text-file is required")
		}

		publishedAt := time.Now().UTC()
		if checkPublishedAt != "" {
			t, err := time.Parse(time.RFC3339, checkPublishedAt)
			if err != nil {
				return eris.Wrap(err, "parse --published-at (want RFC3339)")
			}
			publishedAt = t
		}

		env, err := initEngine(ctx, "check")
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Service.CheckAttribution(ctx, checkOrgID, model.CandidateContent{
			Title:          checkTitle,
			Text:           text,
			URL:            checkURL,
			SourceType:     model.SourceType(checkSourceType),
			SourceOutlet:   checkOutlet,
			PublishedAt:    publishedAt,
			EstimatedReach: checkReach,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkOrgID, "org", "", "organization ID (required)")
	checkCmd.Flags().StringVar(&checkURL, "url", "", "source URL of the content (required)")
	checkCmd.Flags().StringVar(&checkTitle, "title", "", "content title")
	checkCmd.Flags().StringVar(&checkText, "text", "", "content text")
	checkCmd.Flags().StringVar(&checkTextFile, "text-file", "", "path to a file with the content text")
	checkCmd.Flags().StringVar(&checkSourceType, "source-type", "news", "source type (news, twitter, linkedin, blog, other)")
	checkCmd.Flags().StringVar(&checkOutlet, "outlet", "", "source outlet name")
	checkCmd.Flags().StringVar(&checkPublishedAt, "published-at", "", "publish time, RFC3339 (default now)")
	checkCmd.Flags().Int64Var(&checkReach, "reach", 0, "estimated reach")
	_ = checkCmd.MarkFlagRequired("org")
	_ = checkCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(checkCmd)
}

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/attribution/internal/model"
)

var importFilePath string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk-import exported fingerprints from a JSON or YAML file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		fps, err := loadFingerprintFile(importFilePath)
		if err != nil {
			return err
		}

		if err := cfg.Validate("migrate"); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		n, err := st.BulkCreateFingerprints(ctx, fps)
		if err != nil {
			return eris.Wrap(err, "bulk import fingerprints")
		}

		zap.L().Info("import complete",
			zap.Int64("imported", n),
			zap.String("file", importFilePath),
		)
		return nil
	},
}

// loadFingerprintFile parses and validates an exported fingerprint batch.
// JSON and YAML files are accepted; YAML is decoded through the same JSON
// field names.
func loadFingerprintFile(path string) ([]model.Fingerprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read fingerprint file")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, eris.Wrap(err, "parse fingerprint file")
		}
		if data, err = json.Marshal(doc); err != nil {
			return nil, eris.Wrap(err, "convert fingerprint file")
		}
	}

	var fps []model.Fingerprint
	if err := json.Unmarshal(data, &fps); err != nil {
		return nil, eris.Wrap(err, "parse fingerprint file")
	}
	if len(fps) == 0 {
		return nil, eris.New("fingerprint file is empty")
	}

	for i := range fps {
		fp := &fps[i]
		if fp.OrgID == "" || fp.CampaignID == "" || fp.ContentID == "" {
			return nil, eris.Errorf("fingerprint %d: org_id, campaign_id, and content_id are required", i)
		}
		if fp.Status == "" {
			fp.Status = model.ExportStatusExported
		}
		if fp.ExportedAt.IsZero() {
			fp.ExportedAt = time.Now().UTC()
		}
		if fp.TrackingWindowEnd.IsZero() {
			return nil, eris.Errorf("fingerprint %d: tracking_window_end is required", i)
		}
	}
	return fps, nil
}

func init() {
	importCmd.Flags().StringVar(&importFilePath, "file", "", "path to JSON or YAML file of fingerprints (required)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}

package attribution

import (
	"context"

	"github.com/sells-group/attribution/internal/matching"
	"github.com/sells-group/attribution/internal/model"
)

// CheckResult is the outcome of a single attribution check.
type CheckResult struct {
	Match       bool               `json:"match"`
	Reason      string             `json:"reason,omitempty"`
	Attribution *model.Attribution `json:"attribution,omitempty"`
	Created     bool               `json:"created"`
}

// Service composes the matching cascade with the recorder: one call checks
// a candidate and, on a match, durably records the attribution.
type Service struct {
	cascade  *matching.Cascade
	recorder *Recorder
}

// NewService creates the check-and-record service.
func NewService(cascade *matching.Cascade, recorder *Recorder) *Service {
	return &Service{cascade: cascade, recorder: recorder}
}

// CheckAttribution runs the cascade for one candidate and records the match
// if there is one. No-match is a normal result, not an error.
func (s *Service) CheckAttribution(ctx context.Context, orgID string, cand model.CandidateContent) (*CheckResult, error) {
	result, reason, err := s.cascade.Match(ctx, orgID, cand)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return &CheckResult{Match: false, Reason: reason}, nil
	}

	a, created, err := s.recorder.Record(ctx, orgID, cand, result)
	if err != nil {
		return nil, err
	}

	return &CheckResult{Match: true, Attribution: a, Created: created}, nil
}

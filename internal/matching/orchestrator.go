// Package matching implements the shared column-matching workflow: input
// validation, confirmed-mapping bypass, per-header prompt/send/parse with
// failure isolation, and result aggregation. Backends plug in through the
// Transport interface; the workflow itself is backend-agnostic.
package matching

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"colmatch/internal/domain"
)

// Transport is the capability a backend supplies to the matcher: one
// prompt/config call returning raw response text. provider.Provider
// satisfies it.
type Transport interface {
	DisplayName() string
	SupportedModels() []string
	SendRequest(ctx context.Context, prompt string, model domain.ModelConfig) (string, error)
}

// ValidationError means the match request itself is malformed. It aborts the
// whole call; no partial output is produced.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid match request: " + e.Reason
}

// MatchRequest carries the inputs for one matching run.
type MatchRequest struct {
	SourceHeaders    []string
	TargetHeaders    []string
	ExistingMappings []domain.ColumnMapping
	IndustryContext  string
	Model            domain.ModelConfig
}

// MatchReport is the output of one matching run: exactly one result per
// source header, plus aggregate statistics.
type MatchReport struct {
	Results      []domain.ColumnMatchingResult `json:"results"`
	Stats        Stats                         `json:"stats"`
	ProviderName string                        `json:"providerName"`
}

// Matcher drives the matching workflow. It is stateless apart from its
// logger and safe for concurrent use.
type Matcher struct {
	logger *zap.Logger
}

// NewMatcher creates a matcher. A nil logger disables logging.
func NewMatcher(logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{logger: logger}
}

// Match runs the full workflow against one backend.
//
// Headers are processed strictly sequentially, one backend call per unmapped
// header, exactly one attempt each. A transport or parse failure degrades
// that header to a zero-confidence default result and never aborts the
// batch; only validation failures propagate as errors. Callers detecting
// degraded output must inspect per-result confidence, not just the error.
func (m *Matcher) Match(ctx context.Context, transport Transport, req MatchRequest) (*MatchReport, error) {
	runID := uuid.NewString()
	log := m.logger.With(zap.String("run", runID))

	model := req.Model.Normalize()
	if err := m.validate(transport, req, model); err != nil {
		return nil, err
	}

	mappings := usableMappings(req.ExistingMappings)
	confirmed, unmapped := partition(req.SourceHeaders, mappings)
	log.Info("starting column matching",
		zap.String("provider", transport.DisplayName()),
		zap.String("model", model.ModelID),
		zap.Int("headers", len(req.SourceHeaders)),
		zap.Int("confirmed", len(confirmed)),
		zap.Int("unmapped", len(unmapped)))

	results := make([]domain.ColumnMatchingResult, 0, len(req.SourceHeaders))

	for _, c := range confirmed {
		results = append(results, domain.ColumnMatchingResult{
			SourceHeader:         c.header,
			MatchedTargetHeader:  c.mapping.TargetColumn,
			ConfidencePercentage: 100,
			Reasoning:            "Confirmed existing mapping",
			UsedExistingMapping:  true,
		})
	}

	for i, header := range unmapped {
		log.Debug("processing unmapped header",
			zap.Int("index", i+1),
			zap.Int("total", len(unmapped)),
			zap.String("header", header))
		results = append(results, m.matchOne(ctx, log, transport, header, req, model, mappings))
	}

	results = postProcess(log, results, req.SourceHeaders)

	report := &MatchReport{
		Results:      results,
		Stats:        Aggregate(results),
		ProviderName: transport.DisplayName(),
	}
	log.Info("column matching completed",
		zap.Int("results", len(report.Results)),
		zap.Float64("avgConfidence", report.Stats.AverageConfidence),
		zap.Int("existingMappingsUsed", report.Stats.ExistingMappingsUsedCount))
	return report, nil
}

// matchOne performs the prompt→send→parse pipeline for a single header.
// Every failure is absorbed into a default result.
func (m *Matcher) matchOne(ctx context.Context, log *zap.Logger, transport Transport, header string, req MatchRequest, model domain.ModelConfig, mappings []domain.ColumnMapping) domain.ColumnMatchingResult {
	prompt := BuildPrompt(header, req.TargetHeaders, mappings, req.IndustryContext)

	response, err := transport.SendRequest(ctx, prompt, model)
	if err != nil {
		log.Warn("backend request failed, using default result",
			zap.String("header", header),
			zap.Error(err))
		return defaultResult(header, "Processing failed: "+err.Error())
	}

	result, err := ParseResponse(response, header)
	if err != nil {
		log.Warn("response parsing failed, using default result",
			zap.String("header", header),
			zap.Error(err))
		return defaultResult(header, "Processing failed: "+err.Error())
	}

	log.Debug("matched header",
		zap.String("header", header),
		zap.String("target", result.MatchedTargetHeader),
		zap.Float64("confidence", result.ConfidencePercentage))
	return result
}

func (m *Matcher) validate(transport Transport, req MatchRequest, model domain.ModelConfig) error {
	if len(req.SourceHeaders) == 0 {
		return &ValidationError{Reason: "source headers cannot be empty"}
	}
	if len(req.TargetHeaders) == 0 {
		return &ValidationError{Reason: "target headers cannot be empty"}
	}
	for _, h := range req.SourceHeaders {
		if strings.TrimSpace(h) == "" {
			return &ValidationError{Reason: "source headers must be non-empty strings"}
		}
	}
	for _, h := range req.TargetHeaders {
		if strings.TrimSpace(h) == "" {
			return &ValidationError{Reason: "target headers must be non-empty strings"}
		}
	}
	if err := model.Validate(); err != nil {
		return &ValidationError{Reason: fmt.Sprintf("model configuration: %v", err)}
	}
	for _, supported := range transport.SupportedModels() {
		if supported == model.ModelID {
			return nil
		}
	}
	return &ValidationError{Reason: fmt.Sprintf("model %s is not supported by provider %s", model.ModelID, transport.DisplayName())}
}

type confirmedHeader struct {
	header  string
	mapping domain.ColumnMapping
}

// usableMappings drops invalid mappings instead of failing the run; they
// arrive from external data and a bad row should not block the batch.
func usableMappings(mappings []domain.ColumnMapping) []domain.ColumnMapping {
	out := make([]domain.ColumnMapping, 0, len(mappings))
	for _, m := range mappings {
		if m.IsValid() {
			out = append(out, m)
		}
	}
	return out
}

// partition splits source headers into those covered by a confirmed mapping
// and those needing a backend call, preserving input order in both groups.
func partition(headers []string, mappings []domain.ColumnMapping) ([]confirmedHeader, []string) {
	var confirmed []confirmedHeader
	var unmapped []string

	for _, header := range headers {
		if m, ok := findMapping(header, mappings); ok {
			confirmed = append(confirmed, confirmedHeader{header: header, mapping: m})
		} else {
			unmapped = append(unmapped, header)
		}
	}
	return confirmed, unmapped
}

func findMapping(header string, mappings []domain.ColumnMapping) (domain.ColumnMapping, bool) {
	for _, m := range mappings {
		if m.MatchesSourceHeader(header) {
			return m, true
		}
	}
	return domain.ColumnMapping{}, false
}

// postProcess drops results that fail the validity invariant and backfills a
// "No match found" default for any source header left uncovered, so the
// output always carries exactly one result per input header.
func postProcess(log *zap.Logger, results []domain.ColumnMatchingResult, sourceHeaders []string) []domain.ColumnMatchingResult {
	kept := results[:0]
	for _, r := range results {
		if r.IsValid() || isDefaultResult(r) {
			kept = append(kept, r)
		} else {
			log.Warn("discarding invalid result",
				zap.String("header", r.SourceHeader),
				zap.String("target", r.MatchedTargetHeader))
		}
	}

	covered := make(map[string]bool, len(kept))
	for _, r := range kept {
		covered[r.SourceHeader] = true
	}

	for _, header := range sourceHeaders {
		if !covered[header] {
			log.Warn("no result for source header, backfilling default", zap.String("header", header))
			kept = append(kept, defaultResult(header, "No match found"))
		}
	}
	return kept
}

// isDefaultResult identifies degraded results synthesized by the matcher
// itself; they carry an empty target and would otherwise be discarded by the
// validity filter, losing the failure cause recorded in the reasoning.
func isDefaultResult(r domain.ColumnMatchingResult) bool {
	return r.MatchedTargetHeader == "" && r.ConfidencePercentage == 0 && !r.UsedExistingMapping
}

func defaultResult(header, reasoning string) domain.ColumnMatchingResult {
	return domain.ColumnMatchingResult{
		SourceHeader:         header,
		MatchedTargetHeader:  "",
		ConfidencePercentage: 0,
		Reasoning:            reasoning,
		UsedExistingMapping:  false,
	}
}

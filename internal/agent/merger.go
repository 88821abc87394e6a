package agent

import (
	"errors"
	"strings"

	"github.com/jmallory/solace/internal/config"
	"github.com/jmallory/solace/internal/domain"
)

// ErrConfidenceOutOfRange reports a local confidence outside [0,1], which
// indicates a broken adapter rather than a low-quality candidate.
var ErrConfidenceOutOfRange = errors.New("confidence out of range [0,1]")

const (
	// lowConfidenceFloor is the confidence below which the local candidate
	// is discarded outright.
	lowConfidenceFloor = 0.3

	// remoteTrust stands in for a confidence signal the remote service
	// does not provide. It is deliberately high: the hosted model is the
	// stronger generalist.
	remoteTrust = 0.9

	// insightMinChars is the minimum local candidate length worth mining
	// for an insight to attach to the remote reply.
	insightMinChars = 50
)

// Merger decides which candidate (or blend) becomes the reply.
type Merger struct {
	customWeight        float64
	remoteWeight        float64
	confidenceThreshold float64
	similarityCutoff    float64
}

// NewMerger builds a merger from hybrid tuning config.
func NewMerger(cfg config.HybridConfig) *Merger {
	return &Merger{
		customWeight:        cfg.CustomWeight,
		remoteWeight:        cfg.RemoteWeight,
		confidenceThreshold: cfg.ConfidenceThreshold,
		similarityCutoff:    cfg.SimilarityCutoff,
	}
}

// Merge applies the decision rules in order and returns the reply text
// with provenance metadata. customText and remoteText may be empty; an
// empty result text means neither side produced anything usable.
//
// Rules, first match wins:
//  1. no remote candidate         -> custom as-is
//  2. confidence below the floor  -> remote as-is
//  3. confident local candidate:
//     near-duplicate of remote    -> weighted pick of the two
//     otherwise                   -> remote enriched with a local insight
//  4. default                     -> remote, still marked hybrid because
//     a viable local candidate was considered
func (m *Merger) Merge(customText string, confidence float64, remoteText string) (domain.ResponsePackage, error) {
	if confidence < 0 || confidence > 1 {
		return domain.ResponsePackage{}, ErrConfidenceOutOfRange
	}

	meta := domain.ResponseMetadata{}
	if customText != "" {
		c := confidence
		meta.CustomConfidence = &c
	}

	if remoteText == "" {
		meta.PrimarySource = domain.SourceCustom
		return domain.ResponsePackage{Text: customText, Metadata: meta}, nil
	}

	if customText == "" || confidence < lowConfidenceFloor {
		meta.PrimarySource = domain.SourceRemote
		return domain.ResponsePackage{Text: remoteText, Metadata: meta}, nil
	}

	if confidence >= m.confidenceThreshold {
		sim := Similarity(customText, remoteText)
		meta.SimilarityScore = &sim
		meta.PrimarySource = domain.SourceHybrid

		if sim >= m.similarityCutoff {
			// Near-duplicates: keep whichever side the weighted scores favor.
			text := remoteText
			if confidence*m.customWeight > remoteTrust*m.remoteWeight {
				text = customText
			}
			return domain.ResponsePackage{Text: text, Metadata: meta}, nil
		}

		text := remoteText
		if insight := firstSentence(customText); insight != "" && len(customText) > insightMinChars {
			text = remoteText + "\n\n" + insight
		}
		return domain.ResponsePackage{Text: text, Metadata: meta}, nil
	}

	meta.PrimarySource = domain.SourceHybrid
	return domain.ResponsePackage{Text: remoteText, Metadata: meta}, nil
}

// firstSentence returns the leading sentence of text, up to and including
// its terminal punctuation, or "" if no sentence boundary exists.
func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexAny(text, ".!?"); idx >= 0 {
		return text[:idx+1]
	}
	return ""
}

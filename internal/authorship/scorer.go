package authorship

import (
	"context"

	"go.uber.org/zap"

	"github.com/ppiankov/realcheck/internal/classifier"
	"github.com/ppiankov/realcheck/internal/logger"
	"github.com/ppiankov/realcheck/internal/model"
)

// neutralScore stands in for a chunk the classifier could not label
const neutralScore = 0.5

// Scorer estimates the probability that a document was machine-written
type Scorer struct {
	classifier classifier.Classifier
	chunkSize  int
	minLength  int
}

// NewScorer creates a scorer. chunkSize and minLength are in characters.
func NewScorer(c classifier.Classifier, chunkSize, minLength int) *Scorer {
	if chunkSize <= 0 {
		chunkSize = 512
	}
	return &Scorer{classifier: c, chunkSize: chunkSize, minLength: minLength}
}

// Score never fails. Short or empty text scores 0 without calling the
// classifier; a chunk whose classification fails scores 0.5.
func (s *Scorer) Score(ctx context.Context, doc model.Document) model.AuthorshipAssessment {
	runes := []rune(doc.Text)
	if len(runes) == 0 || len(runes) < s.minLength {
		return model.AuthorshipAssessment{Probability: 0, Verdict: model.AuthorshipLikelyHuman}
	}

	chunks := Chunk(runes, s.chunkSize)
	var total float64
	fallbacks := 0

	for i, chunk := range chunks {
		result, err := s.classifier.Classify(ctx, chunk)
		if err != nil {
			logger.Debug("Chunk classification failed, using neutral score",
				zap.String("url", doc.URL),
				zap.Int("chunk", i),
				zap.Error(err))
			total += neutralScore
			fallbacks++
			continue
		}
		total += chunkProbability(result)
	}

	probability := total / float64(len(chunks))
	verdict := model.AuthorshipLikelyHuman
	if probability > 0.5 {
		verdict = model.AuthorshipLikelyAI
	}

	return model.AuthorshipAssessment{
		Probability: probability,
		Verdict:     verdict,
		Chunks:      len(chunks),
		Fallbacks:   fallbacks,
	}
}

// chunkProbability converts a label+confidence into P(AI)
func chunkProbability(c classifier.Classification) float64 {
	conf := c.Confidence
	if conf < 0 {
		conf = 0
	} else if conf > 1 {
		conf = 1
	}
	if c.Label == classifier.LabelAI {
		return conf
	}
	return 1 - conf
}

// Chunk splits runes into contiguous pieces of size characters; the last may be shorter
func Chunk(runes []rune, size int) []string {
	var chunks []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

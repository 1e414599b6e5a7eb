package answers

import (
	"strings"

	"github.com/casahojaldre/chatbot-backend/pkg/db/models"
)

const (
	keywordScore = 1
	// Bonus when the stored question and the asked one overlap directly.
	overlapBonus = 2
	// An entry needs at least one keyword hit to be considered.
	minMatchScore = 1

	minOverlapLen = 8
)

// bestMatch scores every knowledge entry against the question and
// returns the highest scorer, or nil when nothing reaches the floor.
func bestMatch(question string, entries []models.KnowledgeEntry) *models.KnowledgeEntry {
	normalized := normalize(question)
	if len(words(normalized)) == 0 {
		return nil
	}

	var best *models.KnowledgeEntry
	bestScore := 0
	for i := range entries {
		score := scoreEntry(normalized, &entries[i])
		if score >= minMatchScore && score > bestScore {
			best = &entries[i]
			bestScore = score
		}
	}
	return best
}

// scoreEntry counts matched keywords and adds a bonus when the curated
// question itself overlaps the asked text.
func scoreEntry(normalized string, entry *models.KnowledgeEntry) int {
	score := 0
	for _, raw := range entry.Keywords {
		keyword := normalize(raw)
		if keyword == "" {
			continue
		}
		// Substring match, so "precios" still hits the keyword "precio"
		// and multi-word keywords match as a phrase.
		if strings.Contains(normalized, keyword) {
			score += keywordScore
		}
	}
	if score == 0 {
		return 0
	}
	if questionsOverlap(normalized, normalize(entry.Question)) {
		score += overlapBonus
	}
	return score
}

func questionsOverlap(asked, stored string) bool {
	if len(asked) < minOverlapLen || len(stored) < minOverlapLen {
		return false
	}
	return strings.Contains(asked, stored) || strings.Contains(stored, asked)
}

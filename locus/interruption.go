package locus

import "github.com/antzucaro/matchr"

// MatchesInterruption reports whether observed is within maxDistance edits
// of any of rec's known interruption motifs, using Levenshtein edit
// distance, which suits noisy short sequences. Sequencing
// errors inside a repeat unit are common enough that exact string equality
// would undercount legitimate interruptions.
func (rec Record) MatchesInterruption(observed []byte, maxDistance int) bool {
	for _, motif := range rec.Interruptions {
		if matchr.Levenshtein(string(motif), string(observed)) <= maxDistance {
			return true
		}
	}
	return false
}

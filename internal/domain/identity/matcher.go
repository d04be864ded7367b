package identity

import (
	"fmt"

	"github.com/medledger/claimguard/internal/intelligence/textsim"
)

// Identity-fraud flags raised by the matcher.
const (
	FlagDuplicateNationalID = "DUPLICATE_NATIONAL_ID"
	FlagDuplicateEmail      = "DUPLICATE_EMAIL"
	FlagDuplicatePhone      = "DUPLICATE_PHONE"
	FlagSimilarName         = "SIMILAR_NAME"
)

// ReasonEmptyPopulation is the fixed reason reported when there is nobody to
// compare against.
const ReasonEmptyPopulation = "no existing patients to compare"

// MatchWeights carries the point value of each identity check and the name
// similarity cut-off.  Values are injected from configuration; nothing here is
// hard-coded at call sites.
type MatchWeights struct {
	NationalID              int
	Email                   int
	Phone                   int
	SimilarName             int
	NameSimilarityThreshold float64
}

// Candidate is the identity being screened, already normalised by the caller
// or via NewCandidate.
type Candidate struct {
	FullName       string
	Email          string
	Phone          string
	NationalIDHash string
}

// NewCandidate normalises raw registration input into a Candidate.
func NewCandidate(fullName, email, phone, nationalID string) Candidate {
	return Candidate{
		FullName:       fullName,
		Email:          NormalizeEmail(email),
		Phone:          NormalizePhone(phone),
		NationalIDHash: HashNationalID(nationalID),
	}
}

// MatchResult is the outcome of screening a candidate against the population.
type MatchResult struct {
	Score   int      `json:"score"`
	Flags   []string `json:"flags"`
	Reasons []string `json:"reasons"`
}

// Matcher screens candidate identities against existing patients.
type Matcher struct {
	weights MatchWeights
}

// NewMatcher constructs a Matcher with the supplied weights.
func NewMatcher(weights MatchWeights) *Matcher {
	return &Matcher{weights: weights}
}

// Match compares the candidate against every record in the population.
//
// Scoring semantics:
//   - A national-ID digest match is terminal: it sets the score and flag and
//     stops the scan.  No softer signal can add to or outrank a confirmed
//     duplicate identifier.
//   - Otherwise every triggered check contributes its flag and reason, and the
//     overall score is the maximum triggered point value across all records,
//     not their sum.
//   - An empty population scores 0 with a fixed explanatory reason.
func (m *Matcher) Match(candidate Candidate, population []*Patient) MatchResult {
	if len(population) == 0 {
		return MatchResult{Score: 0, Reasons: []string{ReasonEmptyPopulation}}
	}

	result := MatchResult{}
	seenFlags := map[string]bool{}

	addSignal := func(score int, flag, reason string) {
		if score > result.Score {
			result.Score = score
		}
		if !seenFlags[flag] {
			seenFlags[flag] = true
			result.Flags = append(result.Flags, flag)
		}
		result.Reasons = append(result.Reasons, reason)
	}

	for _, existing := range population {
		if candidate.NationalIDHash != "" && candidate.NationalIDHash == existing.NationalIDHash {
			addSignal(m.weights.NationalID, FlagDuplicateNationalID,
				fmt.Sprintf("national ID already registered to patient %s", existing.ID))
			return result
		}

		if candidate.Email != "" && candidate.Email == NormalizeEmail(existing.Email) {
			addSignal(m.weights.Email, FlagDuplicateEmail,
				fmt.Sprintf("email already registered to patient %s", existing.ID))
		}

		if candidate.Phone != "" && candidate.Phone == NormalizePhone(existing.Phone) {
			addSignal(m.weights.Phone, FlagDuplicatePhone,
				fmt.Sprintf("phone already registered to patient %s", existing.ID))
		}

		if candidate.FullName != "" && existing.FullName != "" {
			sim := textsim.SimilarityFold(candidate.FullName, existing.FullName)
			if sim > m.weights.NameSimilarityThreshold {
				addSignal(m.weights.SimilarName, FlagSimilarName,
					fmt.Sprintf("name %.0f%% similar to patient %s", sim*100, existing.ID))
			}
		}
	}

	return result
}

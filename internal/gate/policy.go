package gate

import "strings"

// ApprovalPolicy decides whether review notes count as an explicit
// approval. It is injectable so deployments can tune the accepted
// vocabulary without touching the state machine.
type ApprovalPolicy func(notes string) bool

// defaultVocabulary is the built-in affirmative allow-list. Ambiguous
// filler ("ok", "sure", "fine") is deliberately absent: a one-word
// ambiguous reply must not unlock a production-affecting transition.
var defaultVocabulary = []string{
	"approve",
	"approved",
	"yes",
	"lgtm",
	"ship it",
	"looks good",
}

// DefaultApprovalPolicy returns the built-in vocabulary policy.
func DefaultApprovalPolicy() ApprovalPolicy {
	return VocabularyPolicy(defaultVocabulary)
}

// VocabularyPolicy accepts notes that, after normalization, exactly match
// one of the given tokens. Matching is whole-utterance: "approve" passes,
// "I might approve later" does not.
func VocabularyPolicy(vocabulary []string) ApprovalPolicy {
	accepted := make(map[string]bool, len(vocabulary))
	for _, tok := range vocabulary {
		accepted[normalizeUtterance(tok)] = true
	}
	return func(notes string) bool {
		return accepted[normalizeUtterance(notes)]
	}
}

// normalizeUtterance lowercases, trims whitespace, and strips trailing
// punctuation so "Approved!" and "approved" compare equal.
func normalizeUtterance(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimRight(s, ".!?")
}

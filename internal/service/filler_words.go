package service

import "strings"

// Filler word inventory, grouped by type. Multi-word phrases are matched
// with the longest phrase taking precedence so "you know" is never also
// counted as a stray "know".

type fillerCategory string

const (
	categoryBasic        fillerCategory = "basic"
	categoryDiscourse    fillerCategory = "discourse"
	categoryHesitation   fillerCategory = "hesitation"
	categoryTransition   fillerCategory = "transition"
	categoryConfirmation fillerCategory = "confirmation"
)

var fillerWordsByCategory = map[fillerCategory][]string{
	categoryBasic: {
		"um", "uh", "er", "ah", "eh", "hmm", "mhm", "mm", "mmm", "uhm", "erm",
	},
	categoryDiscourse: {
		"like", "you know", "i mean", "sort of", "kind of", "basically", "actually",
		"literally", "obviously", "clearly", "definitely", "absolutely", "totally",
		"really", "quite", "rather", "pretty much", "more or less",
	},
	categoryHesitation: {
		"let me see", "let me think", "how do i put this", "what i mean is",
		"how should i say", "you see", "the thing is", "what i'm trying to say",
		"if you will", "as it were", "so to speak", "in a sense", "in a way",
	},
	categoryTransition: {
		"so", "well", "okay", "right", "now", "then", "anyway", "anyhow",
		"moving on", "next", "furthermore", "moreover", "additionally", "also",
	},
	categoryConfirmation: {
		"make sense", "follow me", "with me", "yeah", "see",
	},
}

// Transition fillers are often legitimate speech, so they weigh less than a
// raw "um".
var fillerWeights = map[fillerCategory]float64{
	categoryBasic:        1.0,
	categoryDiscourse:    0.7,
	categoryHesitation:   0.8,
	categoryTransition:   0.5,
	categoryConfirmation: 0.6,
}

// fillerLookup maps every known filler word or phrase to its category.
// maxPhraseWords is the longest phrase in the table, so the scanner knows
// when to stop extending a candidate span.
var fillerLookup, maxPhraseWords = func() (map[string]fillerCategory, int) {
	lookup := make(map[string]fillerCategory)
	longest := 1
	for category, words := range fillerWordsByCategory {
		for _, w := range words {
			lookup[w] = category
			if n := len(strings.Fields(w)); n > longest {
				longest = n
			}
		}
	}
	return lookup, longest
}()

package fieldmap

import (
	"regexp"
	"strings"
)

// Position categories.
const (
	CategoryDeck        = "deck"
	CategoryInterior    = "interior"
	CategoryEngineering = "engineering"
	CategoryGalley      = "galley"
	CategoryOther       = "other"
)

// Position is a standardized job title.
type Position struct {
	StandardName string
	Category     string
}

type positionEntry struct {
	standard string
	category string
	synonyms []string
}

var positionTable = []positionEntry{
	{"Captain", CategoryDeck, []string{"captain", "master", "skipper", "capt", "yacht captain", "rotational captain"}},
	{"Relief Captain", CategoryDeck, []string{"relief captain", "relief master", "temp captain"}},
	{"Chief Officer", CategoryDeck, []string{"chief officer", "first officer", "1st officer", "chief mate", "first mate", "c/o", "mate"}},
	{"Second Officer", CategoryDeck, []string{"second officer", "2nd officer", "second mate", "2nd mate", "2/o"}},
	{"Third Officer", CategoryDeck, []string{"third officer", "3rd officer", "third mate", "3rd mate", "3/o", "oow"}},
	{"Bosun", CategoryDeck, []string{"bosun", "boatswain", "bosun/deckhand"}},
	{"Lead Deckhand", CategoryDeck, []string{"lead deckhand", "lead deck", "senior deckhand", "head deckhand"}},
	{"Deckhand", CategoryDeck, []string{"deckhand", "deck hand", "deck crew", "junior deckhand", "deckie", "sailor", "ab", "able seaman"}},
	{"Deck/Engineer", CategoryDeck, []string{"deck/engineer", "deckhand/engineer", "deck engineer", "mate/engineer"}},

	{"Chief Engineer", CategoryEngineering, []string{"chief engineer", "chief eng", "c/e", "1st engineer", "first engineer"}},
	{"Second Engineer", CategoryEngineering, []string{"second engineer", "2nd engineer", "2/e", "2nd eng"}},
	{"Third Engineer", CategoryEngineering, []string{"third engineer", "3rd engineer", "3/e", "junior engineer"}},
	{"ETO", CategoryEngineering, []string{"eto", "electro technical officer", "electrotechnical officer", "electrician"}},
	{"AV/IT Officer", CategoryEngineering, []string{"av/it officer", "av/it", "it officer", "av it officer", "av technician"}},
	{"Engineer", CategoryEngineering, []string{"engineer", "sole engineer", "solo engineer", "motorman"}},

	{"Chief Stewardess", CategoryInterior, []string{"chief stewardess", "chief steward", "chief stew", "head of interior", "interior manager", "chief stewardess/purser"}},
	{"Second Stewardess", CategoryInterior, []string{"second stewardess", "2nd stewardess", "second steward", "2nd stew", "2nd steward"}},
	{"Third Stewardess", CategoryInterior, []string{"third stewardess", "3rd stewardess", "third steward", "3rd stew", "junior stewardess"}},
	{"Stewardess", CategoryInterior, []string{"stewardess", "steward", "stew", "interior crew", "service stewardess", "housekeeping stewardess", "sole stewardess"}},
	{"Laundry Stewardess", CategoryInterior, []string{"laundry stewardess", "laundry stew", "laundress"}},
	{"Purser", CategoryInterior, []string{"purser", "chief purser"}},
	{"Housekeeper", CategoryInterior, []string{"housekeeper", "head housekeeper", "housekeeping"}},
	{"Masseuse", CategoryInterior, []string{"masseuse", "masseur", "spa therapist", "beautician"}},
	{"Nanny", CategoryInterior, []string{"nanny", "governess"}},

	{"Head Chef", CategoryGalley, []string{"head chef", "executive chef", "chief chef", "1st chef"}},
	{"Sous Chef", CategoryGalley, []string{"sous chef", "second chef", "2nd chef"}},
	{"Crew Chef", CategoryGalley, []string{"crew chef", "crew cook"}},
	{"Chef", CategoryGalley, []string{"chef", "sole chef", "private chef", "yacht chef"}},
	{"Cook/Stewardess", CategoryGalley, []string{"cook/stewardess", "cook/stew", "chef/stewardess", "stew/cook"}},

	{"Security Officer", CategoryOther, []string{"security officer", "security", "ssp"}},
	{"Dive Instructor", CategoryOther, []string{"dive instructor", "divemaster", "dive master", "water sports instructor"}},
}

var (
	positionIndex = buildPositionIndex()
	titleNoiseRe  = regexp.MustCompile(`[.,;:()\[\]"']+`)
	slashSpaceRe  = regexp.MustCompile(`\s*/\s*`)
)

func buildPositionIndex() map[string]Position {
	idx := make(map[string]Position)
	for _, e := range positionTable {
		p := Position{StandardName: e.standard, Category: e.category}
		idx[normalizeTitle(e.standard)] = p
		for _, s := range e.synonyms {
			idx[normalizeTitle(s)] = p
		}
	}
	return idx
}

func normalizeTitle(s string) string {
	s = normalizeText(s)
	s = titleNoiseRe.ReplaceAllString(s, " ")
	s = slashSpaceRe.ReplaceAllString(s, "/")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// StandardizePosition maps a free-text job title onto the synonym table.
// Unmatched titles pass through unchanged with the "other" category.
func StandardizePosition(title string) Position {
	if p, ok := positionIndex[normalizeTitle(title)]; ok {
		return p
	}
	return Position{StandardName: title, Category: CategoryOther}
}

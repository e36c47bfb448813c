package game

import (
	"math/rand"
	"time"

	"kanjizoo/internal/domain"
)

// Generator builds one round's question from the catalog. It owns the
// reuse-avoidance set and the subject of the round in flight; the session
// sequences the calls (a phonetic round always follows the symbol round for
// the same item).
type Generator struct {
	catalog     []domain.CatalogItem
	optionCount int
	rnd         *rand.Rand

	used    map[string]struct{}
	subject domain.CatalogItem
}

// NewGenerator builds a generator over an immutable catalog slice. rnd may be
// nil, in which case a time-seeded source is used.
func NewGenerator(catalog []domain.CatalogItem, optionCount int, rnd *rand.Rand) *Generator {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{
		catalog:     catalog,
		optionCount: optionCount,
		rnd:         rnd,
		used:        make(map[string]struct{}),
	}
}

// Reset clears the reuse-avoidance set, ready for a fresh game.
func (g *Generator) Reset() {
	g.used = make(map[string]struct{})
}

// Subject returns the catalog item the current round is about.
func (g *Generator) Subject() domain.CatalogItem {
	return g.subject
}

// SymbolRound picks a fresh subject and builds either a symbol-to-picture or
// picture-to-symbol question for it. Once every item has appeared the used
// set starts over, so repetition is only possible after full coverage.
func (g *Generator) SymbolRound() domain.Question {
	available := make([]domain.CatalogItem, 0, len(g.catalog))
	for _, item := range g.catalog {
		if _, ok := g.used[item.Symbol]; !ok {
			available = append(available, item)
		}
	}
	if len(available) == 0 {
		g.used = make(map[string]struct{})
		available = g.catalog
	}

	subject := available[g.rnd.Intn(len(available))]
	g.used[subject.Symbol] = struct{}{}
	g.subject = subject

	kind := domain.KindSymbolToPicture
	prompt := subject.Symbol
	if g.rnd.Intn(2) == 0 {
		kind = domain.KindPictureToSymbol
		prompt = subject.Picture
	}

	items := g.choiceSet(subject)
	options := make([]domain.Option, 0, len(items))
	for _, item := range items {
		display := item.Picture
		if kind == domain.KindPictureToSymbol {
			display = item.Symbol
		}
		options = append(options, domain.Option{ID: item.Symbol, Display: display})
	}

	return domain.Question{
		Kind:      kind,
		Prompt:    prompt,
		Options:   options,
		CorrectID: subject.Symbol,
	}
}

// PhoneticRound builds the follow-up question for the subject chosen by the
// preceding SymbolRound: the symbol is prompted, the options show phonetic
// readings.
func (g *Generator) PhoneticRound() domain.Question {
	items := g.choiceSet(g.subject)
	options := make([]domain.Option, 0, len(items))
	for _, item := range items {
		options = append(options, domain.Option{ID: item.Symbol, Display: item.Phonetic})
	}

	return domain.Question{
		Kind:      domain.KindSymbolToPhonetic,
		Prompt:    g.subject.Symbol,
		Options:   options,
		CorrectID: g.subject.Symbol,
	}
}

// choiceSet returns the subject plus optionCount-1 distinct distractors, in
// uniformly shuffled order.
func (g *Generator) choiceSet(subject domain.CatalogItem) []domain.CatalogItem {
	others := make([]domain.CatalogItem, 0, len(g.catalog)-1)
	for _, item := range g.catalog {
		if item.Symbol != subject.Symbol {
			others = append(others, item)
		}
	}
	g.rnd.Shuffle(len(others), func(i, j int) {
		others[i], others[j] = others[j], others[i]
	})

	set := append([]domain.CatalogItem{subject}, others[:g.optionCount-1]...)
	g.rnd.Shuffle(len(set), func(i, j int) {
		set[i], set[j] = set[j], set[i]
	})
	return set
}

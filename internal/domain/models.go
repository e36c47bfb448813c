package domain

// CatalogItem is one immutable catalog entry. The symbol doubles as the
// unique key; the remaining fields are its display facets.
type CatalogItem struct {
	Symbol   string `json:"symbol" yaml:"symbol"`
	Phonetic string `json:"phonetic" yaml:"phonetic"`
	Meaning  string `json:"meaning" yaml:"meaning"`
	Picture  string `json:"picture" yaml:"picture"`
}

// Catalog is a named, immutable set of items.
type Catalog struct {
	ID    string        `json:"id" yaml:"id"`
	Items []CatalogItem `json:"items" yaml:"items"`
}

// MinCatalogSize is the smallest catalog the question generator can work
// with: one correct option plus three distractors.
const MinCatalogSize = 4

// QuestionKind selects which facet is prompted and which the options show.
type QuestionKind string

const (
	KindSymbolToPicture  QuestionKind = "symbolToPicture"
	KindPictureToSymbol  QuestionKind = "pictureToSymbol"
	KindSymbolToPhonetic QuestionKind = "phonetic"
)

// Option is one of the choices shown for a question.
type Option struct {
	ID      string `json:"id"`
	Display string `json:"display"`
}

// Question is a single round's prompt and choice set. Exactly one option ID
// equals CorrectID.
type Question struct {
	Kind      QuestionKind `json:"type"`
	Prompt    string       `json:"prompt"`
	Options   []Option     `json:"options"`
	CorrectID string       `json:"correctId"`
}

// AnswerOutcome records how a player's last submission went.
type AnswerOutcome struct {
	Correct bool `json:"correct"`
	Points  int  `json:"points"`
}

// LeaderboardEntry is one row of the projected standings. Tied scores share
// a rank; the connection ID lets a client find its own row.
type LeaderboardEntry struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	ID    string `json:"id"`
}

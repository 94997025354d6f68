package intent

// OpeningMatch is one catalogue hit for a substring of question text.
type OpeningMatch struct {
	Slug     string
	ECOLow   string
	ECOHigh  string
	HasRange bool
}

// OpeningCatalogue is the external collaborator (spec §4.A step 4) that
// resolves opening names/aliases mentioned in free text to catalogue
// entries. The concrete catalogue data (ECO table, slugs) lives outside
// this module's scope; callers supply an implementation.
type OpeningCatalogue interface {
	Match(text string) []OpeningMatch
}

// NoCatalogue is a no-op OpeningCatalogue used when none is configured;
// analyse degrades gracefully to zero opening filters.
type NoCatalogue struct{}

func (NoCatalogue) Match(string) []OpeningMatch { return nil }

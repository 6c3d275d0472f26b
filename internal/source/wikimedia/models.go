package wikimedia

// feedResponse mirrors the upstream on-this-day payload. The upstream also
// returns "selected" and "holidays" groups; only the three we serve are
// decoded.
type feedResponse struct {
	Events []feedEvent `json:"events"`
	Births []feedEvent `json:"births"`
	Deaths []feedEvent `json:"deaths"`
}

type feedEvent struct {
	Text  string     `json:"text"`
	Year  int        `json:"year"`
	Pages []feedPage `json:"pages"`
}

type feedPage struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
}

// OnThisDay is the reshaped response served to clients.
type OnThisDay struct {
	Events []Event `json:"events"`
	Births []Event `json:"births"`
	Deaths []Event `json:"deaths"`
}

// Event is one historical entry. Year is a string in the served payload.
// For births and deaths the upstream year is still the event year.
type Event struct {
	Year  string `json:"year"`
	Text  string `json:"text"`
	Pages []Page `json:"pages"`
}

// Page is a reference page attached to an event.
type Page struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
}

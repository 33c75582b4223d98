package model

// SourceResult is a single search hit used as evidence for a claim.
type SourceResult struct {
	Title        string `json:"title"`
	Snippet      string `json:"snippet"`
	Link         string `json:"link"`
	DisplayLink  string `json:"displayLink"`
	FormattedURL string `json:"formattedUrl,omitempty"`
	Thumbnail    string `json:"thumbnail,omitempty"`
}

// Stance classifies a source's position on a claim.
type Stance string

const (
	StanceSupport Stance = "SUPPORT"
	StanceOppose  Stance = "OPPOSE"
	StanceNeutral Stance = "NEUTRAL"
)

// Valid reports whether s is one of the known stances.
func (s Stance) Valid() bool {
	switch s {
	case StanceSupport, StanceOppose, StanceNeutral:
		return true
	default:
		return false
	}
}

// SourceStance is the classified position of one source.
type SourceStance struct {
	SourceIndex int    `json:"source_index"` // 1-based position in the result list; 0 when unknown
	Domain      string `json:"domain,omitempty"`
	URL         string `json:"url,omitempty"`
	Stance      Stance `json:"stance"`
	Reasoning   string `json:"reasoning"`
	Quote       string `json:"quote,omitempty"`
}

package parser

import "regexp"

type socialRule struct {
	pattern *regexp.Regexp
	label   string
}

var socialRules = []socialRule{
	{regexp.MustCompile(`(?i)\binstagram\.com\b`), "postingan di Instagram"},
	{regexp.MustCompile(`(?i)\bfacebook\.com\b`), "postingan di Facebook"},
	{regexp.MustCompile(`(?i)\bfb\.com\b`), "postingan di Facebook"},
	{regexp.MustCompile(`(?i)\btwitter\.com\b`), "postingan di X"},
	{regexp.MustCompile(`(?i)\bx\.com\b`), "postingan di X"},
	{regexp.MustCompile(`(?i)\byoutube\.com\b`), "postingan di YouTube"},
	{regexp.MustCompile(`(?i)\byoutu\.be\b`), "postingan di YouTube"},
	{regexp.MustCompile(`(?i)\breddit\.com\b`), "postingan di Reddit"},
	{regexp.MustCompile(`(?i)\btiktok\.com\b`), "postingan di TikTok"},
	{regexp.MustCompile(`(?i)\blinkedin\.com\b`), "postingan di LinkedIn"},
	{regexp.MustCompile(`(?i)\bthreads\.net\b`), "postingan di Threads"},
}

// FormatSocialMedia rewrites social-media domains into a readable
// "postingan di <Platform>" phrase.
func FormatSocialMedia(text string) string {
	for _, r := range socialRules {
		text = r.pattern.ReplaceAllString(text, r.label)
	}
	return text
}

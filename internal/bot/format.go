package bot

import (
	"strings"
	"unicode/utf8"

	"github.com/samvad-hq/newstone/internal/domain"
)

// MaxMessageLength is Telegram's limit for one text message.
const MaxMessageLength = 4096

// FormatNews renders articles as "📰 title\nsummary" blocks separated by blank lines.
func FormatNews(articles []domain.RenderedArticle) string {
	blocks := make([]string, 0, len(articles))
	for _, a := range articles {
		blocks = append(blocks, "📰 "+a.Title+"\n"+a.Summary)
	}
	return strings.Join(blocks, "\n\n")
}

// SplitMessage cuts text into chunks of at most limit runes, preferring
// blank-line, then newline, then space boundaries.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLength
	}
	var chunks []string
	for utf8.RuneCountInString(text) > limit {
		head := prefixRunes(text, limit)
		cut := -1
		for _, sep := range []string{"\n\n", "\n", " "} {
			if i := strings.LastIndex(head, sep); i > 0 {
				cut = i
				break
			}
		}
		chunk := ""
		if cut > 0 {
			chunk = strings.TrimRight(head[:cut], "\n ")
		}
		if chunk == "" {
			chunks = append(chunks, head)
			text = text[len(head):]
			continue
		}
		chunks = append(chunks, chunk)
		text = strings.TrimLeft(text[cut:], "\n ")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

func prefixRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// ToneArg returns the first command argument, or fallback when none was given.
func ToneArg(args, fallback string) string {
	if fields := strings.Fields(args); len(fields) > 0 {
		return fields[0]
	}
	return fallback
}

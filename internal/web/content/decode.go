package content

import (
	"strings"

	"golang.org/x/net/html"
)

// Kind classifies a token.
type Kind int

const (
	// Word is a run of text with no internal whitespace.
	Word Kind = iota
	// LineBreak forces the next word onto a new line.
	LineBreak
	// ParagraphBreak forces a new line and a blank gap before it.
	ParagraphBreak
)

// Token is one unit of renderable content, produced in document order.
type Token struct {
	Kind Kind
	Text string
}

// Block tags that separate content. Paragraph-level tags get a blank gap;
// the rest just break the line. Every other tag is stripped and ignored.
var paragraphTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true,
}

var lineTags = map[string]bool{
	"br": true, "div": true, "li": true, "tr": true,
	"ul": true, "ol": true, "table": true,
	"section": true, "article": true, "header": true,
	"footer": true, "main": true, "nav": true,
}

// Raw-text elements whose content is never rendered, wherever they appear.
var hiddenTags = map[string]bool{
	"script": true, "style": true, "title": true,
}

// Tags permitted inside <head>. Any other start tag closes an open head
// implicitly, since markup may legally omit </head>.
var headTags = map[string]bool{
	"head": true, "meta": true, "link": true, "base": true,
	"title": true, "style": true, "script": true,
	"noscript": true, "template": true,
}

// Decode turns decoded resource text into a flat token stream. HTML input
// has its markup scanned: block tags become break tokens, all other tags
// are stripped, and character entities are resolved. Decoding is lenient;
// malformed markup and bad entities pass through rather than failing.
// Non-HTML input is literal text with newlines as line breaks.
func Decode(text string, isHTML bool) []Token {
	if !isHTML {
		return decodeLiteral(text)
	}
	return decodeHTML(text)
}

func decodeHTML(text string) []Token {
	tokenizer := html.NewTokenizer(strings.NewReader(text))

	var tokens []Token
	var pending Kind // strongest break seen since the last word
	havePending := false
	hiddenDepth := 0
	inHead := false

	flush := func() {
		if havePending && len(tokens) > 0 {
			tokens = append(tokens, Token{Kind: pending})
		}
		havePending = false
		pending = LineBreak
	}
	noteBreak := func(kind Kind) {
		if !havePending || kind > pending {
			pending = kind
			havePending = true
		}
	}

	for {
		tokenType := tokenizer.Next()
		switch tokenType {
		case html.ErrorToken:
			// Includes io.EOF; lenient decoding stops here either way.
			return tokens

		case html.TextToken:
			if hiddenDepth > 0 || inHead {
				continue
			}
			// Token() resolves named and numeric entities; anything
			// malformed is left as literal text.
			for _, word := range strings.Fields(tokenizer.Token().Data) {
				flush()
				tokens = append(tokens, Token{Kind: Word, Text: word})
			}

		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			name, _ := tokenizer.TagName()
			tag := strings.ToLower(string(name))

			if tag == "head" {
				inHead = tokenType == html.StartTagToken
				continue
			}
			if hiddenTags[tag] {
				if tokenType == html.StartTagToken {
					hiddenDepth++
				} else if tokenType == html.EndTagToken && hiddenDepth > 0 {
					hiddenDepth--
				}
				continue
			}
			if inHead && !headTags[tag] {
				// Body-level tag ends the head even without </head>.
				inHead = false
			}

			switch {
			case paragraphTags[tag]:
				noteBreak(ParagraphBreak)
			case lineTags[tag]:
				noteBreak(LineBreak)
			}
		}
	}
}

func decodeLiteral(text string) []Token {
	var tokens []Token
	var pending Kind
	havePending := false

	for _, line := range strings.Split(text, "\n") {
		words := strings.Fields(line)
		if len(words) == 0 {
			if !havePending || ParagraphBreak > pending {
				pending = ParagraphBreak
				havePending = true
			}
			continue
		}
		for i, word := range words {
			if i == 0 {
				if havePending && len(tokens) > 0 {
					tokens = append(tokens, Token{Kind: pending})
				} else if len(tokens) > 0 {
					tokens = append(tokens, Token{Kind: LineBreak})
				}
				havePending = false
				pending = LineBreak
			}
			tokens = append(tokens, Token{Kind: Word, Text: word})
		}
	}
	return tokens
}

// Render joins a token stream back into plain text: words separated by
// spaces, line breaks by newlines, paragraph breaks by blank lines.
func Render(tokens []Token) string {
	var b strings.Builder
	for i, token := range tokens {
		switch token.Kind {
		case Word:
			if i > 0 && tokens[i-1].Kind == Word {
				b.WriteString(" ")
			}
			b.WriteString(token.Text)
		case LineBreak:
			b.WriteString("\n")
		case ParagraphBreak:
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

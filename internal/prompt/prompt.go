package prompt

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type Format string

const (
	Journal Format = "journal"
	Article Format = "article"
	Note    Format = "note"
	Tweet   Format = "tweet"
	Todo    Format = "todo"
)

// TweetMaxChars is only stated in the tweet instruction; output length is not checked.
const TweetMaxChars = 280

const markdownInstruction = "output in markdown, Properly formatted and styled with headings, paragraphs, lists, and other elements."

var templates = map[Format]string{
	Journal: "Convert the following text into a beautiful journal entry:",
	Article: "Rewrite the following text as a short blog article:",
	Note:    "Summarize the following text as a concise note:",
	Tweet:   fmt.Sprintf("Condense the following text into a tweet (%d characters max):", TweetMaxChars),
	Todo:    "Extract action items from the following text and create a well detailed to-do list:",
}

// Formats returns every supported format in a stable order.
func Formats() []Format {
	formats := make([]Format, 0, len(templates))
	for f := range templates {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

func ParseFormat(value string) (Format, bool) {
	f := Format(strings.ToLower(strings.TrimSpace(value)))
	_, ok := templates[f]
	return f, ok
}

// Instruction returns the rewrite instruction for f.
func (f Format) Instruction() (string, bool) {
	instruction, ok := templates[f]
	return instruction, ok
}

// Conversion builds the single generation prompt for rewriting text into f.
func Conversion(f Format, text string) (string, error) {
	instruction, ok := f.Instruction()
	if !ok {
		return "", fmt.Errorf("unknown format %q", f)
	}
	return fmt.Sprintf("%s \"%s\"; %s", instruction, text, markdownInstruction), nil
}

// Translation builds the generation prompt for translating text into lang.
func Translation(lang, text string) string {
	return fmt.Sprintf("translate the following into this language \"%s\" text \"%s\".", LanguageName(lang), text)
}

// LanguageName expands a two-letter BCP 47 code such as "fr" or "pt-BR" to
// its English display name. Anything else, including plain names like
// "French" or short ones like "Tok", is returned trimmed and unchanged.
func LanguageName(lang string) string {
	lang = strings.TrimSpace(lang)
	if !isTwoLetterTag(lang) {
		return lang
	}
	tag, err := language.Parse(lang)
	if err != nil || tag == language.Und {
		return lang
	}
	if name := display.Tags(language.English).Name(tag); name != "" {
		return name
	}
	return lang
}

// isTwoLetterTag reports whether lang is an ISO 639-1 code, optionally
// followed by script or region subtags ("zh-Hant", "pt_BR").
func isTwoLetterTag(lang string) bool {
	parts := strings.FieldsFunc(lang, func(r rune) bool { return r == '-' || r == '_' })
	if len(parts) == 0 || len(parts[0]) != 2 || len(parts) > 3 {
		return false
	}
	for i, part := range parts {
		if i > 0 && (len(part) < 2 || len(part) > 4) {
			return false
		}
		for _, r := range part {
			isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
			if !isLetter && (i == 0 || r < '0' || r > '9') {
				return false
			}
		}
	}
	return true
}

package prompt

import (
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	for _, f := range Formats() {
		got, ok := ParseFormat(" " + strings.ToUpper(string(f)) + " ")
		if !ok || got != f {
			t.Fatalf("ParseFormat(%q) = %q, %v", f, got, ok)
		}
	}
	if _, ok := ParseFormat("poem"); ok {
		t.Fatal("expected unknown format to be rejected")
	}
	if len(Formats()) != 5 {
		t.Fatalf("unexpected format count: %d", len(Formats()))
	}
}

func TestConversionEmbedsInstructionAndLiteralText(t *testing.T) {
	got, err := Conversion(Todo, "bought milk, call mom")
	if err != nil {
		t.Fatalf("Conversion() error = %v", err)
	}
	want := `Extract action items from the following text and create a well detailed to-do list: "bought milk, call mom"; output in markdown, Properly formatted and styled with headings, paragraphs, lists, and other elements.`
	if got != want {
		t.Fatalf("unexpected prompt:\n got %q\nwant %q", got, want)
	}
}

func TestConversionTweetMentionsLimit(t *testing.T) {
	got, err := Conversion(Tweet, "x")
	if err != nil {
		t.Fatalf("Conversion() error = %v", err)
	}
	if !strings.Contains(got, "280 characters max") {
		t.Fatalf("expected tweet limit in prompt: %q", got)
	}
}

func TestInstruction(t *testing.T) {
	for _, f := range Formats() {
		instruction, ok := f.Instruction()
		if !ok || instruction == "" {
			t.Fatalf("missing instruction for %q", f)
		}
	}
	if _, ok := Format("poem").Instruction(); ok {
		t.Fatal("expected no instruction for unknown format")
	}
}

func TestConversionRejectsUnknownFormat(t *testing.T) {
	if _, err := Conversion(Format("poem"), "x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestTranslation(t *testing.T) {
	got := Translation("French", "good morning")
	want := `translate the following into this language "French" text "good morning".`
	if got != want {
		t.Fatalf("unexpected prompt: %q", got)
	}
}

func TestLanguageName(t *testing.T) {
	cases := map[string]string{
		"fr":        "French",
		"de":        "German",
		"French":    "French",
		" Spanish ": "Spanish",
		"Old Norse": "Old Norse",
		"x":         "x",
		"Tok":       "Tok",
		"eng":       "eng",
		"Ewe":       "Ewe",
	}
	for in, want := range cases {
		if got := LanguageName(in); got != want {
			t.Fatalf("LanguageName(%q) = %q; want %q", in, got, want)
		}
	}
	if got := LanguageName("pt-BR"); !strings.Contains(got, "Portuguese") {
		t.Fatalf("expected region tag to expand, got %q", got)
	}
}

package audiofile

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestExtensionForMIME(t *testing.T) {
	cases := map[string]string{
		"audio/webm":             ".webm",
		"audio/webm;codecs=opus": ".webm",
		"AUDIO/OGG; codecs=opus": ".ogg",
		"audio/mpeg":             ".mp3",
		"audio/x-m4a":            ".m4a",
		"audio/wav":              ".wav",
		"video/mp4":              ".mp4",
	}
	for in, want := range cases {
		got, ok := ExtensionForMIME(in)
		if !ok || got != want {
			t.Fatalf("ExtensionForMIME(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}

	if _, ok := ExtensionForMIME("application/pdf"); ok {
		t.Fatal("expected unknown MIME type to report false")
	}
}

func TestFileName(t *testing.T) {
	cases := []struct {
		name, mime, want string
	}{
		{"audio-1712345678", "audio/webm", "audio-1712345678.webm"},
		{"", "audio/webm;codecs=opus", "audio.webm"},
		{"note.mp3", "audio/webm", "note.webm"},
		{"recording.wav", "audio/webm", "recording.webm"},
		{"note.mp3", "", "note.mp3"},
		{"NOTE.WAV", "audio/wav", "NOTE.WAV"},
		{"voice.memo", "audio/ogg", "voice.memo.ogg"},
		{"blob", "application/pdf", "blob"},
		{"blob", "", "blob"},
		{"  ", "", "audio"},
	}
	for _, tc := range cases {
		if got := FileName(tc.name, tc.mime); got != tc.want {
			t.Fatalf("FileName(%q, %q) = %q; want %q", tc.name, tc.mime, got, tc.want)
		}
	}
}

func TestNeedsSniffing(t *testing.T) {
	if !NeedsSniffing("") || !NeedsSniffing("application/octet-stream") {
		t.Fatal("expected empty and octet-stream types to need sniffing")
	}
	if NeedsSniffing("audio/webm") {
		t.Fatal("declared audio type should not need sniffing")
	}
}

func TestSniffDetectsWAVAndReplaysBytes(t *testing.T) {
	payload := "RIFF\x24\x00\x00\x00WAVEfmt \x10\x00\x00\x00\x01\x00\x01\x00" + strings.Repeat("\x00", 64)

	mediaType, r, err := Sniff(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("Sniff() error = %v", err)
	}
	if mediaType != "audio/wav" {
		t.Fatalf("unexpected media type: %q", mediaType)
	}
	replayed, _ := io.ReadAll(r)
	if string(replayed) != payload {
		t.Fatal("expected sniffed reader to replay the full payload")
	}
}

func TestSniffRejectsEmptyPayload(t *testing.T) {
	if _, _, err := Sniff(strings.NewReader("")); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

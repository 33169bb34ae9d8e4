// Package audiofile names uploaded audio blobs so that speech-to-text
// backends accept them. Backends such as Whisper pick the decoder from the
// file extension and refuse files without one, even when the bytes are valid.
package audiofile

import (
	"bufio"
	"errors"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	// DefaultBaseName is used when the client sent no file name at all.
	DefaultBaseName = "audio"

	sniffLen = 3072
)

var ErrEmpty = errors.New("audio payload is empty")

var extensionsByMIME = map[string]string{
	"audio/webm":      ".webm",
	"video/webm":      ".webm",
	"audio/ogg":       ".ogg",
	"audio/opus":      ".ogg",
	"application/ogg": ".ogg",
	"audio/mpeg":      ".mp3",
	"audio/mp3":       ".mp3",
	"audio/mpga":      ".mpga",
	"audio/mp4":       ".m4a",
	"audio/m4a":       ".m4a",
	"audio/x-m4a":     ".m4a",
	"video/mp4":       ".mp4",
	"video/mpeg":      ".mpeg",
	"audio/wav":       ".wav",
	"audio/wave":      ".wav",
	"audio/x-wav":     ".wav",
	"audio/vnd.wave":  ".wav",
	"audio/flac":      ".flac",
	"audio/x-flac":    ".flac",
}

var acceptedExtensions = map[string]struct{}{
	".flac": {}, ".m4a": {}, ".mp3": {}, ".mp4": {}, ".mpeg": {},
	".mpga": {}, ".oga": {}, ".ogg": {}, ".wav": {}, ".webm": {},
}

// ExtensionForMIME maps a MIME type (parameters allowed) to a file extension
// including the leading dot. Unknown types report false.
func ExtensionForMIME(mimeType string) (string, bool) {
	ext, ok := extensionsByMIME[MediaType(mimeType)]
	return ext, ok
}

// MediaType strips parameters and lowercases a MIME type.
// "audio/webm;codecs=opus" becomes "audio/webm".
func MediaType(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		return ""
	}
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mediaType
	}
	mediaType, _, _ := strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// HasAcceptedExtension reports whether name already ends in an extension the
// transcription backend recognizes.
func HasAcceptedExtension(name string) bool {
	_, ok := acceptedExtensions[strings.ToLower(path.Ext(name))]
	return ok
}

// FileName returns the name to submit upstream. When mimeType is known, the
// name ends in the matching extension: an audio extension that disagrees with
// the declared type is replaced, any other name gets the extension appended.
// An unknown mimeType leaves the name unchanged.
func FileName(name, mimeType string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultBaseName
	}
	ext, ok := ExtensionForMIME(mimeType)
	if !ok {
		return name
	}
	current := path.Ext(name)
	if strings.EqualFold(current, ext) {
		return name
	}
	if HasAcceptedExtension(name) {
		name = strings.TrimSuffix(name, current)
	}
	return name + ext
}

// NeedsSniffing reports whether the declared type carries no usable information.
func NeedsSniffing(mimeType string) bool {
	switch MediaType(mimeType) {
	case "", "application/octet-stream":
		return true
	default:
		return false
	}
}

// Sniff peeks at the head of r and returns the detected media type together
// with a reader that replays the peeked bytes. ErrEmpty is returned when r
// yields no data.
func Sniff(r io.Reader) (string, io.Reader, error) {
	br := bufio.NewReaderSize(r, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", nil, err
	}
	if len(head) == 0 {
		return "", nil, ErrEmpty
	}
	return MediaType(mimetype.Detect(head).String()), br, nil
}

package validation

import (
	"errors"
	"testing"
)

type sample struct {
	Text   string `json:"text" validate:"required,max=5"`
	Format string `json:"format" validate:"required,oneof=journal todo"`
}

func TestStructReportsFieldsByJSONName(t *testing.T) {
	err := Struct(sample{Text: "too long", Format: "poem"})
	var vErr *Error
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *Error, got %T (%v)", err, err)
	}
	if len(vErr.Fields) != 2 {
		t.Fatalf("unexpected fields: %+v", vErr.Fields)
	}
	if vErr.Error() != "text must be at most 5 characters; format must be one of: journal todo" {
		t.Fatalf("unexpected message: %q", vErr.Error())
	}
}

func TestStructRequired(t *testing.T) {
	err := Struct(sample{Format: "todo"})
	if err == nil || err.Error() != "text is required" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStructValid(t *testing.T) {
	if err := Struct(sample{Text: "hi", Format: "journal"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

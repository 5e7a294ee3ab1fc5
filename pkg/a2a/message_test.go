package a2a

import "testing"

func TestNewTextMessageValidates(t *testing.T) {
	msg := NewTextMessage(RoleUser, "hello")

	if v := msg.Validate(); !v.Valid() {
		t.Fatalf("expected valid message, got errors: %v", v.Error())
	}

	if msg.MessageID == "" {
		t.Fatal("expected MessageID to be assigned")
	}
}

func TestMessageValidateRejectsMissingRole(t *testing.T) {
	msg := &Message{Parts: []Part{NewTextPart("x")}, MessageID: "id-1"}

	if v := msg.Validate(); v.Valid() {
		t.Fatal("expected validation failure for blank role")
	}
}

func TestMessageValidateRejectsNoParts(t *testing.T) {
	msg := &Message{Role: RoleUser, MessageID: "id-1"}

	if v := msg.Validate(); v.Valid() {
		t.Fatal("expected validation failure for empty parts")
	}
}

func TestMessageValidateRejectsBlankMessageID(t *testing.T) {
	msg := &Message{Role: RoleUser, Parts: []Part{NewTextPart("x")}}

	if v := msg.Validate(); v.Valid() {
		t.Fatal("expected validation failure for blank messageId")
	}
}

func TestMessageStringConcatenatesTextPartsOnly(t *testing.T) {
	msg := &Message{
		Role: RoleAgent,
		Parts: []Part{
			NewTextPart("hello "),
			NewDataPart(map[string]any{"k": "v"}, "application/json"),
			NewTextPart("world"),
		},
	}

	if got := msg.String(); got != "hello world" {
		t.Fatalf("expected %q, got %q", "hello world", got)
	}
}

func TestNewFilePartRoundTripsBytes(t *testing.T) {
	part := NewFilePart("doc.txt", "text/plain", []byte("payload"))

	if part.Type != PartTypeFile {
		t.Fatalf("expected PartTypeFile, got %s", part.Type)
	}
	if part.File == nil || part.File.Bytes == "" {
		t.Fatal("expected file part to carry base64 bytes")
	}
}

package a2a

import "encoding/base64"

/*
Part is a discriminated union over Text, Data and File parts. Exactly one of
Text, Data, or File should be populated according to Type; this is not
enforced, neither at the struct level nor by the owning Message's
Validate().
*/
type Part struct {
	Type PartType `json:"type"`

	Text string         `json:"text,omitempty"`
	Data map[string]any `json:"data,omitempty"`
	File *FilePart      `json:"file,omitempty"`

	MimeType string         `json:"mimeType,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// PartType is the discriminator for a Part union.
type PartType string

const (
	PartTypeText PartType = "text"
	PartTypeData PartType = "data"
	PartTypeFile PartType = "file"
)

// FilePart carries either inline bytes (base64) or a URI reference, never
// both, per the A2A wire format.
type FilePart struct {
	Name     *string `json:"name,omitempty"`
	MimeType *string `json:"mimeType,omitempty"`
	Bytes    string  `json:"bytes,omitempty"`
	URI      string  `json:"uri,omitempty"`
}

func NewTextPart(text string) Part {
	return Part{Type: PartTypeText, Text: text}
}

func NewDataPart(data map[string]any, mimeType string) Part {
	return Part{Type: PartTypeData, Data: data, MimeType: mimeType}
}

func NewFilePart(name string, mimeType string, data []byte) Part {
	return Part{
		Type: PartTypeFile,
		File: &FilePart{
			Name:     &name,
			MimeType: &mimeType,
			Bytes:    base64.StdEncoding.EncodeToString(data),
		},
	}
}

func NewFilePartFromURI(name string, mimeType string, uri string) Part {
	return Part{
		Type: PartTypeFile,
		File: &FilePart{
			Name:     &name,
			MimeType: &mimeType,
			URI:      uri,
		},
	}
}

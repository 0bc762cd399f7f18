package entity

// Document is an uploaded binary with its declared MIME type.
type Document struct {
	Name string `json:"name"`
	MIME string `json:"mime"`
	Data []byte `json:"-"`
}

// Size returns the payload length in bytes.
func (d Document) Size() int64 {
	return int64(len(d.Data))
}

// Image is a visual payload sent to the model instead of extracted text.
type Image struct {
	MIME    string `json:"mime"`
	DataURL string `json:"-"`
}

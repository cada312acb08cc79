package gymscore

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

type Photo struct {
	Image    []byte `json:"image"`
	MimeType string `json:"mimeType"`
}

// UnmarshalJSON accepts the image as plain base64 or as a data URL
// ("data:image/png;base64,..."), the latter also providing the mime type.
func (p *Photo) UnmarshalJSON(data []byte) error {
	var raw struct {
		Image    string `json:"image"`
		MimeType string `json:"mimeType"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	encoded := strings.TrimSpace(raw.Image)
	mimeType := strings.TrimSpace(raw.MimeType)
	if rest, ok := strings.CutPrefix(encoded, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(header, ";base64") {
			return fmt.Errorf("%w: malformed image data url", ErrInvalidInput)
		}
		if mimeType == "" {
			mimeType = strings.TrimSuffix(header, ";base64")
		}
		encoded = payload
	}

	image, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("%w: image is not base64: %s", ErrInvalidInput, err)
	}

	p.Image = image
	p.MimeType = mimeType
	return nil
}

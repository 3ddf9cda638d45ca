package models

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ImagePayload is a self-contained image: raw bytes plus MIME type. Images
// travel through the API and the session store as data URLs so uploads and
// demo fetches are handled uniformly.
type ImagePayload struct {
	MimeType string `json:"mimeType"`
	Data     []byte `json:"-"`
}

var errNotDataURL = errors.New("not a data URL")

// ParseDataURL decodes a "data:<mime>;base64,<payload>" string. A bare
// base64 string without the prefix is accepted and assumed to be JPEG,
// matching the upstream client behavior.
func ParseDataURL(s string) (ImagePayload, error) {
	mime := "image/jpeg"
	payload := s
	if strings.HasPrefix(s, "data:") {
		comma := strings.Index(s, ",")
		if comma < 0 {
			return ImagePayload{}, errNotDataURL
		}
		header := s[len("data:"):comma]
		payload = s[comma+1:]
		if semi := strings.Index(header, ";"); semi >= 0 {
			header = header[:semi]
		}
		if header != "" {
			mime = header
		}
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return ImagePayload{}, fmt.Errorf("failed to decode image payload: %w", err)
	}
	if len(data) == 0 {
		return ImagePayload{}, errors.New("empty image payload")
	}
	return ImagePayload{MimeType: mime, Data: data}, nil
}

// DataURL encodes the payload back to a data URL.
func (p ImagePayload) DataURL() string {
	return "data:" + p.MimeType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// Base64 returns the bare base64 body, the form sent inline to the model.
func (p ImagePayload) Base64() string {
	return base64.StdEncoding.EncodeToString(p.Data)
}

// IsZero reports whether no image is held.
func (p ImagePayload) IsZero() bool {
	return len(p.Data) == 0
}

package models

import "encoding/base64"

// VisionResult is a generated image, base64-encoded and tagged with its MIME type.
type VisionResult struct {
	MIMEType       string `json:"mime_type"`
	Data           string `json:"data"`
	ExpandedPrompt string `json:"expanded_prompt,omitempty"`
}

// DataURI renders the image as a data URI usable by a browser.
func (v *VisionResult) DataURI() string {
	return "data:" + v.MIMEType + ";base64," + v.Data
}

// Bytes decodes the image payload.
func (v *VisionResult) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(v.Data)
}

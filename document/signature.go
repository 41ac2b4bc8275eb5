package document

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSignature is returned for signature payloads that are not a
// base64 image data URL.
var ErrInvalidSignature = errors.New("document: invalid signature image")

// Origin records how a signature was captured.
type Origin string

const (
	OriginDrawn    Origin = "drawn"
	OriginUploaded Origin = "uploaded"
)

// Signature is the signer's image as a data URL
// ("data:image/png;base64,...").
type Signature struct {
	Origin Origin `json:"origin"`
	Image  string `json:"image"`
}

// Image formats accepted in signature data URLs, keyed by MIME type.
var signatureFormats = map[string]string{
	"image/png":  "PNG",
	"image/jpeg": "JPG",
	"image/jpg":  "JPG",
	"image/gif":  "GIF",
}

// NewSignature validates image and returns a signature with the given
// origin. An unknown origin is treated as uploaded.
func NewSignature(origin Origin, image string) (Signature, error) {
	if _, _, err := DecodeSignature(image); err != nil {
		return Signature{}, err
	}
	if origin != OriginDrawn {
		origin = OriginUploaded
	}
	return Signature{Origin: origin, Image: image}, nil
}

// Decode returns the raw image bytes and the image format ("PNG", "JPG" or
// "GIF").
func (s Signature) Decode() ([]byte, string, error) {
	return DecodeSignature(s.Image)
}

// DecodeSignature parses a base64 image data URL.
func DecodeSignature(dataURL string) (data []byte, format string, err error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(dataURL), "data:")
	if !ok {
		return nil, "", fmt.Errorf("%w: missing data: scheme", ErrInvalidSignature)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("%w: missing payload", ErrInvalidSignature)
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return nil, "", fmt.Errorf("%w: payload is not base64", ErrInvalidSignature)
	}
	format, ok = signatureFormats[strings.ToLower(mime)]
	if !ok {
		return nil, "", fmt.Errorf("%w: unsupported type %q", ErrInvalidSignature, mime)
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty image", ErrInvalidSignature)
	}
	return data, format, nil
}

// EncodeSignature builds a data URL from raw image bytes.
func EncodeSignature(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

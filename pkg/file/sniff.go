package file

import "bytes"

// Signature identifies a binary format detected from leading magic bytes.
type Signature struct {
	Name     string
	MIMEType string
}

var (
	SignaturePNG  = Signature{Name: "png", MIMEType: "image/png"}
	SignatureJPEG = Signature{Name: "jpeg", MIMEType: "image/jpeg"}
	SignatureGIF  = Signature{Name: "gif", MIMEType: "image/gif"}
	SignatureWebP = Signature{Name: "webp", MIMEType: "image/webp"}
)

// minSniffLen is the shortest input the sniffer will look at.
const minSniffLen = 8

var (
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	gifMagic  = []byte("GIF8")
	riffMagic = []byte("RIFF")
	webpMagic = []byte("WEBP")
)

// Sniff reports which known image signature the data starts with.
// It looks only at the bytes, never at declared metadata.
// Inputs shorter than 8 bytes never match.
//
// Example:
//
//	if sig, ok := file.Sniff(data); ok {
//	    fmt.Println(sig.MIMEType) // "image/png"
//	}
func Sniff(data []byte) (Signature, bool) {
	if len(data) < minSniffLen {
		return Signature{}, false
	}

	switch {
	case bytes.HasPrefix(data, pngMagic):
		return SignaturePNG, true
	case bytes.HasPrefix(data, jpegMagic):
		return SignatureJPEG, true
	case bytes.HasPrefix(data, gifMagic):
		return SignatureGIF, true
	case len(data) >= 12 && bytes.Equal(data[0:4], riffMagic) && bytes.Equal(data[8:12], webpMagic):
		return SignatureWebP, true
	}

	return Signature{}, false
}

// IsImageSignature reports whether data starts with any known image signature.
func IsImageSignature(data []byte) bool {
	_, ok := Sniff(data)
	return ok
}

package file

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// VerdictStatus is the outcome of a classification.
type VerdictStatus string

const (
	VerdictAccepted     VerdictStatus = "accepted"
	VerdictRejectedSize VerdictStatus = "rejected_size"
	VerdictRejectedType VerdictStatus = "rejected_type"
)

// Signal names the check that produced an acceptance.
type Signal string

const (
	SignalNone      Signal = ""
	SignalDeclared  Signal = "declared_type"
	SignalExtension Signal = "extension"
	SignalSignature Signal = "signature"
)

// Verdict is the terminal result of classifying one candidate.
type Verdict struct {
	Status    VerdictStatus
	Reason    string
	Via       Signal
	Detected  Signature // zero unless Via is SignalSignature
	Extension string
}

// Accepted reports whether the candidate passed the policy.
func (v Verdict) Accepted() bool {
	return v.Status == VerdictAccepted
}

// Fallback reports whether acceptance relied on something other than the declared type.
// Callers log these as a mismatch between declared and observed metadata.
func (v Verdict) Fallback() bool {
	return v.Accepted() && v.Via != SignalDeclared
}

// Err converts a rejection into an error wrapping the matching sentinel.
// Returns nil for accepted verdicts.
func (v Verdict) Err() error {
	switch v.Status {
	case VerdictRejectedSize:
		return fmt.Errorf("%s: %w", v.Reason, ErrFileTooLarge)
	case VerdictRejectedType:
		if v.Reason == reasonNotImage {
			return ErrNotImage
		}
		return fmt.Errorf("%s: %w", v.Reason, ErrMIMETypeNotAllowed)
	default:
		return nil
	}
}

const reasonNotImage = "not a valid image"

// ClassifyUpload applies the generic upload policy: a hard size limit on the actual
// byte length, then an exact match of the declared MIME type against UploadMIMETypes.
// There is no extension or signature fallback.
// A non-positive maxBytes uses DefaultMaxUploadSize.
func ClassifyUpload(c Candidate, maxBytes int64) Verdict {
	if v, ok := checkSize(c, maxBytes); !ok {
		return v
	}

	if !UploadMIMETypes[c.MIMEType] {
		return Verdict{
			Status:    VerdictRejectedType,
			Reason:    fmt.Sprintf("file type %q is not allowed", c.MIMEType),
			Extension: Extension(c.Filename),
		}
	}

	return Verdict{Status: VerdictAccepted, Via: SignalDeclared, Extension: Extension(c.Filename)}
}

// ClassifyImage applies the image policy. After the size limit, three checks run in order
// and the first success wins: declared MIME type, lowercase filename extension,
// and the binary signature of the data. The candidate is rejected only if all three fail.
func ClassifyImage(c Candidate, maxBytes int64) Verdict {
	if v, ok := checkSize(c, maxBytes); !ok {
		return v
	}

	ext := Extension(c.Filename)

	if ImageMIMETypes[c.MIMEType] {
		return Verdict{Status: VerdictAccepted, Via: SignalDeclared, Extension: ext}
	}

	if ImageExtensions[ext] {
		return Verdict{Status: VerdictAccepted, Via: SignalExtension, Extension: ext}
	}

	if sig, ok := Sniff(c.Data); ok {
		return Verdict{Status: VerdictAccepted, Via: SignalSignature, Detected: sig, Extension: ext}
	}

	return Verdict{Status: VerdictRejectedType, Reason: reasonNotImage, Extension: ext}
}

func checkSize(c Candidate, maxBytes int64) (Verdict, bool) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadSize
	}
	if size := int64(len(c.Data)); size > maxBytes {
		return Verdict{
			Status: VerdictRejectedSize,
			Reason: fmt.Sprintf("file is too large: %d bytes, maximum is %s",
				size, humanize.IBytes(uint64(maxBytes))),
			Extension: Extension(c.Filename),
		}, false
	}
	return Verdict{}, true
}

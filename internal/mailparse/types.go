package mailparse

import "time"

// PartKind classifies a non-body leaf of a parsed message.
type PartKind int

const (
	// PartAttachment is a payload part: an explicit attachment, or a
	// non-text leaf without a disposition.
	PartAttachment PartKind = iota
	// PartMessage is an attached message (message/rfc822).
	PartMessage
	// PartInline is an inline non-text leaf such as an embedded image.
	PartInline
)

// String returns a short label for the kind.
func (k PartKind) String() string {
	switch k {
	case PartAttachment:
		return "attachment"
	case PartMessage:
		return "message"
	case PartInline:
		return "inline"
	default:
		return "unknown"
	}
}

// Address is one entry of an address list header.
type Address struct {
	Name    string
	Address string
	// Raw is the undecoded header text, set only when the list could not
	// be parsed into structured addresses.
	Raw string
}

// Part is a leaf of the MIME tree that is not one of the message bodies.
type Part struct {
	Kind        PartKind
	FileName    string
	ContentType string
	// Body holds the fully transfer-decoded payload. For PartMessage it is
	// the attached message in wire form.
	Body []byte
	// Nested is the parsed attached message for PartMessage parts. It is
	// nil when the attached message itself could not be parsed.
	Nested *Message
}

// Message holds the parsed content of one email message.
type Message struct {
	Subject  string
	From     []Address
	Date     time.Time
	TextBody string
	HTMLBody string
	Parts    []Part
}

package engine

import (
	"strings"

	"github.com/emiago/sipgo/sip"

	apperrors "dialpad/internal/errors"
)

// NormalizeAddress turns dialer input into a SIP URI string.
// "1234" becomes "sip:1234@<domain>", "bob@example.com" becomes
// "sip:bob@example.com" and full sip:/sips: URIs are kept as typed.
func NormalizeAddress(input, domain string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", apperrors.New(apperrors.CodeInvalidAddress, "address is empty", nil)
	}

	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "sip:"), strings.HasPrefix(lower, "sips:"):
	case strings.Contains(s, "@"):
		s = "sip:" + s
	default:
		if strings.TrimSpace(domain) == "" {
			return "", apperrors.New(apperrors.CodeInvalidAddress, "no SIP domain configured for "+s, nil)
		}
		s = "sip:" + s + "@" + strings.TrimSpace(domain)
	}

	var uri sip.Uri
	if err := sip.ParseUri(s, &uri); err != nil {
		return "", apperrors.New(apperrors.CodeInvalidAddress, "invalid SIP address "+input, err)
	}
	if uri.Host == "" {
		return "", apperrors.New(apperrors.CodeInvalidAddress, "SIP address has no host: "+input, nil)
	}
	return s, nil
}

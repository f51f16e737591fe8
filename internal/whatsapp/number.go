// Package whatsapp handles WhatsApp numbers, the sole login identifier.
package whatsapp

import (
	"net/url"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"github.com/pkg/errors"
)

// DefaultRegion is used for numbers typed without a country code.
const DefaultRegion = "IN"

var ErrInvalidNumber = errors.New("invalid whatsapp number")

// Normalize turns user input into E.164 form ("+919876543210"). Numbers
// without a leading + or international prefix are read in region.
func Normalize(raw, region string) (string, error) {
	if region == "" {
		region = DefaultRegion
	}
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", errors.Wrap(ErrInvalidNumber, "empty")
	}
	num, err := phonenumbers.Parse(s, strings.ToUpper(region))
	if err != nil {
		return "", errors.Wrapf(ErrInvalidNumber, "%q: %v", raw, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", errors.Wrapf(ErrInvalidNumber, "%q", raw)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// ChatLink returns a wa.me click-to-chat link with an optional prefilled text.
func ChatLink(number, text string) string {
	link := "https://wa.me/" + strings.TrimPrefix(number, "+")
	if text != "" {
		link += "?text=" + url.QueryEscape(text)
	}
	return link
}

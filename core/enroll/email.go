package enroll

import (
	"strings"

	"github.com/kusoma/backend/core"
)

// Gmail treats dots and +suffixes in the local part as aliases of the same
// inbox, and googlemail.com as an alias of gmail.com. Checkout emails and
// signup emails for the same buyer frequently differ in exactly these ways.
var gmailDomains = map[string]bool{
	"gmail.com":      true,
	"googlemail.com": true,
}

// NormalizeEmail canonicalizes an email address so pending purchases keyed
// by it match regardless of how the buyer typed the address. It is pure and
// total: anything that does not look like an address degrades to the
// lowercased/trimmed input rather than failing.
//
// Idempotent: NormalizeEmail(NormalizeEmail(e)) == NormalizeEmail(e).
func NormalizeEmail(raw string) string {
	email := core.CleanString(raw, true /* lower */)

	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return email
	}
	local, domain := parts[0], parts[1]

	if !gmailDomains[domain] {
		return local + "@" + domain
	}

	if i := strings.Index(local, "+"); i >= 0 {
		local = local[:i]
	}
	local = strings.ReplaceAll(local, ".", "")
	return local + "@gmail.com"
}

package detect

import "regexp"

var (
	emailRE = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	urlRE   = regexp.MustCompile(`https?://[^\s]+`)
	ipv4RE  = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)

	// SG phones: +65 optional, 8 digits starting 3/6/8/9. RE2 has no
	// lookaround, so the digit boundaries are matched explicitly and the
	// number itself captured in group 1.
	sgPhoneRE = regexp.MustCompile(`(?:^|[^0-9])((?:\+65[\s-]?)?[3698][0-9]{3}[\s-]?[0-9]{4})(?:[^0-9]|$)`)

	// Credit card: coarse 13-19 digit match, then Luhn validation.
	creditCardRE = regexp.MustCompile(`(?:^|[^0-9])([0-9](?:[ -]?[0-9]){12,18})(?:[^0-9]|$)`)

	// Singapore NRIC/FIN inside text (loose).
	nricRE = regexp.MustCompile(`(?i)\b[STFGM]\d{7}[A-Z]\b`)
)

// DefaultRules returns the built-in detection rule set.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "email", Label: "EMAIL", Pattern: emailRE, Score: 1.0},
		{Name: "url", Label: "URL", Pattern: urlRE, Score: 1.0},
		{Name: "ipv4", Label: "IP", Pattern: ipv4RE, Score: 1.0},
		{Name: "sg_phone", Label: "PHONE", Pattern: sgPhoneRE, Group: 1, Score: 1.0},
		{Name: "credit_card", Label: "CREDIT_CARD", Pattern: creditCardRE, Group: 1, Score: 1.0, Validate: luhnValid},
		{Name: "nric", Label: "NATIONAL_ID", Pattern: nricRE, Score: 1.0},
	}
}

// luhnValid reports whether the digits in s pass the Luhn checksum.
func luhnValid(s string) bool {
	var digits []int
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) < 13 {
		return false
	}

	// Double every second digit counting from the check digit.
	checksum := 0
	parity := len(digits) % 2
	for i, d := range digits {
		if i%2 == parity {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		checksum += d
	}
	return checksum%10 == 0
}

package auth

import "strings"

// maxPhoneDigits is the area code plus a nine digit mobile number.
const maxPhoneDigits = 11

// PhoneDigits keeps the digits of input, at most maxPhoneDigits of them.
func PhoneDigits(input string) string {
	var b strings.Builder
	for _, r := range input {
		if r < '0' || r > '9' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == maxPhoneDigits {
			break
		}
	}
	return b.String()
}

// FormatPhone masks input as it is typed: "(DD) DDDDD-DDDD".
func FormatPhone(input string) string {
	d := PhoneDigits(input)
	switch {
	case len(d) > 7:
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	case len(d) > 2:
		return "(" + d[:2] + ") " + d[2:]
	default:
		return d
	}
}

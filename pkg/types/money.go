package types

import "strconv"

// FormatCOP renders a whole-peso amount with Colombian thousands
// separators, e.g. 150000 -> "$150.000".
func FormatCOP(amount int64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	digits := strconv.FormatInt(amount, 10)
	var out []byte
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, d)
	}

	prefix := "$"
	if negative {
		prefix = "-$"
	}
	return prefix + string(out)
}

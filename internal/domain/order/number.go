package order

import "strconv"

// FirstNumber seeds the order sequence of a store.
const FirstNumber = "10001"

// NextNumber derives the next order number from the previous one. A missing
// or non-numeric previous number restarts the sequence at FirstNumber.
func NextNumber(prev string) string {
	n, err := strconv.ParseUint(prev, 10, 64)
	if err != nil {
		return FirstNumber
	}
	return strconv.FormatUint(n+1, 10)
}

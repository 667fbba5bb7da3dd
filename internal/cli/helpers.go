package cli

import "strconv"

func strconv64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

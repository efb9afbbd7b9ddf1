package util

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
	gstr "github.com/savsgio/gotils/strconv"
)

// Hash returns the hex xxhash of the parts. Every part is terminated with a
// zero byte so ("ab", "c") and ("a", "bc") hash differently.
func Hash(parts ...string) string {
	h := xxhash.New()
	for _, p := range parts {
		h.Write(gstr.S2B(p))
		h.Write([]byte{0})
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

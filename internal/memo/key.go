package memo

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/blake3"
)

const argSeparator = "\x1f"

// Key derives the cache key for fn called with args.
// Equivalent argument lists (whitespace, time zones, map order) map to the same key.
func Key(fn string, args ...interface{}) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, fn)
	for _, a := range args {
		parts = append(parts, normalize(a))
	}

	h := blake3.New()
	_, _ = h.Write([]byte(strings.Join(parts, argSeparator)))
	sum := make([]byte, 16)
	_, _ = h.Digest().Read(sum)

	return fn + ":" + hex.EncodeToString(sum)
}

func normalize(arg interface{}) string {
	switch v := arg.(type) {
	case nil:
		return "<nil>"
	case string:
		return strings.TrimSpace(v)
	case []string:
		out := make([]string, len(v))
		for i, s := range v {
			out[i] = strings.TrimSpace(s)
		}
		return "[" + strings.Join(out, ",") + "]"
	case time.Time:
		t := v.UTC()
		if t.Equal(t.Truncate(24 * time.Hour)) {
			return t.Format("2006-01-02")
		}
		return t.Format(time.RFC3339Nano)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case map[string]string:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = k + "=" + strings.TrimSpace(v[k])
		}
		return "{" + strings.Join(pairs, ",") + "}"
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

package render

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Abbreviate formats counts of 1000 and above as "1.5k" or "2m".
func Abbreviate(n int) string {
	if n < 1000 && n > -1000 {
		return strconv.Itoa(n)
	}
	abs := math.Abs(float64(n))
	sign := ""
	if n < 0 {
		sign = "-"
	}
	k := math.Round(abs/100) / 10
	if k < 1000 {
		return sign + trimZero(k) + "k"
	}
	m := math.Round(abs/100_000) / 10
	return sign + trimZero(m) + "m"
}

func trimZero(f float64) string {
	return strings.TrimSuffix(strconv.FormatFloat(f, 'f', 1, 64), ".0")
}

// Timestamp carries machine- and human-readable forms of a time.
type Timestamp struct {
	ISO      string
	Human    string
	Relative string
}

func newTimestamp(t, now time.Time) *Timestamp {
	if t.IsZero() {
		return nil
	}
	return &Timestamp{
		ISO:      t.UTC().Format(time.RFC3339),
		Human:    t.UTC().Format("Jan 2, 2006, 15:04 MST"),
		Relative: humanize.RelTime(t, now, "ago", "from now"),
	}
}

// Helpers for reading decoded JSON.

func str(raw map[string]any, path ...string) string {
	s, _ := lookup(raw, path...).(string)
	return s
}

func num(raw map[string]any, path ...string) int {
	f, _ := lookup(raw, path...).(float64)
	return int(f)
}

func flag(raw map[string]any, path ...string) bool {
	b, _ := lookup(raw, path...).(bool)
	return b
}

func list(raw map[string]any, path ...string) []any {
	switch v := lookup(raw, path...).(type) {
	case []any:
		return v
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out
	}
	return nil
}

func when(raw map[string]any, path ...string) time.Time {
	t, err := time.Parse(time.RFC3339, str(raw, path...))
	if err != nil {
		return time.Time{}
	}
	return t
}

func lookup(raw map[string]any, path ...string) any {
	var cur any = raw
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

// firstLine splits a commit message into its title and body.
func firstLine(s string) (string, string) {
	title, body, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(title), strings.TrimSpace(body)
}

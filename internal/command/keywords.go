package command

import (
	"sort"
	"strings"

	"golang.org/x/text/width"
)

// Keywords lists the substrings that select each command group.
// Groups are matched in field order; the first group with a hit wins.
type Keywords struct {
	Broadcast []string
	Stop      []string
	Volume    []string
	Speed     []string
	Pitch     []string
	Close     []string
}

// DefaultKeywords returns the built-in English and Chinese keyword sets.
func DefaultKeywords() Keywords {
	return Keywords{
		Broadcast: []string{"broadcast", "read aloud", "read-aloud", "播报", "朗读"},
		Stop:      []string{"stop", "pause", "停止", "暂停"},
		Volume:    []string{"volume", "音量"},
		Speed:     []string{"speed", "rate", "语速", "速度"},
		Pitch:     []string{"pitch", "tone", "音调", "语调"},
		Close:     []string{"close", "exit", "关闭", "退出"},
	}
}

// Merge overlays non-empty groups from override onto k.
func (k Keywords) Merge(override Keywords) Keywords {
	pick := func(base, next []string) []string {
		if len(next) == 0 {
			return base
		}
		return next
	}
	return Keywords{
		Broadcast: pick(k.Broadcast, override.Broadcast),
		Stop:      pick(k.Stop, override.Stop),
		Volume:    pick(k.Volume, override.Volume),
		Speed:     pick(k.Speed, override.Speed),
		Pitch:     pick(k.Pitch, override.Pitch),
		Close:     pick(k.Close, override.Close),
	}
}

// normalizeText folds full-width forms, trims, and lower-cases input.
func normalizeText(raw string) string {
	return strings.ToLower(strings.TrimSpace(width.Narrow.String(raw)))
}

// normalizeKeywords drops blanks and orders longest first so stripping
// "read aloud" happens before any shorter overlapping keyword.
func normalizeKeywords(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, kw := range raw {
		kw = normalizeText(kw)
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i]) > len(out[j])
	})
	return out
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

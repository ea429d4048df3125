package post

import (
	"fmt"
	"strconv"
	"strings"
)

// Vocabulary is the fixed set of tags a pin may carry. Creation and the
// filter UI share it.
var Vocabulary = []string{
	"food",
	"coffee",
	"drinks",
	"nightlife",
	"outdoors",
	"hiking",
	"beach",
	"viewpoint",
	"museum",
	"history",
	"shopping",
	"stay",
	"hidden gem",
	"budget",
	"splurge",
	"family",
}

var vocabularySet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(Vocabulary))
	for _, t := range Vocabulary {
		set[t] = struct{}{}
	}
	return set
}()

func ValidTag(tag string) bool {
	_, ok := vocabularySet[tag]
	return ok
}

// NormalizeTags lowercases, trims and dedups tags, keeping first-seen order.
// Unknown tags are reported as an error.
func NormalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, raw := range tags {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" {
			continue
		}
		if !ValidTag(tag) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTag, raw)
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out, nil
}

func fmtRatio(a, b int) string {
	return strconv.Itoa(a) + "/" + strconv.Itoa(b)
}

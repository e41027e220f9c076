package templates

import (
	"fmt"

	"template-resolver/internal/models"
)

// MergeUnique returns the set union of primary and secondary. Duplicates are
// dropped; the result lists items in order of first appearance, primary first.
func MergeUnique[T comparable](primary, secondary []T) []T {
	seen := make(map[T]struct{}, len(primary)+len(secondary))
	out := make([]T, 0, len(primary)+len(secondary))
	for _, list := range [][]T{primary, secondary} {
		for _, item := range list {
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

// MergeByKey merges secondary into primary keyed by keyOf. A secondary entry
// is added only when its key is absent from primary; primary entries are never
// replaced. When primary itself repeats a key, its last entry wins.
func MergeByKey[T any, K comparable](primary, secondary []T, keyOf func(T) K) []T {
	index := make(map[K]int, len(primary)+len(secondary))
	out := make([]T, 0, len(primary)+len(secondary))
	for _, item := range primary {
		k := keyOf(item)
		if i, ok := index[k]; ok {
			out[i] = item
			continue
		}
		index[k] = len(out)
		out = append(out, item)
	}
	for _, item := range secondary {
		k := keyOf(item)
		if _, ok := index[k]; ok {
			continue
		}
		index[k] = len(out)
		out = append(out, item)
	}
	return out
}

// TemplateKeyFunc chooses the identity used when reconciling template lists.
type TemplateKeyFunc func(models.NotificationTemplate) string

// ByDisplayName keys templates by display name only. Two templates that
// differ only by locale collapse into one.
func ByDisplayName(t models.NotificationTemplate) string {
	return t.DisplayName
}

// ByDisplayNameAndLocale keys templates by display name and locale.
func ByDisplayNameAndLocale(t models.NotificationTemplate) string {
	return t.DisplayName + "\x00" + t.Locale
}

// Merge key names accepted by ParseMergeKey.
const (
	MergeKeyDisplayName       = "display_name"
	MergeKeyDisplayNameLocale = "display_name_locale"
)

// ParseMergeKey maps a configured merge key name to its TemplateKeyFunc.
// An empty name selects ByDisplayName.
func ParseMergeKey(name string) (TemplateKeyFunc, error) {
	switch name {
	case "", MergeKeyDisplayName:
		return ByDisplayName, nil
	case MergeKeyDisplayNameLocale:
		return ByDisplayNameAndLocale, nil
	default:
		return nil, fmt.Errorf("unknown template merge key %q", name)
	}
}

// Package compare diffs two flattened secret sets offline: an archived
// snapshot against a freshly fetched one, or any two key/value maps.
// Keys from the first set are normalized by stripping known prefixes so
// renamed keys still line up with their counterparts.
package compare

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// displayValueLimit caps how much of a secret value reports show.
// Truncation is display-only; comparison always uses full values.
const displayValueLimit = 60

// Diff is one key present in both sets with different values. AKey is
// the original (pre-normalization) key from the first set.
type Diff struct {
	Key      string
	AKey     string
	OldValue string
	NewValue string
}

// Entry is one key present in only one of the sets.
type Entry struct {
	Key   string
	Value string
}

// Result partitions the union of both key sets into five disjoint
// buckets. Every key lands in exactly one.
type Result struct {
	Matched        []string
	ExpectedDiff   []Diff
	UnexpectedDiff []Diff
	OnlyInA        []Entry
	OnlyInB        []Entry
}

// Clean reports whether the sets agree apart from differences the
// allow-set expects.
func (r *Result) Clean() bool {
	return len(r.UnexpectedDiff) == 0 && len(r.OnlyInA) == 0 && len(r.OnlyInB) == 0
}

// Comparator holds the comparison rules: which differing keys are
// expected and which generic prefixes normalization strips.
type Comparator struct {
	allowKeys       map[string]struct{}
	genericPrefixes []string
	logger          *slog.Logger
}

// New builds a comparator from the allow-set of keys expected to differ
// and the generic prefixes stripped during normalization.
func New(allowKeys, genericPrefixes []string, logger *slog.Logger) *Comparator {
	allow := make(map[string]struct{}, len(allowKeys))
	for _, k := range allowKeys {
		allow[k] = struct{}{}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Comparator{allowKeys: allow, genericPrefixes: genericPrefixes, logger: logger}
}

// NormalizeKey strips at most one known prefix from key. The
// service-derived prefix (SERVICE_NAME_) is checked before the generic
// prefixes; the first match wins.
func (c *Comparator) NormalizeKey(key, service string) string {
	if service != "" {
		prefix := strings.ToUpper(strings.ReplaceAll(service, "-", "_")) + "_"
		if strings.HasPrefix(key, prefix) && len(key) > len(prefix) {
			return key[len(prefix):]
		}
	}

	for _, prefix := range c.genericPrefixes {
		if strings.HasPrefix(key, prefix) && len(key) > len(prefix) {
			return key[len(prefix):]
		}
	}

	return key
}

// Compare diffs a against b for one service. a's keys are normalized;
// b's keys are matched against the normalized forms as-is.
func (c *Comparator) Compare(service string, a, b map[string]string) *Result {
	type aEntry struct {
		origKey string
		value   string
	}

	normA := make(map[string]aEntry, len(a))

	for _, key := range sortedKeys(a) {
		norm := c.NormalizeKey(key, service)

		// Two original keys collapsing to one normalized name means the
		// later key shadows the earlier one in the report.
		if prev, ok := normA[norm]; ok {
			c.logger.Warn("key normalization collision, later key shadows earlier",
				slog.String("normalized", norm),
				slog.String("shadowed", prev.origKey),
				slog.String("kept", key))
		}

		normA[norm] = aEntry{origKey: key, value: a[key]}
	}

	result := &Result{}

	for _, key := range sortedKeys(b) {
		entry, ok := normA[key]
		if !ok {
			result.OnlyInB = append(result.OnlyInB, Entry{Key: key, Value: b[key]})

			continue
		}

		delete(normA, key)

		switch {
		case entry.value == b[key]:
			result.Matched = append(result.Matched, key)
		case c.expected(key, entry.origKey):
			result.ExpectedDiff = append(result.ExpectedDiff, Diff{
				Key: key, AKey: entry.origKey,
				OldValue: entry.value, NewValue: b[key],
			})
		default:
			result.UnexpectedDiff = append(result.UnexpectedDiff, Diff{
				Key: key, AKey: entry.origKey,
				OldValue: entry.value, NewValue: b[key],
			})
		}
	}

	for _, normKey := range sortedKeys(normA) {
		entry := normA[normKey]
		result.OnlyInA = append(result.OnlyInA, Entry{Key: entry.origKey, Value: entry.value})
	}

	sort.Slice(result.OnlyInA, func(i, j int) bool { return result.OnlyInA[i].Key < result.OnlyInA[j].Key })

	return result
}

// expected reports whether a differing key is in the allow-set, under
// either its normalized or its original name.
func (c *Comparator) expected(normKey, origKey string) bool {
	if _, ok := c.allowKeys[normKey]; ok {
		return true
	}

	_, ok := c.allowKeys[origKey]

	return ok
}

// TruncateValue shortens a value for display.
func TruncateValue(value string) string {
	if len(value) <= displayValueLimit {
		return value
	}

	return value[:displayValueLimit] + "..."
}

// ValueDiff renders a character-level diff between two values for
// terminal display.
func ValueDiff(oldValue, newValue string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldValue, newValue, false)

	return dmp.DiffPrettyText(dmp.DiffCleanupSemantic(diffs))
}

// WriteReport writes a human-readable summary of the comparison.
// Verbose mode also lists matched keys.
func (r *Result) WriteReport(w io.Writer, label string, verbose bool) {
	fmt.Fprintf(w, "%s: %d matched, %d expected diff, %d unexpected diff, %d only in archive, %d only in remote\n",
		label, len(r.Matched), len(r.ExpectedDiff), len(r.UnexpectedDiff), len(r.OnlyInA), len(r.OnlyInB))

	if verbose {
		for _, key := range r.Matched {
			fmt.Fprintf(w, "  = %s\n", key)
		}
	}

	for _, d := range r.ExpectedDiff {
		fmt.Fprintf(w, "  ~ %s (expected): %s -> %s\n", d.Key, TruncateValue(d.OldValue), TruncateValue(d.NewValue))
	}

	for _, d := range r.UnexpectedDiff {
		fmt.Fprintf(w, "  ! %s: %s\n", d.Key, ValueDiff(d.OldValue, d.NewValue))
	}

	for _, e := range r.OnlyInA {
		fmt.Fprintf(w, "  - %s = %s (only in archive)\n", e.Key, TruncateValue(e.Value))
	}

	for _, e := range r.OnlyInB {
		fmt.Fprintf(w, "  + %s = %s (only in remote)\n", e.Key, TruncateValue(e.Value))
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

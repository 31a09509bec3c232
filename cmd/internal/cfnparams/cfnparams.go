package cfnparams

import (
	"regexp"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

var placeholderPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Resolve interpolates {{key}} placeholders in the raw parameter values from
// the context values. Unknown keys are collected and reported in one error.
func Resolve(raw, values map[string]string) (map[string]string, error) {
	resolved := make(map[string]string, len(raw))
	missing := make(map[string]struct{})

	for param, val := range raw {
		resolved[param] = placeholderPattern.ReplaceAllStringFunc(val, func(match string) string {
			key := placeholderPattern.FindStringSubmatch(match)[1]
			v, ok := values[key]
			if !ok {
				missing[key] = struct{}{}
				return match
			}
			return v
		})
	}

	if len(missing) > 0 {
		keys := make([]string, 0, len(missing))
		for key := range missing {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		return nil, errors.Newf("unknown context keys: %s", strings.Join(keys, ", "))
	}
	return resolved, nil
}

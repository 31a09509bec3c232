// Package cdkctx reads the parts of cdk.json the CLI needs: the bootstrap
// qualifier and the plain string context values that feed pre-bootstrap
// template parameters.
package cdkctx

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

const qualifierKey = "@aws-cdk/core:bootstrapQualifier"

type CDKContext struct {
	Qualifier     string
	ContextValues map[string]string
}

// Load parses cdk.json in cdkDir. ContextValues holds every string-valued
// context entry plus "qualifier"; feature flags and other non-string entries
// are skipped.
func Load(cdkDir string) (*CDKContext, error) {
	cdkJSON := filepath.Join(cdkDir, "cdk.json")
	data, err := os.ReadFile(cdkJSON)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", cdkJSON)
	}

	var cfg struct {
		Context map[string]json.RawMessage `json:"context"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", cdkJSON)
	}

	raw, ok := cfg.Context[qualifierKey]
	if !ok {
		return nil, errors.Newf("missing %s in %s", qualifierKey, cdkJSON)
	}

	var qualifier string
	if err := json.Unmarshal(raw, &qualifier); err != nil {
		return nil, errors.Newf("%s must be a string in %s", qualifierKey, cdkJSON)
	}

	values := map[string]string{"qualifier": qualifier}
	for key, entry := range cfg.Context {
		if key == qualifierKey {
			continue
		}
		var s string
		if err := json.Unmarshal(entry, &s); err != nil {
			continue
		}
		values[key] = s
	}

	return &CDKContext{Qualifier: qualifier, ContextValues: values}, nil
}

package clcdkutil

import (
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"
)

// LogicalID builds the construct identifier for a resource:
// "{Environment}{LogicalPrefix}{Label}" in CamelCase. CloudFormation logical
// ids and export names derive from it, so it must stay stable across synths.
func LogicalID(conf Config, label string) string {
	return fmt.Sprintf("%s%s%s", conf.Environment, conf.LogicalPrefix, strcase.ToCamel(label))
}

// PhysicalName builds the physical resource name:
// "{environment}-{resourceprefix}-{label}" in kebab-case, all lowercase.
// It fits the naming rules of every AWS service the platform provisions,
// S3 buckets included.
func PhysicalName(conf Config, label string) string {
	return fmt.Sprintf("%s-%s-%s",
		strings.ToLower(string(conf.Environment)), conf.ResourcePrefix, strcase.ToKebab(label))
}

// SecretsPrefixARN returns the ARN pattern covering every secret under the
// platform's logical prefix, for scoping pipeline build roles. Region and
// account are passed in so stacks can use their own pseudo references.
func SecretsPrefixARN(conf Config, region, account string) string {
	return fmt.Sprintf("arn:aws:secretsmanager:%s:%s:secret:/%s/*", region, account, conf.LogicalPrefix)
}

package cfnvalidate

import (
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// PreBootstrapTemplate checks that the file is a CloudFormation template
// worth handing to the AWS CLI: parseable YAML with at least one resource.
func PreBootstrapTemplate(templatePath string) error {
	data, err := os.ReadFile(templatePath)
	if err != nil {
		return errors.Wrapf(err, "reading template %s", templatePath)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, "parsing template YAML")
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return errors.New("invalid YAML document")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return errors.New("template root is not a mapping")
	}

	resources := lookupKey(root, "Resources")
	if resources == nil {
		return errors.New("template has no Resources section")
	}
	if resources.Kind != yaml.MappingNode || len(resources.Content) == 0 {
		return errors.New("template declares no resources")
	}

	return nil
}

func lookupKey(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i < len(node.Content)-1; i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// Package knowledge loads assistant knowledge bases from YAML files.
// Mapping order in the file is preserved because it decides which key
// matches first.
package knowledge

import (
	"fmt"
	"os"

	"github.com/alchemorsel/kitchen/internal/domain/assistant"
	"gopkg.in/yaml.v3"
)

// LoadFile reads and parses a knowledge base file
func LoadFile(path string) (*assistant.KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge file: %w", err)
	}

	kb, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return kb, nil
}

// Parse builds a knowledge base from a YAML document of the form
//
//	issues:
//	  sauce too thick:
//	    - Whisk in warm stock.
//	techniques:
//	  blanch: Boil briefly, then shock in ice water.
//	substitutions:
//	  egg: Use a flax egg.
//
// Values are a string or a list of strings. Unknown top-level keys are
// rejected.
func Parse(data []byte) (*assistant.KnowledgeBase, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid knowledge yaml: %w", err)
	}

	sections := map[assistant.Section][]assistant.Entry{}

	// an empty document yields an empty knowledge base
	if len(doc.Content) == 0 {
		return assistant.NewKnowledgeBase(nil, nil, nil)
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: knowledge document must be a mapping", root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]

		section := assistant.Section(keyNode.Value)
		switch section {
		case assistant.SectionIssues, assistant.SectionTechniques, assistant.SectionSubstitutions:
		default:
			return nil, fmt.Errorf("line %d: unknown section %q", keyNode.Line, keyNode.Value)
		}

		entries, err := parseSection(valueNode)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", section, err)
		}
		sections[section] = append(sections[section], entries...)
	}

	return assistant.NewKnowledgeBase(
		sections[assistant.SectionIssues],
		sections[assistant.SectionTechniques],
		sections[assistant.SectionSubstitutions],
	)
}

func parseSection(node *yaml.Node) ([]assistant.Entry, error) {
	// "issues:" with nothing under it
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: section must be a mapping", node.Line)
	}

	entries := make([]assistant.Entry, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]

		sentences, err := parseSentences(valueNode)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", keyNode.Value, err)
		}
		entries = append(entries, assistant.Entry{Key: keyNode.Value, Sentences: sentences})
	}
	return entries, nil
}

func parseSentences(node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return []string{node.Value}, nil
	case yaml.SequenceNode:
		sentences := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: sentence must be a string", item.Line)
			}
			sentences = append(sentences, item.Value)
		}
		return sentences, nil
	default:
		return nil, fmt.Errorf("line %d: value must be a string or a list of strings", node.Line)
	}
}

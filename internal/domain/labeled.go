package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// LabelPrefix starts every key of the labelled result mapping.
const LabelPrefix = "item-"

// Label returns the 1-based sequential label for position i (0-based).
func Label(i int) string {
	return LabelPrefix + strconv.Itoa(i+1)
}

// LabeledItems renders as an ordered mapping "item-1" ... "item-N". Keys keep
// slice order in both JSON and YAML output.
type LabeledItems []NewsItem

// MarshalJSON writes the mapping with keys in sequence.
func (l LabeledItems) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, item := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(Label(i))
		if err != nil {
			return nil, err
		}
		val, err := marshalUnescaped(item.wire())
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a labelled mapping back in label order. Keys that are not
// sequential labels are rejected.
func (l *LabeledItems) UnmarshalJSON(data []byte) error {
	var raw map[string]NewsItem
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	items := make(LabeledItems, len(raw))
	for i := range items {
		item, ok := raw[Label(i)]
		if !ok {
			return fmt.Errorf("labelled items: missing key %q", Label(i))
		}
		items[i] = item
	}
	*l = items
	return nil
}

// MarshalYAML builds an ordered mapping node.
func (l LabeledItems) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i, item := range l {
		var val yaml.Node
		if err := val.Encode(item.wire()); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: Label(i)},
			&val,
		)
	}
	return node, nil
}

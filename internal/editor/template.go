package editor

import (
	"fmt"
	"os"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"configdesk/internal/tree"
)

// defaultTemplate is the shape of a new collection entry.
const defaultTemplate = `{
  "enabled": true,
  "buy_percentage": -3,
  "sell_percentage": 3,
  "volatility_window": 10,
  "trend_window": 26,
  "macd_short_window": 12,
  "macd_long_window": 26,
  "macd_signal_window": 9,
  "rsi_period": 14,
  "min_order_sizes": {"buy": 1, "sell": 0.001},
  "precision": {"price": 2, "amount": 6}
}`

// DefaultTemplate returns a fresh copy of the built-in entry template.
func DefaultTemplate() *tree.Mapping {
	t, err := tree.Decode([]byte(defaultTemplate))
	if err != nil {
		panic(err)
	}
	return t.Root()
}

// LoadTemplate returns the built-in template overlaid with the JSON merge
// patch (RFC 7386) stored at path. An empty path returns the built-in
// template.
func LoadTemplate(path string) (*tree.Mapping, error) {
	if path == "" {
		return DefaultTemplate(), nil
	}
	patch, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template patch: %w", err)
	}
	return MergeTemplate(patch)
}

// MergeTemplate overlays patch on the built-in template. Fields keep the
// order of the built-in template; fields added by the patch follow in name
// order.
func MergeTemplate(patch []byte) (*tree.Mapping, error) {
	merged, err := jsonpatch.MergePatch([]byte(defaultTemplate), patch)
	if err != nil {
		return nil, fmt.Errorf("merge template patch: %w", err)
	}
	t, err := tree.Decode(merged)
	if err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}
	return reorder(t.Root(), DefaultTemplate()), nil
}

func reorder(m, ref *tree.Mapping) *tree.Mapping {
	out := tree.NewMapping()
	for _, name := range ref.Keys() {
		n, ok := m.Lookup(name)
		if !ok {
			continue
		}
		sub, isMap := n.(*tree.Mapping)
		refNode, _ := ref.Lookup(name)
		refSub, refIsMap := refNode.(*tree.Mapping)
		if isMap && refIsMap {
			n = reorder(sub, refSub)
		}
		out.Put(name, n)
	}
	for _, e := range m.Entries() {
		if _, ok := out.Lookup(e.Name); !ok {
			out.Put(e.Name, e.Node)
		}
	}
	return out
}

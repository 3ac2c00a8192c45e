package risk

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed trees.yaml
var treesYAML []byte

// nodeSpec is one row of a tree definition. Internal nodes carry a feature,
// a threshold and two child indexes; terminals carry only a leaf score.
// Routing: value < threshold goes left, otherwise right.
type nodeSpec struct {
	Feature   string   `yaml:"feature,omitempty"`
	Threshold float64  `yaml:"threshold,omitempty"`
	Left      int      `yaml:"left,omitempty"`
	Right     int      `yaml:"right,omitempty"`
	Leaf      *float64 `yaml:"leaf,omitempty"`
}

type treeSpec struct {
	Name   string     `yaml:"name"`
	Weight float64    `yaml:"weight"`
	Nodes  []nodeSpec `yaml:"nodes"`
}

type treesDoc struct {
	Trees []treeSpec `yaml:"trees"`
}

type node struct {
	terminal  bool
	leaf      float64
	feature   int
	threshold float64
	left      int
	right     int
}

// tree is a compiled decision tree: one flat node array evaluated from
// index 0. Child indexes always exceed the parent's, so evaluation
// terminates for every input.
type tree struct {
	name   string
	weight float64
	nodes  []node
}

func (t tree) eval(v [featureCount]float64) float64 {
	i := 0
	for {
		n := t.nodes[i]
		if n.terminal {
			return n.leaf
		}
		if v[n.feature] < n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

func compileTree(spec treeSpec) (tree, error) {
	if len(spec.Nodes) == 0 {
		return tree{}, fmt.Errorf("tree %s: no nodes", spec.Name)
	}
	t := tree{name: spec.Name, weight: spec.Weight, nodes: make([]node, len(spec.Nodes))}
	for i, ns := range spec.Nodes {
		if ns.Leaf != nil {
			if *ns.Leaf < 0 || *ns.Leaf > 1 {
				return tree{}, fmt.Errorf("tree %s node %d: leaf %v outside [0,1]", spec.Name, i, *ns.Leaf)
			}
			t.nodes[i] = node{terminal: true, leaf: *ns.Leaf}
			continue
		}
		fi, ok := featureIndex[ns.Feature]
		if !ok {
			return tree{}, fmt.Errorf("tree %s node %d: unknown feature %q", spec.Name, i, ns.Feature)
		}
		if ns.Left <= i || ns.Left >= len(spec.Nodes) ||
			ns.Right <= i || ns.Right >= len(spec.Nodes) {
			return tree{}, fmt.Errorf("tree %s node %d: child index out of order", spec.Name, i)
		}
		t.nodes[i] = node{feature: fi, threshold: ns.Threshold, left: ns.Left, right: ns.Right}
	}
	return t, nil
}

func loadTrees(raw []byte) ([]tree, error) {
	var doc treesDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse tree definitions: %w", err)
	}
	if len(doc.Trees) != ensembleSize {
		return nil, fmt.Errorf("tree definitions: want %d trees, got %d", ensembleSize, len(doc.Trees))
	}
	var weightSum float64
	out := make([]tree, 0, len(doc.Trees))
	for _, spec := range doc.Trees {
		t, err := compileTree(spec)
		if err != nil {
			return nil, err
		}
		weightSum += t.weight
		out = append(out, t)
	}
	if diff := weightSum - 1.0; diff > 1e-9 || diff < -1e-9 {
		return nil, fmt.Errorf("tree definitions: weights sum to %v, want 1", weightSum)
	}
	return out, nil
}

package risk

import (
	"strings"
	"testing"
)

func TestLoadEmbeddedTrees(t *testing.T) {
	t.Parallel()

	trees, err := loadTrees(treesYAML)
	if err != nil {
		t.Fatalf("embedded definitions must load: %v", err)
	}
	if len(trees) != ensembleSize {
		t.Fatalf("want %d trees, got %d", ensembleSize, len(trees))
	}
	wantWeights := []float64{0.25, 0.20, 0.15, 0.15, 0.25}
	for i, tr := range trees {
		if tr.weight != wantWeights[i] {
			t.Fatalf("tree %s: weight %v, want %v", tr.name, tr.weight, wantWeights[i])
		}
	}
}

func TestLoadTreesRejectsBadDefinitions(t *testing.T) {
	t.Parallel()

	pad := `
  - name: t2
    weight: 0.2
    nodes: [{leaf: 0.1}]
  - name: t3
    weight: 0.2
    nodes: [{leaf: 0.1}]
  - name: t4
    weight: 0.2
    nodes: [{leaf: 0.1}]
  - name: t5
    weight: 0.2
    nodes: [{leaf: 0.1}]
`
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			"unknown feature",
			"trees:\n  - name: t1\n    weight: 0.2\n    nodes:\n      - {feature: shoe_size, threshold: 40, left: 1, right: 2}\n      - {leaf: 0.1}\n      - {leaf: 0.2}\n" + pad,
			"unknown feature",
		},
		{
			"backward child index",
			"trees:\n  - name: t1\n    weight: 0.2\n    nodes:\n      - {feature: age, threshold: 30, left: 0, right: 1}\n      - {leaf: 0.1}\n" + pad,
			"child index",
		},
		{
			"leaf out of range",
			"trees:\n  - name: t1\n    weight: 0.2\n    nodes: [{leaf: 1.5}]\n" + pad,
			"outside [0,1]",
		},
		{
			"wrong tree count",
			"trees:\n  - name: only\n    weight: 1.0\n    nodes: [{leaf: 0.1}]\n",
			"want 5 trees",
		},
		{
			"weights off",
			"trees:\n  - name: t1\n    weight: 0.5\n    nodes: [{leaf: 0.1}]\n" + pad,
			"weights sum",
		},
	}
	for _, c := range cases {
		_, err := loadTrees([]byte(c.yaml))
		if err == nil {
			t.Fatalf("%s: want error", c.name)
		}
		if !strings.Contains(err.Error(), c.want) {
			t.Fatalf("%s: error %q does not mention %q", c.name, err, c.want)
		}
	}
}

func TestTreeEvalRouting(t *testing.T) {
	t.Parallel()

	half := 0.5
	one := 1.0
	tr, err := compileTree(treeSpec{
		Name:   "routing",
		Weight: 1,
		Nodes: []nodeSpec{
			{Feature: featAge, Threshold: 30, Left: 1, Right: 2},
			{Leaf: &half},
			{Leaf: &one},
		},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	var v [featureCount]float64
	v[featureIndex[featAge]] = 29.9
	if got := tr.eval(v); got != 0.5 {
		t.Fatalf("below threshold must go left: got %v", got)
	}
	// The threshold itself routes right.
	v[featureIndex[featAge]] = 30
	if got := tr.eval(v); got != 1.0 {
		t.Fatalf("at threshold must go right: got %v", got)
	}
}

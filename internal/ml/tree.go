package ml

import "sort"

// TreeNode is one node of a fitted regression tree. Leaves carry the additive
// score contribution (already shrunk by the learning rate); internal nodes
// route on Feature < Threshold.
type TreeNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Value     float64   `json:"value"`
	Leaf      bool      `json:"leaf"`
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
}

// Predict returns the additive contribution of the tree for one vector.
func (n *TreeNode) Predict(x []float64) float64 {
	node := n
	for !node.Leaf {
		if x[node.Feature] < node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

// treeBuilder grows a single regression tree from first and second order
// gradients, in either depth-wise or leaf-wise order.
type treeBuilder struct {
	X              [][]float64
	grad, hess     []float64
	lambda         float64
	minChildWeight float64
	maxDepth       int
	maxLeaves      int
	learningRate   float64
}

type split struct {
	feature   int
	threshold float64
	gain      float64
	leftIdx   []int
	rightIdx  []int
}

// leafValue is the Newton step for a leaf: -G / (H + lambda), shrunk by the
// learning rate.
func (b *treeBuilder) leafValue(idx []int) float64 {
	var g, h float64
	for _, i := range idx {
		g += b.grad[i]
		h += b.hess[i]
	}
	return -g / (h + b.lambda) * b.learningRate
}

// bestSplit scans every feature for the threshold maximizing the gain
//
//	1/2 * (GL^2/(HL+l) + GR^2/(HR+l) - G^2/(H+l))
//
// and returns nil when no split improves on keeping the leaf.
func (b *treeBuilder) bestSplit(idx []int) *split {
	if len(idx) < 2 {
		return nil
	}
	var gTotal, hTotal float64
	for _, i := range idx {
		gTotal += b.grad[i]
		hTotal += b.hess[i]
	}
	parentScore := gTotal * gTotal / (hTotal + b.lambda)

	nFeatures := len(b.X[idx[0]])
	var best *split

	order := make([]int, len(idx))
	for f := 0; f < nFeatures; f++ {
		copy(order, idx)
		sort.Slice(order, func(a, c int) bool { return b.X[order[a]][f] < b.X[order[c]][f] })

		var gLeft, hLeft float64
		for k := 0; k < len(order)-1; k++ {
			i := order[k]
			gLeft += b.grad[i]
			hLeft += b.hess[i]

			// Only split between distinct feature values.
			cur, next := b.X[i][f], b.X[order[k+1]][f]
			if cur == next {
				continue
			}
			gRight := gTotal - gLeft
			hRight := hTotal - hLeft
			if hLeft < b.minChildWeight || hRight < b.minChildWeight {
				continue
			}
			gain := 0.5 * (gLeft*gLeft/(hLeft+b.lambda) + gRight*gRight/(hRight+b.lambda) - parentScore)
			if gain <= 0 {
				continue
			}
			if best == nil || gain > best.gain {
				left := make([]int, k+1)
				copy(left, order[:k+1])
				right := make([]int, len(order)-k-1)
				copy(right, order[k+1:])
				best = &split{
					feature:   f,
					threshold: (cur + next) / 2,
					gain:      gain,
					leftIdx:   left,
					rightIdx:  right,
				}
			}
		}
	}
	return best
}

// buildDepthwise grows the tree level by level to the depth bound, the
// XGBoost-family strategy.
func (b *treeBuilder) buildDepthwise(idx []int, depth int) *TreeNode {
	if depth >= b.maxDepth {
		return &TreeNode{Leaf: true, Value: b.leafValue(idx)}
	}
	sp := b.bestSplit(idx)
	if sp == nil {
		return &TreeNode{Leaf: true, Value: b.leafValue(idx)}
	}
	return &TreeNode{
		Feature:   sp.feature,
		Threshold: sp.threshold,
		Left:      b.buildDepthwise(sp.leftIdx, depth+1),
		Right:     b.buildDepthwise(sp.rightIdx, depth+1),
	}
}

// buildLeafwise grows the tree best-first, always expanding the leaf with the
// highest split gain until the leaf budget is spent, the LightGBM-family
// strategy.
func (b *treeBuilder) buildLeafwise(idx []int) *TreeNode {
	root := &TreeNode{Leaf: true, Value: b.leafValue(idx)}

	type candidate struct {
		node *TreeNode
		idx  []int
		sp   *split
	}
	var frontier []candidate
	if sp := b.bestSplit(idx); sp != nil {
		frontier = append(frontier, candidate{node: root, idx: idx, sp: sp})
	}
	leaves := 1

	for len(frontier) > 0 && leaves < b.maxLeaves {
		bestAt := 0
		for i := 1; i < len(frontier); i++ {
			if frontier[i].sp.gain > frontier[bestAt].sp.gain {
				bestAt = i
			}
		}
		c := frontier[bestAt]
		frontier = append(frontier[:bestAt], frontier[bestAt+1:]...)

		c.node.Leaf = false
		c.node.Value = 0
		c.node.Feature = c.sp.feature
		c.node.Threshold = c.sp.threshold
		c.node.Left = &TreeNode{Leaf: true, Value: b.leafValue(c.sp.leftIdx)}
		c.node.Right = &TreeNode{Leaf: true, Value: b.leafValue(c.sp.rightIdx)}
		leaves++

		if sp := b.bestSplit(c.sp.leftIdx); sp != nil {
			frontier = append(frontier, candidate{node: c.node.Left, idx: c.sp.leftIdx, sp: sp})
		}
		if sp := b.bestSplit(c.sp.rightIdx); sp != nil {
			frontier = append(frontier, candidate{node: c.node.Right, idx: c.sp.rightIdx, sp: sp})
		}
	}
	return root
}

package ml

import (
	"errors"
	"fmt"
	"math"
)

// Growth selects the tree-growth strategy of the boosting back-end.
type Growth string

const (
	// GrowthDepthwise grows each tree level by level to a depth bound.
	GrowthDepthwise Growth = "depthwise"
	// GrowthLeafwise grows each tree best-first under a leaf budget.
	GrowthLeafwise Growth = "leafwise"
)

// Params are the boosting hyperparameters. Zero values are replaced by the
// defaults in NewClassifier.
type Params struct {
	NEstimators    int     `json:"n_estimators"`
	LearningRate   float64 `json:"learning_rate"`
	MaxDepth       int     `json:"max_depth"`
	MaxLeaves      int     `json:"max_leaves"`
	Lambda         float64 `json:"lambda"`
	MinChildWeight float64 `json:"min_child_weight"`
	Patience       int     `json:"patience"`
}

// GradientBoosting is a gradient-boosted tree classifier for binary labels,
// trained with logistic loss and Newton leaf updates. The growth strategy is
// the only difference between the two supported back-ends; the fitted model
// behaves identically through the Classifier contract.
type GradientBoosting struct {
	Growth      Growth      `json:"growth"`
	Params      Params      `json:"params"`
	Trees       []*TreeNode `json:"trees"`
	BaseScore   float64     `json:"base_score"`
	NumClasses  int         `json:"num_classes"`
	SingleClass int         `json:"single_class,omitempty"`
	BestRound   int         `json:"best_round"`
}

// ErrEmptyTrainingSet is returned when Fit receives no rows.
var ErrEmptyTrainingSet = errors.New("empty training set")

// Fit trains the ensemble on X/y. When evalX is non-empty, validation logloss
// is tracked each round and training stops once it has not improved for
// Params.Patience rounds; the ensemble is truncated back to the best round.
func (m *GradientBoosting) Fit(X [][]float64, y []int, evalX [][]float64, evalY []int) error {
	if len(X) == 0 {
		return ErrEmptyTrainingSet
	}
	if len(X) != len(y) {
		return fmt.Errorf("feature/label length mismatch: %d vs %d", len(X), len(y))
	}

	pos := 0
	for _, label := range y {
		if label == 1 {
			pos++
		}
	}

	// Degenerate single-class data yields no decision boundary; record the
	// class and let PredictProba report a one-element distribution.
	if pos == 0 || pos == len(y) {
		m.NumClasses = 1
		m.SingleClass = y[0]
		m.Trees = nil
		return nil
	}
	m.NumClasses = 2

	rate := float64(pos) / float64(len(y))
	m.BaseScore = math.Log(rate / (1 - rate))

	raw := make([]float64, len(X))
	for i := range raw {
		raw[i] = m.BaseScore
	}
	evalRaw := make([]float64, len(evalX))
	for i := range evalRaw {
		evalRaw[i] = m.BaseScore
	}

	grad := make([]float64, len(X))
	hess := make([]float64, len(X))
	allIdx := make([]int, len(X))
	for i := range allIdx {
		allIdx[i] = i
	}

	bestLoss := math.Inf(1)
	sinceBest := 0
	m.BestRound = -1
	m.Trees = m.Trees[:0]

	for round := 0; round < m.Params.NEstimators; round++ {
		for i := range X {
			p := sigmoid(raw[i])
			grad[i] = p - float64(y[i])
			hess[i] = p * (1 - p)
		}

		builder := &treeBuilder{
			X:              X,
			grad:           grad,
			hess:           hess,
			lambda:         m.Params.Lambda,
			minChildWeight: m.Params.MinChildWeight,
			maxDepth:       m.Params.MaxDepth,
			maxLeaves:      m.Params.MaxLeaves,
			learningRate:   m.Params.LearningRate,
		}

		var tree *TreeNode
		if m.Growth == GrowthLeafwise {
			tree = builder.buildLeafwise(allIdx)
		} else {
			tree = builder.buildDepthwise(allIdx, 0)
		}
		m.Trees = append(m.Trees, tree)

		for i, x := range X {
			raw[i] += tree.Predict(x)
		}

		if len(evalX) == 0 {
			m.BestRound = round
			continue
		}
		for i, x := range evalX {
			evalRaw[i] += tree.Predict(x)
		}
		loss := logLoss(evalRaw, evalY)
		if loss < bestLoss-1e-9 {
			bestLoss = loss
			m.BestRound = round
			sinceBest = 0
		} else {
			sinceBest++
			if sinceBest >= m.Params.Patience {
				break
			}
		}
	}

	// Keep only the rounds up to the best validation loss.
	if m.BestRound >= 0 && m.BestRound+1 < len(m.Trees) {
		m.Trees = m.Trees[:m.BestRound+1]
	}
	return nil
}

// PredictProba returns (P(class 0), P(class 1)) for one scaled vector. A
// single-class model returns a one-element distribution, which the scoring
// layer maps to its neutral default.
func (m *GradientBoosting) PredictProba(x []float64) []float64 {
	if m.NumClasses < 2 {
		return []float64{1}
	}
	raw := m.BaseScore
	for _, tree := range m.Trees {
		raw += tree.Predict(x)
	}
	p := sigmoid(raw)
	return []float64{1 - p, p}
}

// Classes reports the number of classes observed at fit time.
func (m *GradientBoosting) Classes() int { return m.NumClasses }

// Score returns accuracy on a labeled set.
func (m *GradientBoosting) Score(X [][]float64, y []int) float64 {
	if len(X) == 0 {
		return 0
	}
	correct := 0
	for i, x := range X {
		proba := m.PredictProba(x)
		pred := m.SingleClass
		if len(proba) > 1 && proba[1] >= 0.5 {
			pred = 1
		} else if len(proba) > 1 {
			pred = 0
		}
		if pred == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(X))
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func logLoss(raw []float64, y []int) float64 {
	const eps = 1e-15
	var sum float64
	for i, z := range raw {
		p := sigmoid(z)
		if p < eps {
			p = eps
		}
		if p > 1-eps {
			p = 1 - eps
		}
		if y[i] == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(len(raw))
}

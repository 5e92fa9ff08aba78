package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labeledSet(n int) (X [][]float64, y []int) {
	for i := 0; i < n; i++ {
		label := 0
		if i%4 == 0 {
			label = 1
		}
		X = append(X, []float64{float64(i)})
		y = append(y, label)
	}
	return X, y
}

func TestStratifiedSplit(t *testing.T) {
	t.Run("preserves class proportions", func(t *testing.T) {
		X, y := labeledSet(100) // 25 positive, 75 negative

		trainX, testX, trainY, testY := StratifiedSplit(X, y, 0.2, 42)

		assert.Len(t, trainX, 80)
		assert.Len(t, testX, 20)

		count := func(labels []int) int {
			pos := 0
			for _, l := range labels {
				if l == 1 {
					pos++
				}
			}
			return pos
		}
		assert.Equal(t, 20, count(trainY))
		assert.Equal(t, 5, count(testY))
	})

	t.Run("keeps rows aligned with labels", func(t *testing.T) {
		X, y := labeledSet(100)

		trainX, testX, trainY, testY := StratifiedSplit(X, y, 0.2, 42)

		check := func(gx [][]float64, gy []int) {
			for i, row := range gx {
				idx := int(row[0])
				expected := 0
				if idx%4 == 0 {
					expected = 1
				}
				require.Equal(t, expected, gy[i])
			}
		}
		check(trainX, trainY)
		check(testX, testY)
	})

	t.Run("is reproducible for a fixed seed", func(t *testing.T) {
		X, y := labeledSet(60)

		aTrainX, aTestX, _, _ := StratifiedSplit(X, y, 0.25, 42)
		bTrainX, bTestX, _, _ := StratifiedSplit(X, y, 0.25, 42)

		assert.Equal(t, aTrainX, bTrainX)
		assert.Equal(t, aTestX, bTestX)
	})

	t.Run("different seeds shuffle differently", func(t *testing.T) {
		X, y := labeledSet(60)

		aTrainX, _, _, _ := StratifiedSplit(X, y, 0.25, 1)
		bTrainX, _, _, _ := StratifiedSplit(X, y, 0.25, 2)

		assert.NotEqual(t, aTrainX, bTrainX)
	})

	t.Run("never empties a multi-row class", func(t *testing.T) {
		X := [][]float64{{1}, {2}, {3}, {4}}
		y := []int{1, 1, 0, 0}

		trainX, _, trainY, _ := StratifiedSplit(X, y, 0.9, 42)

		pos, neg := 0, 0
		for _, l := range trainY {
			if l == 1 {
				pos++
			} else {
				neg++
			}
		}
		require.NotEmpty(t, trainX)
		assert.GreaterOrEqual(t, pos, 1)
		assert.GreaterOrEqual(t, neg, 1)
	})
}

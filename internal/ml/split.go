package ml

import "math/rand"

// StratifiedSplit partitions a labeled set into train and test portions,
// preserving the class proportions of y in both. The seed fixes the shuffle
// so a training run is reproducible end to end.
func StratifiedSplit(X [][]float64, y []int, testFraction float64, seed int64) (trainX, testX [][]float64, trainY, testY []int) {
	rng := rand.New(rand.NewSource(seed))

	byClass := map[int][]int{}
	classes := []int{}
	for i, label := range y {
		if _, ok := byClass[label]; !ok {
			classes = append(classes, label)
		}
		byClass[label] = append(byClass[label], i)
	}

	var trainIdx, testIdx []int
	for _, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		nTest := int(float64(len(idx))*testFraction + 0.5)
		if nTest >= len(idx) && len(idx) > 1 {
			nTest = len(idx) - 1
		}
		testIdx = append(testIdx, idx[:nTest]...)
		trainIdx = append(trainIdx, idx[nTest:]...)
	}

	rng.Shuffle(len(trainIdx), func(i, j int) { trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i] })
	rng.Shuffle(len(testIdx), func(i, j int) { testIdx[i], testIdx[j] = testIdx[j], testIdx[i] })

	gather := func(idx []int) ([][]float64, []int) {
		gx := make([][]float64, len(idx))
		gy := make([]int, len(idx))
		for i, k := range idx {
			gx[i] = X[k]
			gy[i] = y[k]
		}
		return gx, gy
	}
	trainX, trainY = gather(trainIdx)
	testX, testY = gather(testIdx)
	return trainX, testX, trainY, testY
}

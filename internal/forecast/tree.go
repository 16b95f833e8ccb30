package forecast

import "math/rand"

// regressionTree is a CART-style tree splitting on variance reduction.
type regressionTree struct {
	maxDepth        int
	minSamplesSplit int
	root            *treeNode
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

func (t *regressionTree) fit(rows [][]float64, targets []float64) {
	idx := make([]int, len(targets))
	for i := range idx {
		idx[i] = i
	}
	t.root = t.build(rows, targets, idx, 0)
}

func (t *regressionTree) build(rows [][]float64, targets []float64, idx []int, depth int) *treeNode {
	if len(idx) == 0 {
		return &treeNode{leaf: true}
	}

	node := &treeNode{leaf: true, value: meanAt(targets, idx)}
	if depth >= t.maxDepth || len(idx) < t.minSamplesSplit {
		return node
	}

	feature, threshold, ok := bestSplit(rows, targets, idx)
	if !ok {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if rows[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return node
	}

	node.leaf = false
	node.feature = feature
	node.threshold = threshold
	node.left = t.build(rows, targets, left, depth+1)
	node.right = t.build(rows, targets, right, depth+1)
	return node
}

func (t *regressionTree) predict(row []float64) float64 {
	node := t.root
	for node != nil && !node.leaf {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	if node == nil {
		return 0
	}
	return node.value
}

// bestSplit scans every feature and candidate threshold for the split with
// the lowest total squared error across the two children.
func bestSplit(rows [][]float64, targets []float64, idx []int) (feature int, threshold float64, ok bool) {
	bestSSE := sseAt(targets, idx)
	if bestSSE == 0 {
		return 0, 0, false
	}

	nFeatures := len(rows[idx[0]])
	for f := 0; f < nFeatures; f++ {
		thresholds := candidateThresholds(rows, idx, f)
		for _, th := range thresholds {
			var left, right []int
			for _, i := range idx {
				if rows[i][f] <= th {
					left = append(left, i)
				} else {
					right = append(right, i)
				}
			}
			if len(left) == 0 || len(right) == 0 {
				continue
			}
			sse := sseAt(targets, left) + sseAt(targets, right)
			if sse < bestSSE {
				bestSSE = sse
				feature = f
				threshold = th
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

// candidateThresholds returns midpoints between consecutive distinct feature
// values.
func candidateThresholds(rows [][]float64, idx []int, feature int) []float64 {
	seen := make(map[float64]struct{}, len(idx))
	values := make([]float64, 0, len(idx))
	for _, i := range idx {
		v := rows[i][feature]
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			values = append(values, v)
		}
	}
	if len(values) < 2 {
		return nil
	}
	insertionSort(values)

	mids := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		mids = append(mids, (values[i-1]+values[i])/2)
	}
	return mids
}

func insertionSort(v []float64) {
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && v[j] < v[j-1]; j-- {
			v[j], v[j-1] = v[j-1], v[j]
		}
	}
}

func meanAt(targets []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		sum += targets[i]
	}
	return sum / float64(len(idx))
}

func sseAt(targets []float64, idx []int) float64 {
	m := meanAt(targets, idx)
	var sse float64
	for _, i := range idx {
		d := targets[i] - m
		sse += d * d
	}
	return sse
}

// bootstrapSample draws n indices with replacement.
func bootstrapSample(rng *rand.Rand, n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.Intn(n)
	}
	return idx
}

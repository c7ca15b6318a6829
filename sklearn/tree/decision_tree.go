// Package tree provides a depth-limited CART decision tree over sparse
// examples.
package tree

import (
	"math"
	"sort"
	"time"

	"github.com/YuminosukeSato/tabclass/core/data"
	"github.com/YuminosukeSato/tabclass/core/model"
	"github.com/YuminosukeSato/tabclass/pkg/errors"
	"github.com/YuminosukeSato/tabclass/pkg/log"
)

// minGain is the smallest impurity decrease accepted as a split.
const minGain = 1e-12

// DecisionTreeClassifier is a CART classifier. Every feature of the global
// index set is a candidate; absent features read as 0. Thresholds sit at
// midpoints between consecutive distinct values and samples with x <= t go
// left. Leaves predict the majority label, with ties going to the smallest
// label, and report the majority fraction as confidence.
type DecisionTreeClassifier struct {
	state *model.StateManager

	// Hyperparameters
	criterion       string // "gini" or "entropy"
	maxDepth        int    // <= 0 means unlimited
	minSamplesSplit int
	minSamplesLeaf  int

	// Model
	root        *node
	classes     []float64
	features    []int
	importances []float64
}

type node struct {
	leaf      bool
	feature   int
	threshold float64
	left      *node
	right     *node

	n      int
	counts []int
	label  int // index into classes
}

// Option is a functional option for DecisionTreeClassifier
type Option func(*DecisionTreeClassifier)

// NewDecisionTreeClassifier creates an untrained tree with gini impurity and
// no depth limit.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		state:           model.NewStateManager(),
		criterion:       "gini",
		maxDepth:        0,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
	}
	for _, opt := range opts {
		opt(dt)
	}
	return dt
}

// WithCriterion selects "gini" or "entropy".
func WithCriterion(criterion string) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.criterion = criterion
	}
}

// WithMaxDepth limits the number of splits on any root-to-leaf path.
func WithMaxDepth(depth int) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.maxDepth = depth
	}
}

// WithMinSamplesSplit sets the smallest node that may be split.
func WithMinSamplesSplit(n int) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets the smallest allowed leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesLeaf = n
	}
}

func (dt *DecisionTreeClassifier) validate() error {
	if dt.criterion != "gini" && dt.criterion != "entropy" {
		return errors.NewValidationError("criterion", "must be 'gini' or 'entropy'", dt.criterion)
	}
	if dt.minSamplesSplit < 2 {
		return errors.NewValidationError("min_samples_split", "must be at least 2", dt.minSamplesSplit)
	}
	if dt.minSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be at least 1", dt.minSamplesLeaf)
	}
	return nil
}

// builder carries the training matrix while the tree grows.
type builder struct {
	dt       *DecisionTreeClassifier
	x        [][]float64 // x[j][i]: value of feature j on example i
	y        []int
	nClasses int
	gains    []float64
	impurity func(counts []int, n int) float64
}

// Train grows a new tree on ds. Prior state is discarded; on error the
// previous tree is kept.
func (dt *DecisionTreeClassifier) Train(ds *data.DataSet) error {
	if err := dt.validate(); err != nil {
		return err
	}
	features := ds.AllFeatureIndices()
	if err := model.RequireTrainable("DecisionTreeClassifier.Train", ds.Len(), len(features)); err != nil {
		return err
	}

	logger := log.GetLoggerWithName("tree").With(log.ModelNameKey, "DecisionTreeClassifier")
	logger.Debug("Training started",
		log.OperationKey, log.OperationTrain,
		log.SamplesKey, ds.Len(),
		log.FeaturesKey, len(features),
		log.MaxDepthKey, dt.maxDepth,
	)
	start := time.Now()

	classes := ds.Labels()
	classIdx := make(map[float64]int, len(classes))
	for i, c := range classes {
		classIdx[c] = i
	}

	b := &builder{
		dt:       dt,
		x:        make([][]float64, len(features)),
		y:        make([]int, ds.Len()),
		nClasses: len(classes),
		gains:    make([]float64, len(features)),
		impurity: gini,
	}
	if dt.criterion == "entropy" {
		b.impurity = entropy
	}
	for j, f := range features {
		col := make([]float64, ds.Len())
		for i, e := range ds.Data() {
			col[i] = e.Feature(f)
		}
		b.x[j] = col
	}
	idx := make([]int, ds.Len())
	for i, e := range ds.Data() {
		b.y[i] = classIdx[e.Label()]
		idx[i] = i
	}

	root := b.build(idx, 0)

	total := 0.0
	for _, g := range b.gains {
		total += g
	}
	if total > 0 {
		for j := range b.gains {
			b.gains[j] /= total
		}
	}

	_ = dt.state.WithStateMut(func() error {
		dt.root = root
		dt.classes = classes
		dt.features = features
		dt.importances = b.gains
		return nil
	})
	dt.state.SetTrained(len(features), ds.Len(), len(classes))

	logger.Debug("Training completed",
		log.OperationKey, log.OperationTrain,
		log.DurationMsKey, time.Since(start).Milliseconds(),
		"depth", depthOf(root),
	)
	return nil
}

func (b *builder) counts(idx []int) []int {
	counts := make([]int, b.nClasses)
	for _, i := range idx {
		counts[b.y[i]]++
	}
	return counts
}

func (b *builder) build(idx []int, depth int) *node {
	counts := b.counts(idx)
	n := &node{leaf: true, n: len(idx), counts: counts, label: majority(counts)}

	if counts[n.label] == len(idx) ||
		len(idx) < b.dt.minSamplesSplit ||
		(b.dt.maxDepth > 0 && depth >= b.dt.maxDepth) {
		return n
	}

	parent := b.impurity(counts, len(idx))
	bestGain, bestFeature, bestThreshold := minGain, -1, 0.0
	for j := range b.x {
		gain, threshold, ok := b.bestSplit(idx, j, parent)
		if ok && gain > bestGain {
			bestGain, bestFeature, bestThreshold = gain, j, threshold
		}
	}
	if bestFeature < 0 {
		return n
	}

	var left, right []int
	for _, i := range idx {
		if b.x[bestFeature][i] <= bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	b.gains[bestFeature] += float64(len(idx)) * bestGain

	n.leaf = false
	n.feature = bestFeature
	n.threshold = bestThreshold
	n.left = b.build(left, depth+1)
	n.right = b.build(right, depth+1)
	return n
}

// bestSplit scans the midpoints of feature j. The first threshold with the
// largest gain wins, so ties go to the smaller threshold.
func (b *builder) bestSplit(idx []int, j int, parent float64) (float64, float64, bool) {
	col := b.x[j]
	order := append([]int(nil), idx...)
	sort.SliceStable(order, func(a, c int) bool { return col[order[a]] < col[order[c]] })

	leftCounts := make([]int, b.nClasses)
	rightCounts := b.counts(idx)
	total := len(order)

	bestGain, bestThreshold, found := 0.0, 0.0, false
	for s := 1; s < total; s++ {
		moved := order[s-1]
		leftCounts[b.y[moved]]++
		rightCounts[b.y[moved]]--

		lo, hi := col[order[s-1]], col[order[s]]
		if lo == hi || s < b.dt.minSamplesLeaf || total-s < b.dt.minSamplesLeaf {
			continue
		}
		weighted := (float64(s)*b.impurity(leftCounts, s) +
			float64(total-s)*b.impurity(rightCounts, total-s)) / float64(total)
		if gain := parent - weighted; !found || gain > bestGain {
			bestGain, bestThreshold, found = gain, (lo+hi)/2, true
		}
	}
	return bestGain, bestThreshold, found
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		sum += p * p
	}
	return 1 - sum
}

func entropy(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	h := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(n)
		h -= p * math.Log2(p)
	}
	return h
}

// majority returns the index of the largest count; ties go to the smallest
// index, which is the smallest label.
func majority(counts []int) int {
	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	return best
}

func (dt *DecisionTreeClassifier) leaf(e *data.Example) *node {
	n := dt.root
	for !n.leaf {
		if e.Feature(dt.features[n.feature]) <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n
}

// Classify returns the majority label of the leaf e falls into.
func (dt *DecisionTreeClassifier) Classify(e *data.Example) (float64, error) {
	if err := dt.state.RequireTrained("DecisionTreeClassifier", "Classify"); err != nil {
		return 0, err
	}
	var label float64
	_ = dt.state.WithState(func() error {
		label = dt.classes[dt.leaf(e).label]
		return nil
	})
	return label, nil
}

// Confidence returns the fraction of the leaf's training samples that carry
// the predicted label.
func (dt *DecisionTreeClassifier) Confidence(e *data.Example) (float64, error) {
	if err := dt.state.RequireTrained("DecisionTreeClassifier", "Confidence"); err != nil {
		return 0, err
	}
	var conf float64
	_ = dt.state.WithState(func() error {
		n := dt.leaf(e)
		conf = float64(n.counts[n.label]) / float64(n.n)
		return nil
	})
	return conf, nil
}

// PredictProba returns the class distribution of the leaf e falls into,
// aligned with Classes.
func (dt *DecisionTreeClassifier) PredictProba(e *data.Example) ([]float64, error) {
	if err := dt.state.RequireTrained("DecisionTreeClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	var probs []float64
	_ = dt.state.WithState(func() error {
		n := dt.leaf(e)
		probs = make([]float64, len(n.counts))
		for i, c := range n.counts {
			probs[i] = float64(c) / float64(n.n)
		}
		return nil
	})
	return probs, nil
}

// Classes returns the training labels in ascending order.
func (dt *DecisionTreeClassifier) Classes() []float64 {
	var out []float64
	_ = dt.state.WithState(func() error {
		out = append(out, dt.classes...)
		return nil
	})
	return out
}

// GetFeatureImportances returns the normalized total impurity decrease per
// feature, keyed by feature index.
func (dt *DecisionTreeClassifier) GetFeatureImportances() map[int]float64 {
	out := make(map[int]float64)
	_ = dt.state.WithState(func() error {
		for j, f := range dt.features {
			out[f] = dt.importances[j]
		}
		return nil
	})
	return out
}

// GetDepth returns the length of the longest root-to-leaf path.
func (dt *DecisionTreeClassifier) GetDepth() int {
	var d int
	_ = dt.state.WithState(func() error {
		d = depthOf(dt.root)
		return nil
	})
	return d
}

// GetNLeaves returns the number of leaves.
func (dt *DecisionTreeClassifier) GetNLeaves() int {
	var n int
	_ = dt.state.WithState(func() error {
		n = leavesOf(dt.root)
		return nil
	})
	return n
}

func depthOf(n *node) int {
	if n == nil || n.leaf {
		return 0
	}
	return 1 + max(depthOf(n.left), depthOf(n.right))
}

func leavesOf(n *node) int {
	if n == nil {
		return 0
	}
	if n.leaf {
		return 1
	}
	return leavesOf(n.left) + leavesOf(n.right)
}

// IsTrained reports whether Train has completed.
func (dt *DecisionTreeClassifier) IsTrained() bool {
	return dt.state.IsTrained()
}

// GetParams returns the model hyperparameters
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":         dt.criterion,
		"max_depth":         dt.maxDepth,
		"min_samples_split": dt.minSamplesSplit,
		"min_samples_leaf":  dt.minSamplesLeaf,
	}
}

// SetParams sets the model hyperparameters
func (dt *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var ok bool
		switch key {
		case "criterion":
			dt.criterion, ok = value.(string)
		case "max_depth":
			dt.maxDepth, ok = value.(int)
		case "min_samples_split":
			dt.minSamplesSplit, ok = value.(int)
		case "min_samples_leaf":
			dt.minSamplesLeaf, ok = value.(int)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, "wrong type", value)
		}
	}
	return dt.validate()
}

package cv

import (
	"math/rand/v2"
	"sort"

	"github.com/YuminosukeSato/dmatrix/dmatrix"
	"github.com/YuminosukeSato/dmatrix/pkg/errors"
)

// Fold holds the row positions of one train/test split.
type Fold struct {
	Train []int
	Test  []int
}

// Splitter divides the rows of a matrix into folds.
type Splitter interface {
	Split(d *dmatrix.DMatrix) ([]Fold, error)
	GetNSplits() int
}

// KFold splits rows into NSplits contiguous folds, after an optional shuffle.
type KFold struct {
	NSplits int
	Shuffle bool
	Seed    int
}

// NewKFold creates a k-fold splitter. nSplits below 2 falls back to 3.
func NewKFold(nSplits int, shuffle bool, seed int) *KFold {
	if nSplits < 2 {
		nSplits = DefaultNFold
	}
	return &KFold{NSplits: nSplits, Shuffle: shuffle, Seed: seed}
}

// GetNSplits returns the number of folds.
func (kf *KFold) GetNSplits() int { return kf.NSplits }

func newRand(seed int) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}

// Split implements Splitter.
func (kf *KFold) Split(d *dmatrix.DMatrix) ([]Fold, error) {
	n := d.NumRow()
	if kf.NSplits > n {
		return nil, errors.NewValueErrorf("KFold.Split", "cannot have %d folds with only %d rows", kf.NSplits, n)
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	if kf.Shuffle {
		r := newRand(kf.Seed)
		r.Shuffle(n, func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
	}

	assign := make([]int, n)
	size, rem := n/kf.NSplits, n%kf.NSplits
	pos := 0
	for f := 0; f < kf.NSplits; f++ {
		cnt := size
		if f < rem {
			cnt++
		}
		for _, row := range perm[pos : pos+cnt] {
			assign[row] = f
		}
		pos += cnt
	}
	return foldsFromAssignment(assign, kf.NSplits), nil
}

// foldsFromAssignment builds folds from a per-row fold number; both sides
// list rows in increasing order.
func foldsFromAssignment(assign []int, k int) []Fold {
	folds := make([]Fold, k)
	for row, f := range assign {
		for g := range folds {
			if g == f {
				folds[g].Test = append(folds[g].Test, row)
			} else {
				folds[g].Train = append(folds[g].Train, row)
			}
		}
	}
	return folds
}

// StratifiedKFold keeps the label distribution of every fold close to the
// whole: rows of each class are dealt across folds separately.
type StratifiedKFold struct {
	NSplits int
	Shuffle bool
	Seed    int
}

// NewStratifiedKFold creates a stratified splitter. nSplits below 2 falls back to 3.
func NewStratifiedKFold(nSplits int, shuffle bool, seed int) *StratifiedKFold {
	if nSplits < 2 {
		nSplits = DefaultNFold
	}
	return &StratifiedKFold{NSplits: nSplits, Shuffle: shuffle, Seed: seed}
}

// GetNSplits returns the number of folds.
func (skf *StratifiedKFold) GetNSplits() int { return skf.NSplits }

// Split implements Splitter. The matrix must carry labels.
func (skf *StratifiedKFold) Split(d *dmatrix.DMatrix) ([]Fold, error) {
	const op = "StratifiedKFold.Split"
	labels := d.Label()
	n := d.NumRow()
	if len(labels) != n {
		return nil, errors.NewValueError(op, "stratified folds need a label for every row")
	}
	if skf.NSplits > n {
		return nil, errors.NewValueErrorf(op, "cannot have %d folds with only %d rows", skf.NSplits, n)
	}

	byClass := make(map[float32][]int)
	for i, y := range labels {
		byClass[y] = append(byClass[y], i)
	}
	// map order is random, fold contents must not be
	classes := make([]float32, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })

	var r *rand.Rand
	if skf.Shuffle {
		r = newRand(skf.Seed)
	}
	assign := make([]int, n)
	next := 0
	for _, c := range classes {
		rows := byClass[c]
		if r != nil {
			r.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		}
		// round-robin, continuing where the previous class stopped
		for _, row := range rows {
			assign[row] = next
			next = (next + 1) % skf.NSplits
		}
	}
	return foldsFromAssignment(assign, skf.NSplits), nil
}

// Folds is an explicit list of splits.
type Folds []Fold

// GetNSplits returns the number of folds.
func (fs Folds) GetNSplits() int { return len(fs) }

// Split validates the folds against d and returns copies of them.
func (fs Folds) Split(d *dmatrix.DMatrix) ([]Fold, error) {
	const op = "Folds.Split"
	if len(fs) == 0 {
		return nil, errors.NewValueError(op, "no folds given")
	}
	n := d.NumRow()
	out := make([]Fold, len(fs))
	for i, f := range fs {
		if len(f.Train) == 0 || len(f.Test) == 0 {
			return nil, errors.NewValueErrorf(op, "fold %d has an empty train or test side", i)
		}
		for _, side := range [][]int{f.Train, f.Test} {
			for _, row := range side {
				if row < 0 || row >= n {
					return nil, errors.NewValueErrorf(op, "fold %d: row %d out of range [0, %d)", i, row, n)
				}
			}
		}
		out[i] = Fold{Train: append([]int(nil), f.Train...), Test: append([]int(nil), f.Test...)}
	}
	return out, nil
}

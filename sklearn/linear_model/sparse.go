package linear_model

import (
	"github.com/YuminosukeSato/tabclass/core/data"
)

// sparseRow holds an example's stored features as weight positions and
// values, in ascending feature index order.
type sparseRow struct {
	pos []int
	val []float64
}

// columnIndex maps each feature index to its position in a weight vector.
func columnIndex(features []int) map[int]int {
	column := make(map[int]int, len(features))
	for i, idx := range features {
		column[idx] = i
	}
	return column
}

// toSparseRow converts e once so that SGD passes avoid map lookups.
// Features outside column are dropped.
func toSparseRow(e *data.Example, column map[int]int) sparseRow {
	indices := e.FeatureSet()
	row := sparseRow{
		pos: make([]int, 0, len(indices)),
		val: make([]float64, 0, len(indices)),
	}
	for _, idx := range indices {
		if pos, ok := column[idx]; ok {
			row.pos = append(row.pos, pos)
			row.val = append(row.val, e.Feature(idx))
		}
	}
	return row
}

func sparseRows(ds *data.DataSet, column map[int]int) []sparseRow {
	rows := make([]sparseRow, ds.Len())
	for i, e := range ds.Data() {
		rows[i] = toSparseRow(e, column)
	}
	return rows
}

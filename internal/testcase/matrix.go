package testcase

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/fxnlabs/nvbandwidth/internal/metrics"
)

// Matrix holds one bandwidth value per (row, column) node pair. Cells that
// were never measured print as N/A.
type Matrix struct {
	Title string
	Rows  int
	Cols  int
	cells []float64
}

// NewMatrix returns a matrix with every cell unset.
func NewMatrix(title string, rows, cols int) *Matrix {
	cells := make([]float64, rows*cols)
	for i := range cells {
		cells[i] = math.NaN()
	}
	return &Matrix{Title: title, Rows: rows, Cols: cols, cells: cells}
}

func (m *Matrix) Set(row, col int, v float64) {
	m.cells[row*m.Cols+col] = v
}

// Value returns the cell at (row, col) and whether it was measured.
func (m *Matrix) Value(row, col int) (float64, bool) {
	v := m.cells[row*m.Cols+col]
	return v, !math.IsNaN(v)
}

func (m *Matrix) Print(w io.Writer) error {
	if _, err := fmt.Fprintln(w, m.Title); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%6s", ""); err != nil {
		return err
	}
	for c := 0; c < m.Cols; c++ {
		if _, err := fmt.Fprintf(w, "%10d", c); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	for r := 0; r < m.Rows; r++ {
		if _, err := fmt.Fprintf(w, "%6d", r); err != nil {
			return err
		}
		for c := 0; c < m.Cols; c++ {
			cell := "N/A"
			if v, ok := m.Value(r, c); ok {
				cell = fmt.Sprintf("%.2f", v)
			}
			if _, err := fmt.Fprintf(w, "%10s", cell); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// Export publishes every measured cell as a bandwidth gauge for key.
func (m *Matrix) Export(key string) {
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			if v, ok := m.Value(r, c); ok {
				metrics.Bandwidth.WithLabelValues(key, strconv.Itoa(r), strconv.Itoa(c)).Set(v)
			}
		}
	}
}

// Package strip reconciles a row's image order with the row's
// physical image-slot columns.
package strip

import (
	"github.com/catalogtools/stripd/pkg/order"
)

// ImageList returns the non-empty slot values, in column order.
func ImageList(slots []string) []string {
	images := make([]string, 0, len(slots))
	for _, s := range slots {
		if s != "" {
			images = append(images, s)
		}
	}
	return images
}

// Materialize returns the slot values that put the row's images in
// the given order: slot k holds ImageList(slots)[ord[k]], and slots
// past the end of the order are empty. Indices that do not refer to
// an image are skipped.
func Materialize(slots []string, ord order.Order) []string {
	images := ImageList(slots)
	out := make([]string, len(slots))
	k := 0
	for _, i := range ord {
		if i < 0 || i >= len(images) || k >= len(out) {
			continue
		}
		out[k] = images[i]
		k++
	}
	return out
}

// Slots extracts the image-slot values of a row.
func Slots(row []string, imageColumns []int) []string {
	slots := make([]string, len(imageColumns))
	for k, c := range imageColumns {
		if c < len(row) {
			slots[k] = row[c]
		}
	}
	return slots
}

// Apply returns a copy of row with its image slots materialized in
// the given order. Columns other than the image slots are left as
// they are.
func Apply(row []string, imageColumns []int, ord order.Order) []string {
	out := make([]string, len(row))
	copy(out, row)
	for k, v := range Materialize(Slots(row, imageColumns), ord) {
		if c := imageColumns[k]; c < len(out) {
			out[c] = v
		}
	}
	return out
}

// Package shopping aggregates shopping-cart recipes into a purchase list.
// Pure functions only, no I/O.
package shopping

import "sort"

// Item is one line of a shopping list: an ingredient with a total amount.
type Item struct {
	Name            string
	MeasurementUnit string
	Amount          int
}

// Aggregate merges ingredient lines from all cart recipes, summing amounts
// for identical (name, unit) pairs. The result is sorted by name, then unit.
func Aggregate(items []Item) []Item {
	type key struct {
		name string
		unit string
	}

	totals := make(map[key]int, len(items))
	for _, it := range items {
		totals[key{it.Name, it.MeasurementUnit}] += it.Amount
	}

	merged := make([]Item, 0, len(totals))
	for k, amount := range totals {
		merged = append(merged, Item{
			Name:            k.name,
			MeasurementUnit: k.unit,
			Amount:          amount,
		})
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Name != merged[j].Name {
			return merged[i].Name < merged[j].Name
		}
		return merged[i].MeasurementUnit < merged[j].MeasurementUnit
	})

	return merged
}

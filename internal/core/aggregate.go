package core

import (
	"cmp"
	"slices"
)

// Filter is a conjunction of predicates over transactions. Unset fields
// do not constrain the match.
type Filter struct {
	OwnerID    string
	Kind       Kind
	Range      *Range
	ProjectID  string
	CategoryID string
	IsBusiness *bool
	Status     IncomeStatus
}

// Match reports whether t satisfies every predicate of the filter.
func (f Filter) Match(t Transaction) bool {
	if f.OwnerID != "" && t.OwnerID != f.OwnerID {
		return false
	}
	if f.Kind != "" && t.Kind != f.Kind {
		return false
	}
	if f.Range != nil && !f.Range.Contains(t.OccurredAt) {
		return false
	}
	if f.ProjectID != "" && t.ProjectID != f.ProjectID {
		return false
	}
	if f.CategoryID != "" && t.CategoryID != f.CategoryID {
		return false
	}
	if f.IsBusiness != nil && t.IsBusiness != *f.IsBusiness {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	return true
}

// Apply returns the transactions matching f, preserving input order.
func Apply(txs []Transaction, f Filter) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Sum adds up the amounts. The sum of an empty set is zero.
// No assumption is made about the sign of individual amounts.
func Sum(txs []Transaction) Money {
	var total Money
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return total
}

func Count(txs []Transaction) int {
	return len(txs)
}

// Group is the aggregate of one group-by key.
type Group struct {
	Total Money
	Count int
}

// GroupBy aggregates txs per key. keyFn returns false to drop a row; keys
// are only ever created by a matching row, so no zero groups are emitted.
func GroupBy[K comparable](txs []Transaction, keyFn func(Transaction) (K, bool)) map[K]Group {
	groups := make(map[K]Group)
	for _, t := range txs {
		key, ok := keyFn(t)
		if !ok {
			continue
		}
		g := groups[key]
		g.Total = g.Total.Add(t.Amount)
		g.Count++
		groups[key] = g
	}
	return groups
}

// KeyedGroup pairs a key with its aggregate.
type KeyedGroup[K comparable] struct {
	Key K
	Group
}

// SortedGroups flattens a group map into a slice ordered by less.
func SortedGroups[K comparable](groups map[K]Group, less func(a, b K) int) []KeyedGroup[K] {
	out := make([]KeyedGroup[K], 0, len(groups))
	for k, g := range groups {
		out = append(out, KeyedGroup[K]{Key: k, Group: g})
	}
	slices.SortFunc(out, func(a, b KeyedGroup[K]) int { return less(a.Key, b.Key) })
	return out
}

// MostRecent returns up to limit transactions ordered by OccurredAt
// descending, ties broken by ID descending.
func MostRecent(txs []Transaction, limit int) []Transaction {
	sorted := append([]Transaction{}, txs...)
	slices.SortFunc(sorted, CompareRecent)
	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// CompareRecent orders newer transactions first, then higher IDs first.
func CompareRecent(a, b Transaction) int {
	if c := b.OccurredAt.Compare(a.OccurredAt); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

// Package intset implements an ordered integer set as a sorted singly-linked
// list bounded by two sentinel nodes.
//
// The set is deliberately not thread-safe. It is the shared structure under
// stress in this tool, and races between concurrent traversals and splices are
// the very thing the emitted traces are meant to capture. Do not add locks
// here. Unlinked nodes stay alive for as long as a concurrent traversal still
// holds them, so racy reads observe stale links rather than freed memory.
package intset

import "math"

const (
	sentinelMin = math.MinInt64
	sentinelMax = math.MaxInt64
)

type node struct {
	val  int64
	next *node
}

// Set holds keys in strictly ascending order between the two sentinels.
type Set struct {
	head *node
}

func New() *Set {
	max := &node{val: sentinelMax}
	min := &node{val: sentinelMin, next: max}
	return &Set{head: min}
}

// search returns the last node with key < v and its successor.
func (s *Set) search(v int64) (prev, next *node) {
	prev = s.head
	next = prev.next
	for next.val < v {
		prev = next
		next = prev.next
	}
	return prev, next
}

// Contains reports whether v is in the set. Sentinel keys are outside the
// set's domain and are never reported as contained.
func (s *Set) Contains(v int64) bool {
	if v == sentinelMin || v == sentinelMax {
		return false
	}
	_, next := s.search(v)
	return next.val == v
}

// Add inserts v, keeping the list sorted. It returns false if v is already
// present or is a sentinel key.
func (s *Set) Add(v int64) bool {
	if v == sentinelMin || v == sentinelMax {
		return false
	}
	prev, next := s.search(v)
	if next.val == v {
		return false
	}
	prev.next = &node{val: v, next: next}
	return true
}

// Remove unlinks v from the set and reports whether it was present. Sentinels
// are never removable.
func (s *Set) Remove(v int64) bool {
	if v == sentinelMin || v == sentinelMax {
		return false
	}
	prev, next := s.search(v)
	if next.val != v {
		return false
	}
	prev.next = next.next
	return true
}

// Size counts the keys strictly between the sentinels.
func (s *Set) Size() int {
	size := 0
	for n := s.head.next; n.next != nil; n = n.next {
		size++
	}
	return size
}

// Keys returns the keys strictly between the sentinels in ascending order.
func (s *Set) Keys() []int64 {
	var keys []int64
	for n := s.head.next; n.next != nil; n = n.next {
		keys = append(keys, n.val)
	}
	return keys
}

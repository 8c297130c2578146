// Copyright (C) 2024-2026, Trie Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package linked

// ListElement is an element of a List.
type ListElement[T any] struct {
	next, prev *ListElement[T]

	// The list this element belongs to.
	list *List[T]

	// The value stored with this element.
	Value T
}

// Next returns the next list element or nil.
func (e *ListElement[T]) Next() *ListElement[T] {
	if p := e.next; e.list != nil && p != &e.list.root {
		return p
	}
	return nil
}

// Prev returns the previous list element or nil.
func (e *ListElement[T]) Prev() *ListElement[T] {
	if p := e.prev; e.list != nil && p != &e.list.root {
		return p
	}
	return nil
}

// List implements a doubly linked list with a sentinel root element.
//
// The zero value is not usable, NewList must be called to create a usable
// list.
type List[T any] struct {
	// root.next is the front of the list and root.prev is the back of the
	// list.
	root ListElement[T]
	len  int
}

func NewList[T any]() *List[T] {
	l := &List[T]{}
	l.root.next = &l.root
	l.root.prev = &l.root
	return l
}

func (l *List[T]) Len() int {
	return l.len
}

// Front returns the element at the front of the list or nil.
func (l *List[T]) Front() *ListElement[T] {
	if l.len == 0 {
		return nil
	}
	return l.root.next
}

// Back returns the element at the back of the list or nil.
func (l *List[T]) Back() *ListElement[T] {
	if l.len == 0 {
		return nil
	}
	return l.root.prev
}

// Remove removes [e] from the list if [e] is in the list.
func (l *List[T]) Remove(e *ListElement[T]) {
	if e.list != l {
		return
	}

	e.prev.next = e.next
	e.next.prev = e.prev
	e.next = nil
	e.prev = nil
	e.list = nil
	l.len--
}

// PushFront inserts [e] at the front of the list. If [e] is already in a
// list, the list is not modified.
func (l *List[T]) PushFront(e *ListElement[T]) {
	if e.list == nil {
		l.insertAfter(e, &l.root)
	}
}

// PushBack inserts [e] at the back of the list. If [e] is already in a list,
// the list is not modified.
func (l *List[T]) PushBack(e *ListElement[T]) {
	if e.list == nil {
		l.insertAfter(e, l.root.prev)
	}
}

// MoveToFront moves [e] to the front of the list if [e] is in the list.
func (l *List[T]) MoveToFront(e *ListElement[T]) {
	if e.list == l && l.root.next != e {
		l.move(e, &l.root)
	}
}

// MoveToBack moves [e] to the back of the list if [e] is in the list.
func (l *List[T]) MoveToBack(e *ListElement[T]) {
	if e.list == l && l.root.prev != e {
		l.move(e, l.root.prev)
	}
}

func (l *List[T]) insertAfter(e, location *ListElement[T]) {
	e.prev = location
	e.next = location.next
	e.prev.next = e
	e.next.prev = e
	e.list = l
	l.len++
}

func (l *List[T]) move(e, location *ListElement[T]) {
	if e == location {
		return
	}
	e.prev.next = e.next
	e.next.prev = e.prev

	e.prev = location
	e.next = location.next
	e.prev.next = e
	e.next.prev = e
}

// Package fields exercises struct-field annotations and narrowing of member
// locations.
package fields

type node struct {
	next *node // nullable
	data *int  // nonnull
	misc *int
}

func derefNullableField(n *node) {
	_ = *n.next.data // want "`n->next` may be null when dereferenced"
}

func derefNonnullField(n *node) int {
	return *n.data
}

func derefUnannotatedField(n *node) int {
	return *n.misc
}

func guardedField(n *node) *int {
	if n.next != nil {
		return n.next.data
	}
	return nil
}

func fieldGuardDoesNotTransfer(n *node) {
	if n.next != nil {
		_ = n.next.next.data // want "`n->next->next` may be null when dereferenced"
	}
}

func storeIntoNonnullField(n *node) {
	n.data = nil // want "`null` may be null and flows into nonnull target `n->data`"
}

func storedValueNarrows(n *node) {
	x := 0
	n.next = &node{}
	_ = n.next.data
	_ = x
}

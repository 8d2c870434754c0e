// Package basic exercises the fundamental checks: dereferences of annotated
// pointers, nil-check narrowing, assignments against nonnull contracts and
// return contracts.
package basic

// nullable(p)
func deref(p *int) int {
	return *p // want "`p` may be null when dereferenced"
}

// nonnull(p)
func derefNonnull(p *int) int {
	return *p
}

// Unannotated pointers keep the optimistic default.
func derefUnspecified(p *int) int {
	return *p
}

// nullable(p)
func guarded(p *int) int {
	if p != nil {
		return *p
	}
	return 0
}

// nullable(p)
func guardedEarlyReturn(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// nullable(p)
func negatedGuard(p *int) int {
	if !(p == nil) {
		return *p
	}
	return 0
}

// nullable(p)
func wrongBranch(p *int) int {
	if p == nil {
		return *p // want "`p` may be null when dereferenced"
	}
	return 0
}

// nonnull(p)
func reassign(p *int) {
	p = nil // want "`null` may be null and flows into nonnull target `p`"
}

// nonnull(result)
// nullable(p)
func returnContract(p *int) *int {
	return p // want "`p` may be null and flows into nonnull result contract"
}

// nonnull(result)
// nullable(p)
func returnGuarded(p *int) *int {
	if p == nil {
		x := 0
		return &x
	}
	return p
}

func nullFlowsToUse(p *int) {
	p = nil
	_ = *p // want "`p` may be null when dereferenced"
}

func addressOfIsSafe() *int {
	x := 0
	p := &x
	return *&p
}

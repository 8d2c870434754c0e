// Package loops exercises fixpoint behavior over cyclic control flow.
package loops

// nullable(p)
func derefInLoop(p *int, n int) {
	for i := 0; i < n; i++ {
		_ = *p // want "`p` may be null when dereferenced"
	}
}

// nullable(p)
func guardedLoop(p *int, n int) {
	if p == nil {
		return
	}
	for i := 0; i < n; i++ {
		_ = *p
	}
}

// The null from a later iteration joins into the loop head: p degrades to
// unspecified there, proven neither way, so nothing is reported.
func invalidatedInLoop(n int) {
	x := 0
	p := &x
	for i := 0; i < n; i++ {
		_ = *p
		p = nil
	}
}

func stabilizes(n int) {
	x := 0
	p := &x
	for i := 0; i < n; i++ {
		p = &x
		_ = *p
	}
}

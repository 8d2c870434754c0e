// Package calls exercises callable contracts: parameter, receiver and result
// annotations checked at call sites.
package calls

// nonnull(q)
func use(q *int) {}

// nullable(q)
func useNullable(q *int) {}

// nullable(result)
func produce() *int {
	return nil
}

// nonnull(result)
func produceNonnull() *int {
	x := 0
	return &x
}

type counter struct{ n int }

// nonnull(c)
func (c *counter) incr() {
	c.n++
}

// nullable(p)
func callsite(p *int) {
	use(p) // want "`p` may be null and flows into nonnull parameter 0 of `use`"
	useNullable(p)
	if p != nil {
		use(p)
	}
}

func resultContract() {
	p := produce()
	_ = *p // want "`p` may be null when dereferenced"
	q := produceNonnull()
	_ = *q
}

// nullable(c)
func methodReceiver(c *counter) {
	c.incr() // want "`c` may be null and flows into nonnull receiver of `incr`"
	if c != nil {
		c.incr()
	}
}

func nullArgument() {
	use(nil) // want "`null` may be null and flows into nonnull parameter 0 of `use`"
}

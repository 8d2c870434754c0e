// Package asserts exercises the introspection construct that asserts the
// live nullability vector of an expression at a program point.
package asserts

// AssertNullability is recognized by name; the call has no runtime effect.
func AssertNullability(x any, kinds ...string) {}

// nullable(p)
func declared(p *int) {
	AssertNullability(p, "nullable")
	AssertNullability(p, "nonnull") // want `nullability of .p. is \[nullable\], asserted \[nonnull\]`
}

// nullable(p)
func narrowed(p *int) {
	if p != nil {
		AssertNullability(p, "nonnull")
	} else {
		AssertNullability(p, "nullable")
	}
	AssertNullability(p, "unspecified")
}

// nullable(p)
func addressOf(p *int) {
	AssertNullability(&p, "nonnull", "nullable")
}

// nonnull(pp)
func derefDropsHead(pp **int) {
	AssertNullability(*pp, "unspecified")
	AssertNullability(pp, "nonnull", "unspecified")
}

func flowThroughAssignment(p *int) {
	AssertNullability(p, "unspecified")
	p = nil
	AssertNullability(p, "nullable")
	x := 0
	p = &x
	AssertNullability(p, "nonnull")
}

func scalarHasEmptyVector(x int) {
	AssertNullability(x)
	AssertNullability(x, "unspecified") // want `nullability of .x. is \[\], asserted \[unspecified\]`
}

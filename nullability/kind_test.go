//  Copyright (c) 2025 the nullvet authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package nullability

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var kinds = []Kind{Unspecified, Nonnull, Nullable}

func TestJoin(t *testing.T) {
	t.Parallel()

	// Agreement keeps the kind; disagreement loses to the top element.
	require.Equal(t, Nonnull, Join(Nonnull, Nonnull))
	require.Equal(t, Nullable, Join(Nullable, Nullable))
	require.Equal(t, Unspecified, Join(Nonnull, Nullable))
	require.Equal(t, Unspecified, Join(Nonnull, Unspecified))
	require.Equal(t, Unspecified, Join(Nullable, Unspecified))

	for _, a := range kinds {
		for _, b := range kinds {
			require.Equal(t, Join(a, b), Join(b, a), "join must be commutative")
		}
		require.Equal(t, a, Join(a, a), "join must be idempotent")
	}
}

func TestMeet(t *testing.T) {
	t.Parallel()

	for _, k := range kinds {
		got, ok := Meet(k, Unspecified)
		require.True(t, ok)
		require.Equal(t, k, got)

		got, ok = Meet(Unspecified, k)
		require.True(t, ok)
		require.Equal(t, k, got)
	}

	// The two concrete kinds are incomparable: no lower bound exists.
	_, ok := Meet(Nonnull, Nullable)
	require.False(t, ok)
	_, ok = Meet(Nullable, Nonnull)
	require.False(t, ok)
}

func TestLeq(t *testing.T) {
	t.Parallel()

	for _, k := range kinds {
		require.True(t, Leq(k, k), "leq must be reflexive")
		require.True(t, Leq(k, Unspecified), "everything is below top")
	}
	require.False(t, Leq(Unspecified, Nonnull))
	require.False(t, Leq(Unspecified, Nullable))
	require.False(t, Leq(Nonnull, Nullable))
	require.False(t, Leq(Nullable, Nonnull))

	// Join computes a true upper bound.
	for _, a := range kinds {
		for _, b := range kinds {
			j := Join(a, b)
			require.True(t, Leq(a, j))
			require.True(t, Leq(b, j))
		}
	}
}

func TestKindString_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, k := range kinds {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		require.Equal(t, k, parsed)
	}

	_, err := ParseKind("bogus")
	require.ErrorContains(t, err, "unknown nullability kind")

	require.Panics(t, func() { _ = Kind(42).String() })
}

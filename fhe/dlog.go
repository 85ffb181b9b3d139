// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package fhe

import (
	"errors"
	"fmt"
	"math"

	"github.com/cloudflare/circl/group"
)

var ErrDlogOutOfRange = errors.New("plaintext outside of decryptable range")

// DlogTable solves m from m*G for m in [0, Max] with baby-step giant-step.
type DlogTable struct {
	max   uint64
	step  uint64
	baby  map[string]uint64
	giant group.Element // -step*G
}

// NewDlogTable precomputes ceil(sqrt(max+1)) baby steps.
func NewDlogTable(max uint64) *DlogTable {
	step := uint64(math.Ceil(math.Sqrt(float64(max) + 1)))
	if step == 0 {
		step = 1
	}

	baby := make(map[string]uint64, step)
	g := Suite.Generator()
	p := Suite.Identity()
	for j := uint64(0); j < step; j++ {
		b, _ := p.MarshalBinary()
		baby[string(b)] = j
		p = Suite.NewElement().Add(p, g)
	}

	giant := Suite.NewElement().MulGen(Suite.NewScalar().SetUint64(step))
	return &DlogTable{
		max:   max,
		step:  step,
		baby:  baby,
		giant: Suite.NewElement().Neg(giant),
	}
}

// Max is the largest solvable plaintext.
func (t *DlogTable) Max() uint64 {
	return t.max
}

// Size is the number of precomputed points.
func (t *DlogTable) Size() int {
	return len(t.baby)
}

// Solve returns m such that p == m*G.
func (t *DlogTable) Solve(p group.Element) (uint64, error) {
	cur := Suite.NewElement().Set(p)
	for i := uint64(0); i*t.step <= t.max; i++ {
		b, err := cur.MarshalBinary()
		if err != nil {
			return 0, fmt.Errorf("encode point: %w", err)
		}
		if j, ok := t.baby[string(b)]; ok {
			if m := i*t.step + j; m <= t.max {
				return m, nil
			}
		}
		cur = Suite.NewElement().Add(cur, t.giant)
	}
	return 0, ErrDlogOutOfRange
}

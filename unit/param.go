package unit

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Param is one controllable parameter of a unit. The live value is stored
// normalized to [0, 1]; Min and Max define the plain range it maps to.
// Mutation goes through the owning ParamSet so that revision tracking and
// change propagation stay intact.
type Param struct {
	ID                uint32
	Name              string
	Unit              string
	Min               float64
	Max               float64
	DefaultNormalized float64
	StepCount         int32

	value  atomic.Uint64
	format func(plain float64) string
}

// Normalized returns the current normalized value in [0, 1].
func (p *Param) Normalized() float64 {
	return math.Float64frombits(p.value.Load())
}

// Plain returns the current value mapped into [Min, Max].
func (p *Param) Plain() float64 {
	return p.Denormalize(p.Normalized())
}

// Normalize converts a plain value to the normalized range, clamping.
func (p *Param) Normalize(plain float64) float64 {
	if p.Max <= p.Min {
		return 0
	}
	n := (plain - p.Min) / (p.Max - p.Min)
	return clamp01(n)
}

// Denormalize converts a normalized value to the plain range.
func (p *Param) Denormalize(normalized float64) float64 {
	return p.Min + normalized*(p.Max-p.Min)
}

// Format renders the current value for display.
func (p *Param) Format() string {
	return p.FormatNormalized(p.Normalized())
}

// FormatNormalized renders an arbitrary normalized value for display using
// the parameter's formatter, falling back to a numeric rendering.
func (p *Param) FormatNormalized(normalized float64) string {
	plain := p.Denormalize(normalized)
	if p.format != nil {
		return p.format(plain)
	}
	if p.StepCount > 0 {
		return fmt.Sprintf("%.0f", plain)
	}
	return fmt.Sprintf("%.2f", plain)
}

func (p *Param) setNormalized(v float64) {
	p.value.Store(math.Float64bits(clamp01(v)))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Builder provides a fluent API for declaring parameters.
type Builder struct {
	param *Param
}

// NewParam starts a parameter declaration. The plain range defaults to
// [0, 1] with a default of 0.
func NewParam(id uint32, name string) *Builder {
	return &Builder{param: &Param{
		ID:   id,
		Name: name,
		Min:  0,
		Max:  1,
	}}
}

// Range sets the plain value range.
func (b *Builder) Range(min, max float64) *Builder {
	b.param.Min = min
	b.param.Max = max
	return b
}

// Default sets the default value, given in the plain range.
func (b *Builder) Default(plain float64) *Builder {
	if b.param.Max > b.param.Min {
		b.param.DefaultNormalized = (plain - b.param.Min) / (b.param.Max - b.param.Min)
	}
	return b
}

// Unit sets the display unit label.
func (b *Builder) Unit(unit string) *Builder {
	b.param.Unit = unit
	return b
}

// Steps sets the number of discrete steps.
func (b *Builder) Steps(count int32) *Builder {
	b.param.StepCount = count
	return b
}

// Toggle declares a two-state parameter defaulting to off.
func (b *Builder) Toggle() *Builder {
	b.param.Min = 0
	b.param.Max = 1
	b.param.StepCount = 1
	b.param.DefaultNormalized = 0
	return b
}

// Formatter sets the display formatter, called with the plain value.
func (b *Builder) Formatter(format func(plain float64) string) *Builder {
	b.param.format = format
	return b
}

// Build returns the declared parameter initialized to its default.
func (b *Builder) Build() *Param {
	b.param.setNormalized(b.param.DefaultNormalized)
	return b.param
}

// Package fluid turns two (viewport width, size) breakpoints into a CSS
// clamp() expression which grows linearly between the breakpoints and stays
// constant outside of them.
package fluid

import (
	"fmt"
	"math"
	"strings"

	"fluidcss/css"
)

// Units accepted on input.
const (
	UnitPx  = "px"
	UnitRem = "rem"
)

// Viewport relative units used in preferred term.
const (
	UnitVw = "vw"
	UnitVi = "vi"
)

// Options controls rendering of the solution.
type Options struct {
	UseLogicalUnits bool    // emit "vi" instead of "vw"
	RootFontSize    float64 // px per rem
	Precision       int     // decimal places in rendered numbers
}

// DefaultOptions returns options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		UseLogicalUnits: false,
		RootFontSize:    16,
		Precision:       5,
	}
}

func (o Options) viewportUnit() string {
	if o.UseLogicalUnits {
		return UnitVi
	}
	return UnitVw
}

// Solve computes clamp() expression interpolating size from fromSize at
// fromViewportWidth to toSize at toViewportWidth. It returns false when
// values cannot be interpolated, caller is expected to keep original text in
// this case. When both sizes are equal fromSize itself is returned.
func Solve(fromViewportWidth, fromSize, toViewportWidth, toSize css.ComponentValue, opts Options) (css.ComponentValue, bool) {
	fvw, ok := validDimension(fromViewportWidth)
	if !ok {
		return nil, false
	}
	fsz, ok := validDimension(fromSize)
	if !ok {
		return nil, false
	}
	tvw, ok := validDimension(toViewportWidth)
	if !ok {
		return nil, false
	}
	tsz, ok := validDimension(toSize)
	if !ok {
		return nil, false
	}

	if fvw.Value <= 0 || tvw.Value <= 0 {
		return nil, false
	}
	if fvw.Unit != tvw.Unit || fsz.Unit != tsz.Unit {
		return nil, false
	}

	if fsz.Value == tsz.Value {
		return fromSize, true
	}
	if fvw.Value == tvw.Value {
		return nil, false
	}

	text, ok := Clamp(fvw, fsz, tvw, tsz, opts)
	if !ok {
		return nil, false
	}
	return css.ParseComponentValue(css.Tokenize(text))
}

// Clamp renders clamp() expression for already validated, non degenerate
// breakpoints. It returns false if computation produced non finite numbers.
func Clamp(fromViewportWidth, fromSize, toViewportWidth, toSize css.Dimension, opts Options) (string, bool) {
	toPx := func(d css.Dimension) float64 {
		if d.Unit == UnitRem {
			return d.Value * opts.RootFontSize
		}
		return d.Value
	}
	fvw, fsz, tvw, tsz := toPx(fromViewportWidth), toPx(fromSize), toPx(toViewportWidth), toPx(toSize)

	// size = slope * vw + intercept, where vw is percent of viewport width
	slope := 100 * (tsz - fsz) / (tvw - fvw)
	intercept := (fvw*tsz - tvw*fsz) / (fvw - tvw)

	withUnit := func(v float64) string {
		return FormatNumber(v, opts.Precision) + UnitPx
	}
	if fromSize.Unit == UnitRem {
		withUnit = func(v float64) string {
			return FormatNumber(v/opts.RootFontSize, opts.Precision) + UnitRem
		}
	}

	minimum, maximum := math.Min(fsz, tsz), math.Max(fsz, tsz)
	check := []float64{slope, intercept, minimum, maximum}
	if fromSize.Unit == UnitRem {
		check = append(check, intercept/opts.RootFontSize, minimum/opts.RootFontSize, maximum/opts.RootFontSize)
	}
	for _, v := range check {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", false
		}
	}

	var preferred strings.Builder
	preferred.WriteString(FormatNumber(slope, opts.Precision) + opts.viewportUnit())
	if intercept != 0 {
		sign := "+"
		if intercept < 0 {
			sign = "-"
		}
		fmt.Fprintf(&preferred, " %s %s", sign, withUnit(math.Abs(intercept)))
	}

	return fmt.Sprintf("clamp(%s, %s, %s)", withUnit(minimum), preferred.String(), withUnit(maximum)), true
}

func validDimension(v css.ComponentValue) (css.Dimension, bool) {
	tn, ok := v.(*css.TokenNode)
	if !ok {
		return css.Dimension{}, false
	}
	d, ok := tn.Dimension()
	if !ok || (d.Unit != UnitPx && d.Unit != UnitRem) {
		return css.Dimension{}, false
	}
	return d, true
}

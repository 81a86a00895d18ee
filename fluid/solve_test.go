package fluid_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"fluidcss/css"
	"fluidcss/fluid"
)

func node(t *testing.T, s string) css.ComponentValue {
	t.Helper()
	v, ok := css.ParseComponentValue(css.Tokenize(s))
	if !ok {
		t.Fatalf("unable to parse component value %q", s)
	}
	return v
}

func solve(t *testing.T, fromVW, fromSize, toVW, toSize string, opts fluid.Options) (string, bool) {
	t.Helper()
	v, ok := fluid.Solve(node(t, fromVW), node(t, fromSize), node(t, toVW), node(t, toSize), opts)
	if !ok {
		return "", false
	}
	return css.Stringify(v), true
}

func TestSolve(t *testing.T) {
	logical := fluid.DefaultOptions()
	logical.UseLogicalUnits = true

	noDecimals := fluid.DefaultOptions()
	noDecimals.Precision = 0

	root10 := fluid.DefaultOptions()
	root10.RootFontSize = 10

	tests := []struct {
		name                           string
		fromVW, fromSize, toVW, toSize string
		opts                           fluid.Options
		want                           string
	}{
		{
			name:   "pixels",
			fromVW: "375px", fromSize: "16px", toVW: "1280px", toSize: "22px",
			opts: fluid.DefaultOptions(),
			want: "clamp(16px, 0.66298vw + 13.51381px, 22px)",
		},
		{
			name:   "rem sizes",
			fromVW: "320px", fromSize: "1rem", toVW: "1024px", toSize: "2rem",
			opts: fluid.DefaultOptions(),
			want: "clamp(1rem, 2.27273vw + 0.54545rem, 2rem)",
		},
		{
			name:   "logical units",
			fromVW: "375px", fromSize: "16px", toVW: "1280px", toSize: "22px",
			opts: logical,
			want: "clamp(16px, 0.66298vi + 13.51381px, 22px)",
		},
		{
			name:   "zero precision",
			fromVW: "375px", fromSize: "16px", toVW: "1280px", toSize: "22px",
			opts: noDecimals,
			want: "clamp(16px, 1vw + 14px, 22px)",
		},
		{
			name:   "root font size",
			fromVW: "320px", fromSize: "1rem", toVW: "1024px", toSize: "2rem",
			opts: root10,
			want: "clamp(1rem, 1.42045vw + 0.54545rem, 2rem)",
		},
		{
			name:   "shrinking size",
			fromVW: "375px", fromSize: "22px", toVW: "1280px", toSize: "16px",
			opts: fluid.DefaultOptions(),
			want: "clamp(16px, -0.66298vw + 24.48619px, 22px)",
		},
		{
			name:   "negative intercept",
			fromVW: "320px", fromSize: "10px", toVW: "1000px", toSize: "50px",
			opts: fluid.DefaultOptions(),
			want: "clamp(10px, 5.88235vw - 8.82353px, 50px)",
		},
		{
			name:   "zero intercept",
			fromVW: "100px", fromSize: "10px", toVW: "200px", toSize: "20px",
			opts: fluid.DefaultOptions(),
			want: "clamp(10px, 10vw, 20px)",
		},
		{
			name:   "rem viewport widths",
			fromVW: "20rem", fromSize: "1rem", toVW: "80rem", toSize: "2rem",
			opts: fluid.DefaultOptions(),
			want: "clamp(1rem, 1.66667vw + 0.66667rem, 2rem)",
		},
		{
			name:   "rem viewport widths with pixel sizes",
			fromVW: "20rem", fromSize: "16px", toVW: "80rem", toSize: "22px",
			opts: fluid.DefaultOptions(),
			want: "clamp(16px, 0.625vw + 14px, 22px)",
		},
		{
			name:   "exponent",
			fromVW: "3.75e2px", fromSize: "16px", toVW: "1280px", toSize: "22px",
			opts: fluid.DefaultOptions(),
			want: "clamp(16px, 0.66298vw + 13.51381px, 22px)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := solve(t, tt.fromVW, tt.fromSize, tt.toVW, tt.toSize, tt.opts)
			if !ok {
				t.Fatalf("Solve() declined, want %q", tt.want)
			}
			if got != tt.want {
				t.Errorf("Solve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSolve_ResultIsFunction(t *testing.T) {
	v, ok := fluid.Solve(node(t, "375px"), node(t, "16px"), node(t, "1280px"), node(t, "22px"), fluid.DefaultOptions())
	if !ok {
		t.Fatal("Solve() declined")
	}
	fn, ok := v.(*css.FunctionNode)
	if !ok {
		t.Fatalf("Solve() returned %T, want *css.FunctionNode", v)
	}
	if fn.GetName() != "clamp" {
		t.Errorf("function name = %q, want clamp", fn.GetName())
	}
}

func TestSolve_EqualSizes(t *testing.T) {
	tests := []struct {
		name                           string
		fromVW, fromSize, toVW, toSize string
	}{
		{"pixels", "375px", "16px", "1280px", "16px"},
		{"same text differs", "320px", "1.50rem", "1024px", "1.5rem"},
		{"equal widths too", "320px", "2rem", "320px", "2rem"},
		{"zero size", "320px", "0px", "1024px", "0px"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from := node(t, tt.fromSize)
			v, ok := fluid.Solve(node(t, tt.fromVW), from, node(t, tt.toVW), node(t, tt.toSize), fluid.DefaultOptions())
			if !ok {
				t.Fatal("Solve() declined")
			}
			if v != from {
				t.Errorf("Solve() = %q, want fromSize node %q itself", css.Stringify(v), tt.fromSize)
			}
			if got := css.Stringify(v); got != tt.fromSize {
				t.Errorf("Solve() = %q, want %q", got, tt.fromSize)
			}
		})
	}
}

func TestSolve_Declines(t *testing.T) {
	tests := []struct {
		name                           string
		fromVW, fromSize, toVW, toSize string
	}{
		{"equal widths", "640px", "16px", "640px", "22px"},
		{"zero width", "0px", "16px", "1280px", "22px"},
		{"negative width", "-375px", "16px", "1280px", "22px"},
		{"negative to width", "375px", "16px", "-1280px", "22px"},
		{"width units differ", "20rem", "16px", "1280px", "22px"},
		{"size units differ", "375px", "1rem", "1280px", "22px"},
		{"em unit", "375px", "1em", "1280px", "2em"},
		{"viewport unit", "375px", "1vw", "1280px", "2vw"},
		{"percentage", "375px", "10%", "1280px", "20%"},
		{"number", "375", "16px", "1280", "22px"},
		{"identifier", "sm", "16px", "xl", "22px"},
		{"function", "375px", "calc(1px + 1rem)", "1280px", "22px"},
		{"upper case units", "375PX", "16PX", "1280PX", "22PX"},
		{"mixed case size unit", "375px", "1Rem", "1280px", "2rem"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, ok := solve(t, tt.fromVW, tt.fromSize, tt.toVW, tt.toSize, fluid.DefaultOptions()); ok {
				t.Errorf("Solve() = %q, want decline", got)
			}
		})
	}
}

func TestSolve_NonFinite(t *testing.T) {
	opts := fluid.DefaultOptions()
	opts.RootFontSize = 0
	if got, ok := solve(t, "320px", "1rem", "1024px", "2rem", opts); ok {
		t.Errorf("Solve() = %q, want decline for zero root font size", got)
	}
}

// bounds returns first and last clamp arguments as numbers.
func bounds(t *testing.T, clamp string) (float64, float64) {
	t.Helper()
	fn, ok := node(t, clamp).(*css.FunctionNode)
	if !ok {
		t.Fatalf("%q is not a function", clamp)
	}
	groups := css.ParseCommaSeparatedList(fn.Tokens()[1 : len(fn.Tokens())-1])
	if len(groups) != 3 {
		t.Fatalf("%q has %d arguments, want 3", clamp, len(groups))
	}
	dim := func(values []css.ComponentValue) float64 {
		v, ok := css.ParseComponentValue(css.Tokenize(css.Stringify(values...)))
		if !ok {
			t.Fatalf("bad clamp argument in %q", clamp)
		}
		d, ok := v.(*css.TokenNode).Dimension()
		if !ok {
			t.Fatalf("bad clamp argument in %q", clamp)
		}
		return d.Value
	}
	return dim(groups[0]), dim(groups[2])
}

func TestSolve_BoundsAndSymmetry(t *testing.T) {
	widths := []string{"320px", "640px", "1024px", "20rem", "90rem"}
	sizes := []string{"-4px", "0px", "12px", "16.5px", "48px"}
	remSizes := []string{"0.5rem", "1rem", "2.25rem"}

	check := func(t *testing.T, fromVW, fromSize, toVW, toSize string) {
		got, ok := solve(t, fromVW, fromSize, toVW, toSize, fluid.DefaultOptions())
		if !ok {
			t.Fatalf("Solve(%s, %s, %s, %s) declined", fromVW, fromSize, toVW, toSize)
		}
		if !strings.HasPrefix(got, "clamp(") {
			t.Fatalf("Solve(%s, %s, %s, %s) = %q, want clamp()", fromVW, fromSize, toVW, toSize, got)
		}
		if lo, hi := bounds(t, got); lo > hi {
			t.Errorf("Solve(%s, %s, %s, %s) = %q, minimum is greater than maximum", fromVW, fromSize, toVW, toSize, got)
		}
		swapped, ok := solve(t, toVW, toSize, fromVW, fromSize, fluid.DefaultOptions())
		if !ok || swapped != got {
			t.Errorf("swapped breakpoints = %q, want %q", swapped, got)
		}
	}

	for _, fw := range widths {
		for _, tw := range widths {
			if fw == tw || fw[len(fw)-2:] != tw[len(tw)-2:] {
				continue
			}
			for _, set := range [][]string{sizes, remSizes} {
				for _, fs := range set {
					for _, ts := range set {
						if fs == ts {
							continue
						}
						t.Run(fmt.Sprintf("%s_%s_%s_%s", fw, fs, tw, ts), func(t *testing.T) {
							check(t, fw, fs, tw, ts)
						})
					}
				}
			}
		}
	}
}

func TestSolve_Concurrent(t *testing.T) {
	from, fromSize, to, toSize := node(t, "375px"), node(t, "16px"), node(t, "1280px"), node(t, "22px")
	want := "clamp(16px, 0.66298vw + 13.51381px, 22px)"

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for range 64 {
		wg.Go(func() {
			v, ok := fluid.Solve(from, fromSize, to, toSize, fluid.DefaultOptions())
			if !ok {
				errs <- "declined"
				return
			}
			if got := css.Stringify(v); got != want {
				errs <- got
			}
		})
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Errorf("concurrent Solve() = %q, want %q", e, want)
	}
}

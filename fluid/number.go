package fluid

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// MaxPrecision is the largest number of decimal places supported.
const MaxPrecision = 100

// Round rounds v to precision decimal places. Ties are rounded away from zero
// using exact decimal value of v, so 0.125 with precision 2 becomes 0.13 and
// 2.5 with precision 0 becomes 3.
func Round(v float64, precision int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	precision = max(0, min(precision, MaxPrecision))

	r, err := strconv.ParseFloat(scaled(v, precision)+"e-"+strconv.Itoa(precision), 64)
	if err != nil {
		return v
	}
	return r
}

// FormatNumber renders v rounded to precision decimal places in the shortest
// form: no trailing zeros, no negative zero. Magnitudes below 1e-6 or from
// 1e21 up use exponent form ("1e-7", "1e+21") as JavaScript number to string
// conversion does.
func FormatNumber(v float64, precision int) string {
	r := Round(v, precision)
	if r == 0 {
		return "0"
	}
	if a := math.Abs(r); a < 1e-6 || a >= 1e21 {
		return exponent(r)
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// exponent renders r as shortest mantissa and exponent without leading
// zeros: "1.5e-7" rather than "1.5e-07".
func exponent(r float64) string {
	mantissa, exp, _ := strings.Cut(strconv.FormatFloat(r, 'e', -1, 64), "e")
	return mantissa + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
}

// scaled returns v * 10^precision rounded half away from zero as signed
// decimal integer.
func scaled(v float64, precision int) string {
	// float64 mantissa is exact in big.Float, 10^100 needs ~333 bits
	const prec = 1024

	x := new(big.Float).SetPrec(prec).SetFloat64(math.Abs(v))
	scale := new(big.Float).SetPrec(prec).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(precision)), nil))
	x.Mul(x, scale)
	x.Add(x, new(big.Float).SetPrec(prec).SetFloat64(0.5))

	n, _ := x.Int(nil) // truncates toward zero
	digits := n.String()
	if v < 0 && digits != "0" {
		digits = "-" + digits
	}
	return digits
}

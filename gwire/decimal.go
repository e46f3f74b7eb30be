package gwire

import (
	"io"
	"math/big"
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// MaxDecimalScale is the largest number of fractional digits a Decimal
// can carry.
const MaxDecimalScale = 28

const (
	decimalScaleShift = 16
	decimalScaleMask  = 0x00ff0000
	decimalSignMask   = 0x80000000
)

var (
	decimalType = reflect.TypeOf(Decimal{})
	maxMantissa = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 96), big.NewInt(1))
)

// Decimal is a 96-bit unsigned integer mantissa with a sign and a base-10
// scale: value = (-1)^Negative * (Hi<<64 | Mid<<32 | Lo) / 10^Scale.
type Decimal struct {
	Lo       uint32
	Mid      uint32
	Hi       uint32
	Scale    uint8
	Negative bool
}

// NewDecimal builds a Decimal from a signed unscaled value.
func NewDecimal(unscaled *big.Int, scale uint8) (Decimal, error) {
	if scale > MaxDecimalScale {
		return Decimal{}, errors.Wrapf(ErrInvalidDecimal, "scale %d exceeds %d", scale, MaxDecimalScale)
	}
	mag := new(big.Int).Abs(unscaled)
	if mag.Cmp(maxMantissa) > 0 {
		return Decimal{}, errors.Wrap(ErrInvalidDecimal, "mantissa exceeds 96 bits")
	}
	word := new(big.Int)
	mask := big.NewInt(0xffffffff)
	d := Decimal{
		Scale:    scale,
		Negative: unscaled.Sign() < 0,
	}
	d.Lo = uint32(word.And(mag, mask).Uint64())
	d.Mid = uint32(word.And(word.Rsh(mag, 32), mask).Uint64())
	d.Hi = uint32(word.And(word.Rsh(mag, 64), mask).Uint64())
	return d, nil
}

// ParseDecimal parses a plain decimal literal such as "-12.345".
func ParseDecimal(s string) (Decimal, error) {
	str := strings.TrimSpace(s)
	neg := false
	switch {
	case strings.HasPrefix(str, "-"):
		neg = true
		str = str[1:]
	case strings.HasPrefix(str, "+"):
		str = str[1:]
	}
	intPart, fracPart := str, ""
	if i := strings.IndexByte(str, '.'); i >= 0 {
		intPart, fracPart = str[:i], str[i+1:]
	}
	digits := intPart + fracPart
	if digits == "" || strings.Trim(digits, "0123456789") != "" {
		return Decimal{}, errors.Wrapf(ErrInvalidDecimal, "cannot parse %q", s)
	}
	if len(fracPart) > MaxDecimalScale {
		return Decimal{}, errors.Wrapf(ErrInvalidDecimal, "too many fractional digits in %q", s)
	}
	unscaled, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Decimal{}, errors.Wrapf(ErrInvalidDecimal, "cannot parse %q", s)
	}
	if neg {
		unscaled.Neg(unscaled)
	}
	return NewDecimal(unscaled, uint8(len(fracPart)))
}

// MustParseDecimal is like ParseDecimal but panics on error.
func MustParseDecimal(s string) Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Big returns the signed unscaled value and the scale.
func (d Decimal) Big() (*big.Int, uint8) {
	v := new(big.Int).SetUint64(uint64(d.Hi))
	v.Lsh(v, 32).Or(v, new(big.Int).SetUint64(uint64(d.Mid)))
	v.Lsh(v, 32).Or(v, new(big.Int).SetUint64(uint64(d.Lo)))
	if d.Negative {
		v.Neg(v)
	}
	return v, d.Scale
}

func (d Decimal) IsZero() bool {
	return d.Lo == 0 && d.Mid == 0 && d.Hi == 0
}

func (d Decimal) String() string {
	v, scale := d.Big()
	digits := new(big.Int).Abs(v).String()
	if scale > 0 {
		if len(digits) <= int(scale) {
			digits = strings.Repeat("0", int(scale)-len(digits)+1) + digits
		}
		point := len(digits) - int(scale)
		digits = digits[:point] + "." + digits[point:]
	}
	if d.Negative && !d.IsZero() {
		return "-" + digits
	}
	return digits
}

func (d Decimal) flags() uint32 {
	f := uint32(d.Scale) << decimalScaleShift
	if d.Negative {
		f |= decimalSignMask
	}
	return f
}

type decimalCodec struct{}

func (decimalCodec) Type() reflect.Type { return decimalType }

func (decimalCodec) WriteManifest(w io.Writer, s *Session) error {
	return writeByte(w, TagDecimal, s)
}

func (decimalCodec) WriteValue(w io.Writer, v reflect.Value, s *Session) error {
	d := v.Interface().(Decimal)
	if d.Scale > MaxDecimalScale {
		return errors.Wrapf(ErrInvalidDecimal, "scale %d exceeds %d", d.Scale, MaxDecimalScale)
	}
	for _, word := range [4]uint32{d.Lo, d.Mid, d.Hi, d.flags()} {
		if err := writeUint32(w, word, s); err != nil {
			return err
		}
	}
	return nil
}

func (decimalCodec) ReadValue(r io.Reader, s *Session) (reflect.Value, error) {
	var words [4]uint32
	for i := range words {
		word, err := readUint32(r, s)
		if err != nil {
			return reflect.Value{}, err
		}
		words[i] = word
	}
	flags := words[3]
	if flags&^(decimalScaleMask|decimalSignMask) != 0 {
		return reflect.Value{}, errors.Wrapf(ErrInvalidDecimal, "reserved flag bits set in %#x", flags)
	}
	scale := uint8((flags & decimalScaleMask) >> decimalScaleShift)
	if scale > MaxDecimalScale {
		return reflect.Value{}, errors.Wrapf(ErrInvalidDecimal, "scale %d exceeds %d", scale, MaxDecimalScale)
	}
	return reflect.ValueOf(Decimal{
		Lo:       words[0],
		Mid:      words[1],
		Hi:       words[2],
		Scale:    scale,
		Negative: flags&decimalSignMask != 0,
	}), nil
}

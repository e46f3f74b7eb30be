package gwire

import (
	"reflect"

	"github.com/pkg/errors"
)

// assign stores src into dst. Decoded values do not always have the exact
// destination type: integers come back at their wire width, arrays as
// slices and named scalars as their underlying kind. Those cases are
// converted; anything lossy is an AssignError.
func assign(dst, src reflect.Value) error {
	if !src.IsValid() {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	st, dt := src.Type(), dst.Type()
	if st.AssignableTo(dt) {
		dst.Set(src)
		return nil
	}
	if src.Kind() == reflect.Interface {
		if src.IsNil() {
			dst.Set(reflect.Zero(dt))
			return nil
		}
		return assign(dst, src.Elem())
	}
	if st.Kind() == reflect.Ptr && dt.Kind() != reflect.Ptr && dt.Kind() != reflect.Interface {
		if src.IsNil() {
			dst.Set(reflect.Zero(dt))
			return nil
		}
		return assign(dst, src.Elem())
	}

	switch dt.Kind() {
	case reflect.Ptr:
		if st.Kind() != reflect.Ptr {
			p := reflect.New(dt.Elem())
			if err := assign(p.Elem(), src); err != nil {
				return err
			}
			dst.Set(p)
			return nil
		}
	case reflect.Slice:
		if st.Kind() == reflect.Slice || st.Kind() == reflect.Array {
			n := src.Len()
			out := reflect.MakeSlice(dt, n, n)
			for i := 0; i < n; i++ {
				if err := assign(out.Index(i), src.Index(i)); err != nil {
					return errors.Wrapf(err, "element %d", i)
				}
			}
			dst.Set(out)
			return nil
		}
	case reflect.Array:
		if st.Kind() == reflect.Slice || st.Kind() == reflect.Array {
			if src.Len() != dt.Len() {
				return errors.Wrapf(&AssignError{From: st, To: dt}, "length %d", src.Len())
			}
			out := reflect.New(dt).Elem()
			for i := 0; i < dt.Len(); i++ {
				if err := assign(out.Index(i), src.Index(i)); err != nil {
					return errors.Wrapf(err, "element %d", i)
				}
			}
			dst.Set(out)
			return nil
		}
	case reflect.Map:
		if st.Kind() == reflect.Map {
			out := reflect.MakeMapWithSize(dt, src.Len())
			iter := src.MapRange()
			for iter.Next() {
				k, err := convertTo(iter.Key(), dt.Key())
				if err != nil {
					return err
				}
				v, err := convertTo(iter.Value(), dt.Elem())
				if err != nil {
					return err
				}
				out.SetMapIndex(k, v)
			}
			dst.Set(out)
			return nil
		}
	}

	if sameFamily(st.Kind(), dt.Kind()) && st.ConvertibleTo(dt) {
		dst.Set(src.Convert(dt))
		return nil
	}
	return &AssignError{From: st, To: dt}
}

// convertTo returns src as a new value of type t.
func convertTo(src reflect.Value, t reflect.Type) (reflect.Value, error) {
	if src.IsValid() && src.Type() == t {
		return src, nil
	}
	dst := reflect.New(t).Elem()
	if err := assign(dst, src); err != nil {
		return reflect.Value{}, err
	}
	return dst, nil
}

type kindFamily int

const (
	familyNone kindFamily = iota
	familyBool
	familyInt
	familyUint
	familyFloat
	familyString
	familyStruct
)

func familyOf(k reflect.Kind) kindFamily {
	switch k {
	case reflect.Bool:
		return familyBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return familyInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return familyUint
	case reflect.Float32, reflect.Float64:
		return familyFloat
	case reflect.String:
		return familyString
	case reflect.Struct:
		return familyStruct
	}
	return familyNone
}

// sameFamily reports whether a conversion between the kinds keeps the
// meaning of the value, so int64 to int is allowed and int to string is not.
func sameFamily(a, b reflect.Kind) bool {
	fa := familyOf(a)
	return fa != familyNone && fa == familyOf(b)
}

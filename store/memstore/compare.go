package memstore

import (
	"cmp"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// compare orders two column values of the same kind. Integers and floats of
// any width compare numerically with each other.
func compare(a, b any) (int, error) {
	switch at := a.(type) {
	case time.Time:
		bt, ok := b.(time.Time)
		if !ok {
			return 0, mismatch(a, b)
		}
		return at.Compare(bt), nil
	case string:
		bt, ok := b.(string)
		if !ok {
			return 0, mismatch(a, b)
		}
		return strings.Compare(at, bt), nil
	case bool:
		bt, ok := b.(bool)
		if !ok {
			return 0, mismatch(a, b)
		}
		switch {
		case at == bt:
			return 0, nil
		case !at:
			return -1, nil
		default:
			return 1, nil
		}
	}

	af, aok := number(a)
	bf, bok := number(b)
	if !aok || !bok {
		return 0, mismatch(a, b)
	}

	return cmp.Compare(af, bf), nil
}

func number(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

func mismatch(a, b any) error {
	return fmt.Errorf("cannot compare %T with %T", a, b)
}

// contains reports whether the slice list holds an element equal to v.
func contains(list, v any) (bool, error) {
	rv := reflect.ValueOf(list)
	if rv.Kind() != reflect.Slice {
		return false, fmt.Errorf("value of type %T is not a list", list)
	}

	for i := range rv.Len() {
		c, err := compare(rv.Index(i).Interface(), v)
		if err != nil {
			return false, err
		}
		if c == 0 {
			return true, nil
		}
	}

	return false, nil
}

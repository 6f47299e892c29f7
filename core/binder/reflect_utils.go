package binder

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeFor[time.Duration]()

// structFields walks the settable fields of the struct v points to and calls
// set with the source name taken from tag. Fields tagged "-" are skipped;
// untagged fields use their lowercased name.
func structFields(v any, tag string, set func(name string, field reflect.Value, sf reflect.StructField) error) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New("target must be a non-nil pointer")
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return errors.New("target must be a pointer to struct")
	}

	rt := rv.Type()
	for i := range rt.NumField() {
		sf := rt.Field(i)
		field := rv.Field(i)
		if !field.CanSet() {
			continue
		}

		name, _, _ := strings.Cut(sf.Tag.Get(tag), ",")
		switch name {
		case "-":
			continue
		case "":
			name = strings.ToLower(sf.Name)
		}

		if err := set(name, field, sf); err != nil {
			return fmt.Errorf("field %s: %w", sf.Name, err)
		}
	}
	return nil
}

// bindValues fills struct fields from a multi-valued source such as a query string.
func bindValues(v any, tag string, values map[string][]string) error {
	return structFields(v, tag, func(name string, field reflect.Value, sf reflect.StructField) error {
		vals := values[name]
		if len(vals) == 0 {
			return nil
		}
		return setValue(field, sf.Type, vals)
	})
}

func setValue(field reflect.Value, typ reflect.Type, vals []string) error {
	switch typ.Kind() {
	case reflect.Pointer:
		if field.IsNil() {
			field.Set(reflect.New(typ.Elem()))
		}
		return setValue(field.Elem(), typ.Elem(), vals)
	case reflect.Slice:
		var parts []string
		for _, v := range vals {
			for p := range strings.SplitSeq(v, ",") {
				parts = append(parts, strings.TrimSpace(p))
			}
		}
		slice := reflect.MakeSlice(typ, len(parts), len(parts))
		for i, p := range parts {
			if err := setScalar(slice.Index(i), typ.Elem(), p); err != nil {
				return err
			}
		}
		field.Set(slice)
		return nil
	default:
		return setScalar(field, typ, vals[0])
	}
}

func setScalar(field reflect.Value, typ reflect.Type, s string) error {
	// Durations accept both "5s" and a bare millisecond count.
	if typ == durationType {
		d, err := parseDuration(s)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch typ.Kind() {
	case reflect.String:
		field.SetString(strings.Map(dropControl, s))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, typ.Bits())
		if err != nil {
			return fmt.Errorf("invalid integer %q", s)
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, typ.Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer %q", s)
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(s, typ.Bits())
		if err != nil {
			return fmt.Errorf("invalid number %q", s)
		}
		field.SetFloat(n)
	case reflect.Bool:
		b, err := parseBool(s)
		if err != nil {
			return err
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported type %s", typ)
	}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

// parseBool treats a bare flag (?wait) as true.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "1", "t", "true", "yes", "on":
		return true, nil
	case "0", "f", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

func dropControl(r rune) rune {
	if r < ' ' && r != '\t' || r == 0x7f {
		return -1
	}
	return r
}

package theme

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"reflect"
	"strings"

	"github.com/example/snapmark/internal/colour"
)

var rgbaType = reflect.TypeOf(color.RGBA{})

// Parse reads a theme definition from r. Each line is "Key: colour" or
// "Key = colour"; keys are matched case-insensitively and unknown keys are
// ignored.
func Parse(r io.Reader) (*Theme, error) {
	t := Default()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if eqKey, eqValue, eqOK := strings.Cut(line, "="); eqOK && (!ok || len(eqKey) < len(key)) {
			key, value, ok = eqKey, eqValue, true
		}
		if !ok {
			continue
		}
		if err := t.Set(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return nil, err
		}
	}
	return t, scanner.Err()
}

// Set assigns one field by name. Colours accept anything colour.Parse
// does.
func (t *Theme) Set(key, value string) error {
	if strings.EqualFold(key, "Name") {
		t.Name = value
		return nil
	}
	val := reflect.ValueOf(t).Elem()
	field := val.FieldByNameFunc(func(name string) bool { return strings.EqualFold(name, key) })
	if !field.IsValid() || field.Type() != rgbaType {
		return nil
	}
	c, err := colour.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid colour for key %s: %w", key, err)
	}
	field.Set(reflect.ValueOf(color.RGBAModel.Convert(c).(color.RGBA)))
	return nil
}

// Field is a named theme colour.
type Field struct {
	Name  string
	Value color.RGBA
}

// Fields lists the colours in declaration order.
func (t *Theme) Fields() []Field {
	val := reflect.ValueOf(t).Elem()
	typ := val.Type()
	var fields []Field
	for i := 0; i < typ.NumField(); i++ {
		if typ.Field(i).Type != rgbaType {
			continue
		}
		fields = append(fields, Field{Name: typ.Field(i).Name, Value: val.Field(i).Interface().(color.RGBA)})
	}
	return fields
}

// Format renders a theme colour the way Parse reads it back.
func Format(c color.RGBA) string {
	return colour.FromColor(c).String()
}

// WriteTo writes the theme in the format Parse reads.
func (t *Theme) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Name: %s\n", t.Name)
	for _, f := range t.Fields() {
		fmt.Fprintf(&sb, "%s: %s\n", f.Name, Format(f.Value))
	}
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

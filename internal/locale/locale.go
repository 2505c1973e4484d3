// Package locale provides the localized symbols the calculator displays.
//
// Operator glyphs, function names and error strings come from an embedded
// YAML table keyed by base language. Digit glyphs and the decimal separator
// are derived from the locale's number formatting rules, so a tag such as
// "ar-EG" yields Arabic-Indic digits unless latin digits are forced.
package locale

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
	"gopkg.in/yaml.v3"
)

// DefaultTag is used when no locale is configured or the configured one
// cannot be parsed.
const DefaultTag = "en"

// ErrInvalidTag is returned when a locale tag cannot be parsed.
var ErrInvalidTag = errors.New("invalid locale tag")

//go:embed strings.yaml
var stringsYAML []byte

// table is the parsed form of strings.yaml.
type table struct {
	OpDiv       string            `yaml:"op_div"`
	OpMul       string            `yaml:"op_mul"`
	OpSub       string            `yaml:"op_sub"`
	Inf         string            `yaml:"inf"`
	Functions   map[string]string `yaml:"functions"`
	ErrorSyntax string            `yaml:"error_syntax"`
	ErrorNaN    string            `yaml:"error_nan"`
}

var (
	tablesOnce sync.Once
	tables     map[string]table
	tablesErr  error
)

func loadTables() (map[string]table, error) {
	tablesOnce.Do(func() {
		tablesErr = yaml.Unmarshal(stringsYAML, &tables)
		if tablesErr == nil {
			if _, ok := tables[DefaultTag]; !ok {
				tablesErr = fmt.Errorf("locale table missing %q", DefaultTag)
			}
		}
	})
	return tables, tablesErr
}

// Resources holds every localized string the tokenizer and evaluator need.
type Resources struct {
	// Tag is the resolved locale.
	Tag language.Tag

	// Digits holds the glyphs for 0 through 9.
	Digits [10]string

	// DecimalSeparator is the localized decimal point.
	DecimalSeparator string

	// ArgumentSeparator separates function arguments. It is ";" where the
	// decimal separator is a comma.
	ArgumentSeparator string

	// OpDiv, OpMul and OpSub are the displayed operator glyphs.
	OpDiv string
	OpMul string
	OpSub string

	// Infinity is the displayed infinity symbol.
	Infinity string

	// Functions maps canonical function names (sin, cos, tan, ln, log)
	// to their displayed names.
	Functions map[string]string

	// ErrorSyntax and ErrorNaN are shown in place of a result.
	ErrorSyntax string
	ErrorNaN    string
}

// Load resolves resources for tag. When localizedDigits is false the
// numbering system is forced to latin digits.
func Load(tag string, localizedDigits bool) (*Resources, error) {
	if tag == "" {
		tag = DefaultTag
	}
	t, err := language.Parse(tag)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidTag, tag, err)
	}
	if !localizedDigits {
		if forced, err := t.SetTypeForKey("nu", "latn"); err == nil {
			t = forced
		}
	}

	tbls, err := loadTables()
	if err != nil {
		return nil, fmt.Errorf("loading locale table: %w", err)
	}

	base, _ := t.Base()
	tbl, ok := tbls[base.String()]
	if !ok {
		tbl = tbls[DefaultTag]
	}

	res := &Resources{
		Tag:         t,
		OpDiv:       tbl.OpDiv,
		OpMul:       tbl.OpMul,
		OpSub:       tbl.OpSub,
		Infinity:    tbl.Inf,
		Functions:   make(map[string]string, len(tbl.Functions)),
		ErrorSyntax: tbl.ErrorSyntax,
		ErrorNaN:    tbl.ErrorNaN,
	}
	for k, v := range tbl.Functions {
		res.Functions[k] = v
	}
	res.fillNumberSymbols()
	res.fillDefaults(tbls[DefaultTag])

	return res, nil
}

// MustLoad is like Load but panics on error. Intended for tests and for
// the built-in default locale.
func MustLoad(tag string, localizedDigits bool) *Resources {
	res, err := Load(tag, localizedDigits)
	if err != nil {
		panic(err)
	}
	return res
}

// fillNumberSymbols formats sample numbers with the locale's rules and
// reads back the digit glyphs and decimal separator.
func (r *Resources) fillNumberSymbols() {
	p := message.NewPrinter(r.Tag)
	for i := range r.Digits {
		d := p.Sprintf("%v", number.Decimal(i))
		if len([]rune(d)) != 1 {
			d = string(rune('0' + i))
		}
		r.Digits[i] = d
	}

	sample := p.Sprintf("%v", number.Decimal(1.5))
	sep := strings.TrimSuffix(strings.TrimPrefix(sample, r.Digits[1]), r.Digits[5])
	if sep == "" || sep == sample {
		sep = "."
	}
	r.DecimalSeparator = sep

	r.ArgumentSeparator = ","
	if sep == "," {
		r.ArgumentSeparator = ";"
	}
}

// fillDefaults backfills anything a partial table entry left empty.
func (r *Resources) fillDefaults(def table) {
	if r.OpDiv == "" {
		r.OpDiv = def.OpDiv
	}
	if r.OpMul == "" {
		r.OpMul = def.OpMul
	}
	if r.OpSub == "" {
		r.OpSub = def.OpSub
	}
	if r.Infinity == "" {
		r.Infinity = def.Inf
	}
	if r.ErrorSyntax == "" {
		r.ErrorSyntax = def.ErrorSyntax
	}
	if r.ErrorNaN == "" {
		r.ErrorNaN = def.ErrorNaN
	}
	for k, v := range def.Functions {
		if _, ok := r.Functions[k]; !ok {
			r.Functions[k] = v
		}
	}
}

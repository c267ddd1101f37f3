// Package formatters maps raw cell values to display strings.
// No formatter panics or fails; malformed input degrades to the raw
// value or an empty string.
package formatters

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"anyTables/types"
	"anyTables/utils"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	DefaultDatePattern = "MMM d, yyyy"
	DefaultCurrency    = "USD"
	DefaultLocale      = "en-US"
)

// Options carries the locale defaults applied by Format.
type Options struct {
	Locale      string
	Currency    string
	DatePattern string
	Decimals    int
}

func DefaultOptions() Options {
	return Options{
		Locale:      DefaultLocale,
		Currency:    DefaultCurrency,
		DatePattern: DefaultDatePattern,
	}
}

type formatFunc func(o Options, v any) string

var dispatch = map[types.FormatKind]formatFunc{
	types.FormatNone: func(_ Options, v any) string { return utils.Stringify(v) },
	types.FormatDate: func(o Options, v any) string { return FormatDate(v, o.DatePattern) },
	types.FormatCurrency: func(o Options, v any) string {
		return FormatCurrency(v, o.Currency, o.Locale)
	},
	types.FormatPercentage: func(o Options, v any) string {
		return FormatPercentage(v, o.Decimals, o.Locale)
	},
	types.FormatFileSize: func(_ Options, v any) string { return FormatFileSize(v) },
	types.FormatPhone:    func(_ Options, v any) string { return FormatPhoneNumber(utils.Stringify(v)) },
}

// Format renders v with the formatter registered for kind.
func (o Options) Format(kind types.FormatKind, v any) string {
	fn, ok := dispatch[kind]
	if !ok {
		fn = dispatch[types.FormatNone]
	}
	return fn(o, v)
}

// Format renders v with default options.
func Format(kind types.FormatKind, v any) string {
	return DefaultOptions().Format(kind, v)
}

var isoLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// ParseISO strictly parses ISO-8601 dates and date-times. Values without
// a zone are read as UTC.
func ParseISO(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a time or ISO-8601 string using a date-fns style
// pattern such as "MMM d, yyyy". Unparseable input is returned as-is.
func FormatDate(v any, pattern string) string {
	if pattern == "" {
		pattern = DefaultDatePattern
	}
	var t time.Time
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		t = x
	case *time.Time:
		if x == nil {
			return ""
		}
		t = *x
	case string:
		if strings.TrimSpace(x) == "" {
			return ""
		}
		p, ok := ParseISO(x)
		if !ok {
			return x
		}
		t = p
	default:
		return utils.Stringify(v)
	}
	return renderPattern(t, pattern)
}

func localeTag(locale string) language.Tag {
	if locale == "" {
		locale = DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.AmericanEnglish
	}
	return tag
}

// symbolAfter lists languages that write the currency symbol after the
// amount, separated by a no-break space.
var symbolAfter = map[string]bool{
	"cs": true, "da": true, "de": true, "es": true, "fi": true, "fr": true,
	"hu": true, "it": true, "nb": true, "pl": true, "pt": true, "ru": true,
	"sk": true, "sv": true, "uk": true,
}

// symbolBefore overrides symbolAfter for regional variants.
var symbolBefore = map[string]bool{"de-CH": true, "pt-BR": true}

func suffixSymbol(tag language.Tag) bool {
	if symbolBefore[tag.String()] {
		return false
	}
	base, _ := tag.Base()
	return symbolAfter[base.String()]
}

// FormatCurrency renders v as a currency amount with the minor-unit scale
// of the ISO 4217 code. The symbol goes before or after the amount as the
// locale writes it. Non-numeric input yields "".
func FormatCurrency(v any, code, locale string) string {
	f, ok := utils.ToFloat(v)
	if !ok {
		return ""
	}
	if code == "" {
		code = DefaultCurrency
	}
	tag := localeTag(locale)
	p := message.NewPrinter(tag)
	unit, err := currency.ParseISO(code)
	if err != nil {
		return p.Sprintf("%v %v", strings.ToUpper(code), number.Decimal(f, number.Scale(2)))
	}
	scale, _ := currency.Standard.Rounding(unit)
	amount := decimal.NewFromFloat(f).Round(int32(scale))
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}
	symbol := p.Sprint(currency.Symbol(unit))
	digits := p.Sprint(number.Decimal(amount.InexactFloat64(), number.Scale(scale)))
	if suffixSymbol(tag) {
		return sign + digits + "\u00a0" + symbol
	}
	return sign + symbol + digits
}

// FormatPercentage treats v as already scaled by 100: 42 renders as "42%".
func FormatPercentage(v any, decimals int, locale string) string {
	f, ok := utils.ToFloat(v)
	if !ok {
		return ""
	}
	if decimals < 0 {
		decimals = 0
	}
	rounded := decimal.NewFromFloat(f).Round(int32(decimals)).InexactFloat64()
	p := message.NewPrinter(localeTag(locale))
	return p.Sprint(number.Percent(rounded/100, number.Scale(decimals)))
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// FormatFileSize picks the largest unit that keeps the mantissa at or
// above 1 and rounds it to two decimals.
func FormatFileSize(v any) string {
	bytes, ok := utils.ToFloat(v)
	if !ok || bytes <= 0 {
		return "0 Bytes"
	}
	i := 0
	for bytes >= 1024 && i < len(sizeUnits)-1 {
		bytes /= 1024
		i++
	}
	return decimal.NewFromFloat(bytes).Round(2).String() + " " + sizeUnits[i]
}

var nonDigit = regexp.MustCompile(`\D`)

// FormatPhoneNumber formats 10-digit and 1-prefixed 11-digit numbers.
// Anything else is returned unchanged.
func FormatPhoneNumber(s string) string {
	d := nonDigit.ReplaceAllString(s, "")
	switch {
	case len(d) == 10:
		return "(" + d[:3] + ") " + d[3:6] + "-" + d[6:]
	case len(d) == 11 && d[0] == '1':
		return "+1 (" + d[1:4] + ") " + d[4:7] + "-" + d[7:]
	default:
		return s
	}
}

// renderPattern expands date-fns tokens. Text in single quotes is literal.
func renderPattern(t time.Time, pattern string) string {
	var sb strings.Builder
	rs := []rune(pattern)
	for i := 0; i < len(rs); {
		c := rs[i]
		if c == '\'' {
			j := i + 1
			for j < len(rs) && rs[j] != '\'' {
				j++
			}
			if j == i+1 && j < len(rs) {
				sb.WriteRune('\'')
			} else {
				sb.WriteString(string(rs[i+1 : j]))
			}
			i = j + 1
			continue
		}
		n := 1
		for i+n < len(rs) && rs[i+n] == c {
			n++
		}
		sb.WriteString(token(t, c, n))
		i += n
	}
	return sb.String()
}

func token(t time.Time, c rune, n int) string {
	pad := func(v int) string {
		s := strconv.Itoa(v)
		for len(s) < n {
			s = "0" + s
		}
		return s
	}
	switch c {
	case 'y':
		if n == 2 {
			return t.Format("06")
		}
		return pad(t.Year())
	case 'M':
		switch {
		case n >= 4:
			return t.Month().String()
		case n == 3:
			return t.Format("Jan")
		default:
			return pad(int(t.Month()))
		}
	case 'd':
		return pad(t.Day())
	case 'E':
		if n >= 4 {
			return t.Weekday().String()
		}
		return t.Format("Mon")
	case 'H':
		return pad(t.Hour())
	case 'h':
		h := t.Hour() % 12
		if h == 0 {
			h = 12
		}
		return pad(h)
	case 'm':
		return pad(t.Minute())
	case 's':
		return pad(t.Second())
	case 'a':
		return t.Format("PM")
	default:
		return strings.Repeat(string(c), n)
	}
}

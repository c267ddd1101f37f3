package formatters

import (
	"math"
	"strings"
	"testing"
	"time"

	"anyTables/types"

	"github.com/stretchr/testify/assert"
)

func TestFormatDate(t *testing.T) {
	t.Run("Should format ISO date strings with the default pattern", func(t *testing.T) {
		assert.Equal(t, "Jan 15, 2024", FormatDate("2024-01-15", ""))
		assert.Equal(t, "Mar 3, 2023", FormatDate("2023-03-03T09:15:00Z", DefaultDatePattern))
	})

	t.Run("Should format time values with custom patterns", func(t *testing.T) {
		ts := time.Date(2024, time.July, 4, 14, 5, 9, 0, time.UTC)
		assert.Equal(t, "2024-07-04", FormatDate(ts, "yyyy-MM-dd"))
		assert.Equal(t, "07/04/24 02:05 PM", FormatDate(&ts, "MM/dd/yy hh:mm a"))
		assert.Equal(t, "Thursday, July 4", FormatDate(ts, "EEEE, MMMM d"))
		assert.Equal(t, "at 14:05:09", FormatDate(ts, "'at' HH:mm:ss"))
	})

	t.Run("Should return empty string for empty input", func(t *testing.T) {
		assert.Equal(t, "", FormatDate(nil, ""))
		assert.Equal(t, "", FormatDate("", ""))
		assert.Equal(t, "", FormatDate((*time.Time)(nil), ""))
	})

	t.Run("Should return unparseable input unchanged", func(t *testing.T) {
		assert.Equal(t, "next tuesday", FormatDate("next tuesday", ""))
		assert.Equal(t, "2024-13-45", FormatDate("2024-13-45", ""))
		assert.Equal(t, "42", FormatDate(42, ""))
	})
}

func TestFormatCurrency(t *testing.T) {
	t.Run("Should format US dollars with grouping and cents", func(t *testing.T) {
		assert.Equal(t, "$1,250.00", FormatCurrency(1250, "USD", "en-US"))
		assert.Equal(t, "$0.50", FormatCurrency(0.5, "", ""))
		assert.Equal(t, "-$1,250.00", FormatCurrency(-1250.0, "USD", "en-US"))
	})

	t.Run("Should place the symbol after the amount where the locale does", func(t *testing.T) {
		assert.Equal(t, "1.250,00\u00a0€", FormatCurrency(1250, "EUR", "de-DE"))
		assert.Equal(t, "-1.250,00\u00a0€", FormatCurrency(-1250, "EUR", "de-DE"))
		fr := FormatCurrency(1250, "EUR", "fr-FR")
		assert.True(t, strings.HasPrefix(fr, "1"), fr)
		assert.True(t, strings.HasSuffix(fr, ",00\u00a0€"), fr)
	})

	t.Run("Should return empty string for nil and NaN", func(t *testing.T) {
		assert.Equal(t, "", FormatCurrency(nil, "USD", "en-US"))
		assert.Equal(t, "", FormatCurrency(math.NaN(), "USD", "en-US"))
		assert.Equal(t, "", FormatCurrency("n/a", "USD", "en-US"))
	})
}

func TestFormatPercentage(t *testing.T) {
	t.Run("Should treat input as already scaled by 100", func(t *testing.T) {
		assert.Equal(t, "42%", FormatPercentage(42, 0, ""))
		assert.Equal(t, "42.5%", FormatPercentage(42.5, 1, "en-US"))
	})

	t.Run("Should return empty string for invalid input", func(t *testing.T) {
		assert.Equal(t, "", FormatPercentage(nil, 0, ""))
		assert.Equal(t, "", FormatPercentage(math.NaN(), 2, ""))
	})
}

func TestFormatFileSize(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{0, "0 Bytes"},
		{nil, "0 Bytes"},
		{-5, "0 Bytes"},
		{500, "500 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1048576, "1 MB"},
		{int64(5) * 1024 * 1024 * 1024, "5 GB"},
		{1234567, "1.18 MB"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatFileSize(tc.in), "%v", tc.in)
	}
}

func TestFormatPhoneNumber(t *testing.T) {
	t.Run("Should format ten digit numbers", func(t *testing.T) {
		assert.Equal(t, "(555) 123-4567", FormatPhoneNumber("5551234567"))
		assert.Equal(t, "(555) 123-4567", FormatPhoneNumber("555.123.4567"))
	})

	t.Run("Should format eleven digit numbers with a leading 1", func(t *testing.T) {
		assert.Equal(t, "+1 (555) 123-4567", FormatPhoneNumber("15551234567"))
	})

	t.Run("Should leave other inputs unchanged", func(t *testing.T) {
		assert.Equal(t, "123", FormatPhoneNumber("123"))
		assert.Equal(t, "25551234567", FormatPhoneNumber("25551234567"))
		assert.Equal(t, "ext. 4412", FormatPhoneNumber("ext. 4412"))
	})
}

func TestFormatDispatch(t *testing.T) {
	t.Run("Should route each kind to its formatter", func(t *testing.T) {
		assert.Equal(t, "Jan 15, 2024", Format(types.FormatDate, "2024-01-15"))
		assert.Equal(t, "$1,250.00", Format(types.FormatCurrency, 1250))
		assert.Equal(t, "42%", Format(types.FormatPercentage, 42))
		assert.Equal(t, "1.5 KB", Format(types.FormatFileSize, 1536))
		assert.Equal(t, "(555) 123-4567", Format(types.FormatPhone, "5551234567"))
		assert.Equal(t, "raw", Format(types.FormatNone, "raw"))
	})

	t.Run("Should fall back to plain rendering for unknown kinds", func(t *testing.T) {
		assert.Equal(t, "7", Format(types.FormatKind(99), 7))
		assert.Equal(t, "", Format(types.FormatKind(99), nil))
	})

	t.Run("Should apply option overrides", func(t *testing.T) {
		o := DefaultOptions()
		o.DatePattern = "yyyy/MM/dd"
		o.Decimals = 1
		assert.Equal(t, "2024/01/15", o.Format(types.FormatDate, "2024-01-15"))
		assert.Equal(t, "12.3%", o.Format(types.FormatPercentage, 12.34))
	})
}

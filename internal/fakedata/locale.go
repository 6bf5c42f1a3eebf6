package fakedata

import (
	"os"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Locale formats dates and times for typing into inputs. It implements
// fill.Locale.
type Locale struct {
	Tag        language.Tag
	DateLayout string
	TimeLayout string
}

var (
	monthFirst = map[string]bool{"US": true, "PH": true, "FM": true, "MH": true, "PW": true, "BZ": true}
	yearFirst  = map[string]bool{
		"CN": true, "JP": true, "KR": true, "TW": true, "HU": true, "LT": true,
		"SE": true, "MN": true, "IR": true, "CA": true, "ZA": true,
	}
	dotted = map[string]bool{
		"DE": true, "AT": true, "CH": true, "RU": true, "PL": true, "CZ": true, "SK": true,
		"FI": true, "NO": true, "DK": true, "UA": true, "TR": true, "RO": true, "HR": true,
		"BG": true, "EE": true, "LV": true, "RS": true, "SI": true, "BY": true, "KZ": true,
	}
	twelveHour = map[string]bool{
		"US": true, "CA": true, "AU": true, "NZ": true, "PH": true, "IN": true,
		"PK": true, "EG": true, "SA": true, "BD": true, "MX": true, "CO": true,
	}
)

// NewLocale resolves a BCP 47 tag such as "en-GB" or a POSIX locale such as
// "de_DE.UTF-8". Unparseable input falls back to American English.
func NewLocale(tag string) Locale {
	t, err := language.Parse(posixToBCP47(tag))
	if err != nil || t == language.Und {
		t = language.AmericanEnglish
	}
	region, _ := t.Region()
	r := region.String()

	loc := Locale{Tag: t, DateLayout: "02/01/2006", TimeLayout: "15:04"}
	switch {
	case monthFirst[r]:
		loc.DateLayout = "01/02/2006"
	case yearFirst[r]:
		loc.DateLayout = "2006-01-02"
	case dotted[r]:
		loc.DateLayout = "02.01.2006"
	}
	if twelveHour[r] {
		loc.TimeLayout = "03:04 PM"
	}
	return loc
}

// SystemLocale reads the locale from the usual environment variables
func SystemLocale() Locale {
	for _, key := range []string{"LC_ALL", "LC_TIME", "LANG"} {
		if v := os.Getenv(key); v != "" && v != "C" && v != "POSIX" {
			return NewLocale(v)
		}
	}
	return NewLocale("en-US")
}

func posixToBCP47(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	return strings.ReplaceAll(s, "_", "-")
}

// FormatDate renders t with the locale's numeric date layout
func (l Locale) FormatDate(t time.Time) string {
	return t.Format(l.DateLayout)
}

// FormatTime renders the two-digit hour and minute of t
func (l Locale) FormatTime(t time.Time) string {
	return t.Format(l.TimeLayout)
}

func (l Locale) String() string {
	return l.Tag.String()
}

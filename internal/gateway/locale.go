package gateway

// countryToLocale translates billing countries to checkout locales.
var countryToLocale = map[string]string{
	"DE": "de_DE",
	"AT": "de_AT",
	"NL": "nl_NL",
	"FR": "fr_FR",
	"BE": "fr_BE",
	"UK": "en_US",
	"SE": "sv_SE",
	"PT": "pt_PT",
	"IT": "it_IT",
	"CH": "de_CH",
	"ES": "es_ES",
}

// LocaleForCountry returns the checkout locale for a country code, defaulting
// to fr_BE when the country is not mapped.
func LocaleForCountry(country string) string {
	if locale, ok := countryToLocale[country]; ok {
		return locale
	}
	return "fr_BE"
}

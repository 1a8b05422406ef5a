package orders

import "strings"

// TransliterateDigits maps Persian and Arabic-Indic digits to their Latin
// equivalents. Everything else passes through unchanged.
func TransliterateDigits(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		}
		return r
	}, s)
}

// NormalizePhone cleans a phone value: digits become Latin, a trailing ".0"
// left over from numeric coercion is dropped, and a ten-digit number starting
// with 9 gets its lost leading zero back.
func NormalizePhone(raw string) string {
	phone := TransliterateDigits(strings.TrimSpace(raw))
	phone = strings.TrimSuffix(phone, ".0")
	if len(phone) == 10 && strings.HasPrefix(phone, "9") {
		phone = "0" + phone
	}
	return phone
}

// NormalizePostcode cleans a postcode the same way as a phone, minus the
// leading-zero repair.
func NormalizePostcode(raw string) string {
	postcode := TransliterateDigits(strings.TrimSpace(raw))
	return strings.TrimSuffix(postcode, ".0")
}

// RegionCity renders a destination as "state، city" with the state code
// resolved through the region table. Unknown codes pass through as-is, and a
// city matching its state collapses to the single name.
func RegionCity(regions map[string]string, state, city string) string {
	name, ok := regions[state]
	if !ok {
		name = state
	}
	name = strings.TrimSpace(name)
	city = strings.TrimSpace(city)
	if name == city {
		return name
	}
	return name + "، " + city
}

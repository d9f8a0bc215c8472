package source

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"unicode"

	"github.com/pageza/alchemorsel-v2/recommender/internal/types"
)

// IngredientKind tags which upstream shape a RawIngredient was decoded from
type IngredientKind int

const (
	// KindMalformed covers null, numbers, arrays and objects with no usable name
	KindMalformed IngredientKind = iota
	// KindText is a free-text line such as "2 cups flour"
	KindText
	// KindStructured is an object with name/amount/unit fields
	KindStructured
	// KindComponent is a Tasty section component with nested ingredient and measurements
	KindComponent
)

// RawIngredient is one upstream ingredient record resolved into a single
// tagged shape. Decoding never fails on valid JSON.
type RawIngredient struct {
	Kind     IngredientKind
	Name     string
	Amount   float64
	Unit     string
	Original string
}

type structuredIngredient struct {
	Name         string          `json:"name"`
	NameClean    string          `json:"nameClean"`
	Amount       json.RawMessage `json:"amount"`
	Quantity     json.RawMessage `json:"quantity"`
	Unit         string          `json:"unit"`
	Original     string          `json:"original"`
	OriginalText string          `json:"original_text"`
	RawText      string          `json:"raw_text"`

	Ingredient *struct {
		Name string `json:"name"`
	} `json:"ingredient"`
	Measurements []struct {
		Quantity json.RawMessage `json:"quantity"`
		Unit     struct {
			Name         string `json:"name"`
			Abbreviation string `json:"abbreviation"`
		} `json:"unit"`
	} `json:"measurements"`
}

// UnmarshalJSON resolves string, object and component shapes. Anything else
// decodes to KindMalformed.
func (r *RawIngredient) UnmarshalJSON(data []byte) error {
	*r = RawIngredient{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		*r = ParseIngredientText(s)
	case '{':
		var obj structuredIngredient
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil
		}
		*r = fromObject(obj)
	}
	return nil
}

func fromObject(obj structuredIngredient) RawIngredient {
	if obj.Ingredient != nil {
		r := RawIngredient{
			Kind:     KindComponent,
			Name:     strings.TrimSpace(obj.Ingredient.Name),
			Original: strings.TrimSpace(obj.RawText),
		}
		if len(obj.Measurements) > 0 {
			m := obj.Measurements[0]
			r.Amount, _ = parseAmount(m.Quantity)
			r.Unit = m.Unit.Abbreviation
			if r.Unit == "" {
				r.Unit = m.Unit.Name
			}
		}
		if r.Name == "" && r.Original != "" {
			parsed := ParseIngredientText(r.Original)
			r.Name = parsed.Name
		}
		if r.Name == "" {
			r.Kind = KindMalformed
		}
		return r
	}

	name := strings.TrimSpace(obj.Name)
	if name == "" {
		name = strings.TrimSpace(obj.NameClean)
	}
	original := firstNonEmpty(obj.Original, obj.OriginalText, obj.RawText)
	amountRaw := obj.Amount
	if len(amountRaw) == 0 {
		amountRaw = obj.Quantity
	}
	amount, _ := parseAmount(amountRaw)

	if name == "" {
		if original == "" {
			return RawIngredient{Kind: KindMalformed, Amount: amount, Unit: obj.Unit}
		}
		parsed := ParseIngredientText(original)
		if amount == 0 {
			amount = parsed.Amount
		}
		unit := obj.Unit
		if unit == "" {
			unit = parsed.Unit
		}
		return RawIngredient{Kind: KindStructured, Name: parsed.Name, Amount: amount, Unit: unit, Original: original}
	}

	return RawIngredient{Kind: KindStructured, Name: name, Amount: amount, Unit: strings.TrimSpace(obj.Unit), Original: original}
}

// Canonical converts the record into the shared Ingredient shape. The bool
// is false when a placeholder had to be used.
func (r RawIngredient) Canonical() (types.Ingredient, bool) {
	name := strings.TrimSpace(r.Name)
	ok := r.Kind != KindMalformed && name != ""
	if !ok {
		name = types.UnknownIngredient
	}
	original := r.Original
	if original == "" {
		original = composeOriginal(r.Amount, r.Unit, name)
	}
	return types.Ingredient{
		Name:         name,
		Amount:       r.Amount,
		Unit:         r.Unit,
		OriginalText: original,
	}, ok
}

// DecodeIngredients decodes a JSON array of loosely-typed ingredient records.
// A payload that is not an array is reported as a single malformed record.
func DecodeIngredients(data []byte) ([]types.Ingredient, int) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, 0
	}

	var raws []RawIngredient
	if err := json.Unmarshal(data, &raws); err != nil {
		ing, _ := RawIngredient{}.Canonical()
		return []types.Ingredient{ing}, 1
	}
	return CanonicalIngredients(raws)
}

// CanonicalIngredients maps raw records in order and counts placeholders
func CanonicalIngredients(raws []RawIngredient) ([]types.Ingredient, int) {
	out := make([]types.Ingredient, 0, len(raws))
	malformed := 0
	for _, raw := range raws {
		ing, ok := raw.Canonical()
		if !ok {
			malformed++
		}
		out = append(out, ing)
	}
	return out, malformed
}

var knownUnits = map[string]bool{
	"cup": true, "cups": true, "c": true,
	"tbsp": true, "tablespoon": true, "tablespoons": true, "tbs": true,
	"tsp": true, "teaspoon": true, "teaspoons": true,
	"g": true, "gram": true, "grams": true, "kg": true,
	"ml": true, "l": true, "liter": true, "liters": true,
	"oz": true, "ounce": true, "ounces": true,
	"lb": true, "lbs": true, "pound": true, "pounds": true,
	"pinch": true, "dash": true, "clove": true, "cloves": true,
	"can": true, "cans": true, "slice": true, "slices": true,
	"package": true, "pkg": true, "bunch": true, "handful": true,
	"large": true, "medium": true, "small": true,
}

// ParseIngredientText splits a free-text line into quantity, unit and name.
// A line that yields no name is KindMalformed.
func ParseIngredientText(line string) RawIngredient {
	original := strings.TrimSpace(line)
	fields := strings.Fields(original)
	r := RawIngredient{Kind: KindText, Original: original}

	i := 0
	if i < len(fields) {
		if q, ok := ParseQuantity(fields[i]); ok {
			r.Amount = q
			i++
			// mixed numbers such as "1 1/2"
			if i < len(fields) && strings.ContainsAny(fields[i], "/½¼¾⅓⅔⅛") {
				if frac, ok := ParseQuantity(fields[i]); ok && frac < 1 {
					r.Amount += frac
					i++
				}
			}
		}
	}
	if i < len(fields) && r.Amount > 0 {
		unit := strings.ToLower(strings.TrimRight(fields[i], ".,"))
		if knownUnits[unit] {
			r.Unit = unit
			i++
		}
	}
	if i < len(fields) && strings.EqualFold(fields[i], "of") {
		i++
	}

	r.Name = strings.TrimSpace(strings.Join(fields[i:], " "))
	if r.Name == "" {
		r.Kind = KindMalformed
	}
	return r
}

var vulgarFractions = map[rune]float64{
	'½': 0.5, '⅓': 1.0 / 3, '⅔': 2.0 / 3, '¼': 0.25, '¾': 0.75,
	'⅕': 0.2, '⅖': 0.4, '⅗': 0.6, '⅘': 0.8, '⅙': 1.0 / 6, '⅚': 5.0 / 6,
	'⅛': 0.125, '⅜': 0.375, '⅝': 0.625, '⅞': 0.875,
}

// ParseQuantity parses integers, decimals, "a/b", "½", "1½" and ranges like
// "2-3" (lower bound)
func ParseQuantity(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if lo, _, found := strings.Cut(s, "-"); found && lo != "" {
		s = lo
	}
	runes := []rune(s)
	if _, frac := vulgarFractions[runes[0]]; !frac && !unicode.IsDigit(runes[0]) && runes[0] != '.' {
		return 0, false
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, v >= 0
	}

	if frac, ok := vulgarFractions[runes[len(runes)-1]]; ok {
		whole := 0.0
		if len(runes) > 1 {
			w, err := strconv.Atoi(string(runes[:len(runes)-1]))
			if err != nil {
				return 0, false
			}
			whole = float64(w)
		}
		return whole + frac, true
	}

	if num, den, found := strings.Cut(s, "/"); found {
		n, nerr := strconv.Atoi(num)
		d, derr := strconv.Atoi(den)
		if nerr == nil && derr == nil && d != 0 {
			return float64(n) / float64(d), true
		}
	}
	return 0, false
}

func parseAmount(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		fields := strings.Fields(s)
		if len(fields) == 0 {
			return 0, false
		}
		total, ok := ParseQuantity(fields[0])
		if ok && len(fields) > 1 {
			if frac, fok := ParseQuantity(fields[1]); fok && frac < 1 {
				total += frac
			}
		}
		return total, ok
	}
	return 0, false
}

func composeOriginal(amount float64, unit, name string) string {
	var parts []string
	if amount > 0 {
		parts = append(parts, strconv.FormatFloat(amount, 'f', -1, 64))
	}
	if unit != "" {
		parts = append(parts, unit)
	}
	parts = append(parts, name)
	return strings.Join(parts, " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

package importer

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

var defaultTrueTokens = []string{"true", "yes", "oui", "1", "x"}
var defaultFalseTokens = []string{"false", "no", "non", "0"}

// Transformer turns raw table rows into typed field maps by applying
// the mapping rules. Transform failures are recorded on the row, not
// returned, so every row gets a shot.
type Transformer struct {
	refs   ReferenceStore
	logger *zap.Logger
}

func NewTransformer(refs ReferenceStore, logger *zap.Logger) *Transformer {
	return &Transformer{refs: refs, logger: logger}
}

// Transform maps every table row through the configured rules. Row
// indexes are file positions: the header is row 1, data starts at 2.
func (t *Transformer) Transform(ctx context.Context, table *Table, config *MappingConfig) []Row {
	rows := make([]Row, 0, len(table.Rows))
	for i, raw := range table.Rows {
		row := Row{Index: i + 2, Fields: map[string]any{}}
		for _, rule := range config.Rules {
			value, found := table.Cell(raw, rule.Column)
			if (!found || value == "") && rule.Default != "" {
				value = rule.Default
			}
			if err := t.applyRule(ctx, &row, rule, value, raw, table); err != nil {
				row.Errors = append(row.Errors, fmt.Sprintf("%s: %v", rule.Field, err))
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func (t *Transformer) applyRule(ctx context.Context, row *Row, rule FieldRule, value string, raw []string, table *Table) error {
	if IsAbsent(value) {
		// Presence is validation's concern; keep the raw token so the
		// required check can report it.
		row.Fields[rule.Field] = value
		return nil
	}

	switch rule.Transform {
	case TransformNone:
		row.Fields[rule.Field] = value
	case TransformDate:
		iso, err := reparseDate(value, rule.DateFormat)
		if err != nil {
			return err
		}
		row.Fields[rule.Field] = iso
	case TransformPhone:
		row.Fields[rule.Field] = normalizePhone(value, rule.CountryCode)
	case TransformNumber:
		n, err := parseLocaleNumber(value, rule.DecimalSeparator, rule.ThousandsSeparator)
		if err != nil {
			return err
		}
		row.Fields[rule.Field] = n
	case TransformBoolean:
		b, err := parseBoolean(value, rule.TrueTokens, rule.FalseTokens)
		if err != nil {
			return err
		}
		row.Fields[rule.Field] = b
	case TransformLookup:
		id, err := t.lookup(ctx, rule.LookupEntity, value)
		if err != nil {
			return err
		}
		row.Fields[rule.Field] = id
	case TransformFormula:
		n, err := evalFormula(rule.Formula, raw, table)
		if err != nil {
			return err
		}
		row.Fields[rule.Field] = n
	case TransformNameSplit:
		first, last := splitName(value)
		// The mapped field keeps the raw value so a required check on
		// the full-name column still sees it.
		row.Fields[rule.Field] = value
		row.Fields["first_name"] = first
		row.Fields["last_name"] = last
	default:
		return fmt.Errorf("unknown transform %q", rule.Transform)
	}
	return nil
}

func (t *Transformer) lookup(ctx context.Context, entity, query string) (string, error) {
	switch entity {
	case "product":
		product, err := t.refs.FindProductFuzzy(ctx, query)
		if err != nil {
			return "", err
		}
		if product == nil {
			return "", fmt.Errorf("no product matches %q", query)
		}
		return product.ID, nil
	case "expert":
		expert, err := t.refs.FindExpertFuzzy(ctx, query)
		if err != nil {
			return "", err
		}
		if expert == nil {
			return "", fmt.Errorf("no expert matches %q", query)
		}
		return expert.ID, nil
	default:
		return "", fmt.Errorf("unknown lookup entity %q", entity)
	}
}

// layoutTokens maps spreadsheet-style date pattern tokens to Go
// reference-time fragments. Longest tokens first so MM never eats YYYY.
var layoutTokens = []struct{ from, to string }{
	{"YYYY", "2006"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"HH", "15"},
	{"mm", "04"},
	{"ss", "05"},
}

func reparseDate(value, pattern string) (string, error) {
	if pattern == "" {
		pattern = "DD/MM/YYYY"
	}
	layout := pattern
	for _, tok := range layoutTokens {
		layout = strings.ReplaceAll(layout, tok.from, tok.to)
	}
	parsed, err := time.Parse(layout, value)
	if err != nil {
		return "", fmt.Errorf("date %q does not match pattern %q", value, pattern)
	}
	return parsed.Format("2006-01-02"), nil
}

var nonDigits = regexp.MustCompile(`\D`)

func normalizePhone(value, countryCode string) string {
	digits := nonDigits.ReplaceAllString(value, "")
	if countryCode != "" && strings.HasPrefix(digits, "0") {
		return countryCode + digits[1:]
	}
	if countryCode != "" && !strings.HasPrefix(value, "+") {
		return countryCode + digits
	}
	if strings.HasPrefix(strings.TrimSpace(value), "+") {
		return "+" + digits
	}
	return digits
}

func parseLocaleNumber(value, decimalSep, thousandsSep string) (float64, error) {
	s := strings.TrimSpace(value)
	if thousandsSep != "" {
		s = strings.ReplaceAll(s, thousandsSep, "")
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if decimalSep != "" && decimalSep != "." {
		s = strings.ReplaceAll(s, decimalSep, ".")
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", value)
	}
	return n, nil
}

func parseBoolean(value string, trueTokens, falseTokens []string) (bool, error) {
	if len(trueTokens) == 0 {
		trueTokens = defaultTrueTokens
	}
	if len(falseTokens) == 0 {
		falseTokens = defaultFalseTokens
	}
	needle := strings.ToLower(strings.TrimSpace(value))
	for _, tok := range trueTokens {
		if needle == strings.ToLower(tok) {
			return true, nil
		}
	}
	for _, tok := range falseTokens {
		if needle == strings.ToLower(tok) {
			return false, nil
		}
	}
	return false, fmt.Errorf("%q is not a recognized boolean token", value)
}

func splitName(value string) (first, last string) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

var columnRef = regexp.MustCompile(`\{([^}]+)\}`)

// evalFormula evaluates a restricted arithmetic expression over column
// references, e.g. "{CA Mensuel} * 12". Operators follow the usual
// precedence; no parentheses.
func evalFormula(formula string, raw []string, table *Table) (float64, error) {
	if formula == "" {
		return 0, fmt.Errorf("empty formula")
	}

	substituted := columnRef.ReplaceAllStringFunc(formula, func(ref string) string {
		column := strings.TrimSuffix(strings.TrimPrefix(ref, "{"), "}")
		value, _ := table.Cell(raw, column)
		return value
	})

	tokens := strings.Fields(substituted)
	if len(tokens) == 0 || len(tokens)%2 == 0 {
		return 0, fmt.Errorf("malformed formula %q", formula)
	}

	values := make([]float64, 0, len(tokens)/2+1)
	ops := make([]string, 0, len(tokens)/2)
	for i, tok := range tokens {
		if i%2 == 0 {
			n, err := parseLocaleNumber(tok, ",", "")
			if err != nil {
				return 0, fmt.Errorf("formula operand %q is not numeric", tok)
			}
			values = append(values, n)
			continue
		}
		switch tok {
		case "+", "-", "*", "/":
			ops = append(ops, tok)
		default:
			return 0, fmt.Errorf("unsupported operator %q", tok)
		}
	}

	// Multiplication and division first, then the additive pass.
	for i := 0; i < len(ops); {
		switch ops[i] {
		case "*":
			values[i] *= values[i+1]
		case "/":
			if values[i+1] == 0 {
				return 0, fmt.Errorf("division by zero in formula")
			}
			values[i] /= values[i+1]
		default:
			i++
			continue
		}
		values = append(values[:i+1], values[i+2:]...)
		ops = append(ops[:i], ops[i+1:]...)
	}

	total := values[0]
	for i, op := range ops {
		if op == "+" {
			total += values[i+1]
		} else {
			total -= values[i+1]
		}
	}
	return total, nil
}

package printing

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// layoutFile holds the shared page chrome every document template extends
const layoutFile = "layout.html"

// TemplateEngine binds document data to HTML templates loaded from a
// filesystem. Each document template is parsed together with layout.html.
type TemplateEngine struct {
	templates      fs.FS
	funcMap        template.FuncMap
	printer        *message.Printer
	caser          cases.Caser
	currencySymbol string
	dateLayout     string
}

// TemplateEngineOption configures the template engine
type TemplateEngineOption func(*TemplateEngine)

// WithLocale sets the locale used for digit grouping and title casing
func WithLocale(tag language.Tag) TemplateEngineOption {
	return func(e *TemplateEngine) {
		e.printer = message.NewPrinter(tag)
		e.caser = cases.Title(tag)
	}
}

// WithCurrencySymbol sets the symbol formatMoney prefixes
func WithCurrencySymbol(symbol string) TemplateEngineOption {
	return func(e *TemplateEngine) {
		e.currencySymbol = symbol
	}
}

// WithDateLayout sets the layout formatDate uses
func WithDateLayout(layout string) TemplateEngineOption {
	return func(e *TemplateEngine) {
		e.dateLayout = layout
	}
}

var australianEnglish = language.MustParse("en-AU")

// NewTemplateEngine creates an engine over templates. Defaults to
// Australian English, "$" and dd/mm/yyyy dates.
func NewTemplateEngine(templates fs.FS, opts ...TemplateEngineOption) *TemplateEngine {
	e := &TemplateEngine{
		templates:      templates,
		printer:        message.NewPrinter(australianEnglish),
		caser:          cases.Title(australianEnglish),
		currencySymbol: "$",
		dateLayout:     "02/01/2006",
	}
	for _, opt := range opts {
		opt(e)
	}

	e.funcMap = template.FuncMap{
		// Money and numbers
		"formatMoney":    e.formatMoney,
		"formatMoneyRaw": e.formatMoneyRaw,
		"formatDecimal":  formatDecimal,
		"formatPercent":  formatPercent,

		// Dates
		"formatDate":     e.formatDate,
		"formatDateTime": formatDateTime,

		// Strings
		"title":      e.titleCase,
		"statusText": e.statusText,
		"upper":      strings.ToUpper,
		"truncate":   truncate,
		"join":       strings.Join,
		"shortUUID":  shortUUID,

		// Arithmetic
		"add": add,
		"sub": sub,
		"mul": mul,

		// Conditionals
		"default":  defaultFunc,
		"notEmpty": notEmpty,
	}
	return e
}

// Render executes the named document template with data
func (e *TemplateEngine) Render(name string, data any) (string, error) {
	file := name
	if !strings.HasSuffix(file, ".html") {
		file += ".html"
	}
	if _, err := fs.Stat(e.templates, file); err != nil {
		return "", NewRenderError(ErrCodeTemplateNotFound, fmt.Sprintf("template %q not found", name), err)
	}

	tmpl, err := template.New(file).Funcs(e.funcMap).ParseFS(e.templates, layoutFile, file)
	if err != nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "failed to parse template", err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, file, data); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute template", err)
	}
	return buf.String(), nil
}

// RenderString renders a one-off template string with data
func (e *TemplateEngine) RenderString(name, content string, data any) (string, error) {
	if content == "" {
		return "", NewRenderError(ErrCodeInvalidHTML, "template content is empty", nil)
	}
	tmpl, err := template.New(name).Funcs(e.funcMap).Parse(content)
	if err != nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "failed to parse template", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute template", err)
	}
	return buf.String(), nil
}

// FuncMap returns a copy of the template function map
func (e *TemplateEngine) FuncMap() template.FuncMap {
	funcMap := make(template.FuncMap, len(e.funcMap))
	maps.Copy(funcMap, e.funcMap)
	return funcMap
}

// formatMoney formats a value as currency, e.g. 1234.5 -> "$1,234.50" and
// -20 -> "-$20.00"
func (e *TemplateEngine) formatMoney(v any) string {
	d := toDecimal(v)
	if d.IsNegative() {
		return "-" + e.currencySymbol + e.formatMoneyRaw(d.Abs())
	}
	return e.currencySymbol + e.formatMoneyRaw(d)
}

// formatMoneyRaw formats a value with grouping and two decimals. The
// integer part is grouped by the locale printer; the fraction stays exact.
func (e *TemplateEngine) formatMoneyRaw(v any) string {
	d := toDecimal(v)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	fixed := d.StringFixed(2)
	intPart, fracPart, _ := strings.Cut(fixed, ".")
	whole, err := decimal.NewFromString(intPart)
	if err != nil || !whole.LessThan(decimal.NewFromInt(1<<62)) {
		return sign + fixed
	}
	return sign + e.printer.Sprintf("%d", whole.IntPart()) + "." + fracPart
}

func (e *TemplateEngine) formatDate(v any) string {
	t := toTime(v)
	if t.IsZero() {
		return ""
	}
	return t.Format(e.dateLayout)
}

func formatDateTime(v any) string {
	t := toTime(v)
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04 MST")
}

func formatDecimal(v any, precision int) string {
	return toDecimal(v).StringFixed(int32(precision))
}

// formatPercent formats a rate, e.g. 0.1 -> "10%"
func formatPercent(v any, precision int) string {
	return toDecimal(v).Mul(decimal.NewFromInt(100)).StringFixed(int32(precision)) + "%"
}

func (e *TemplateEngine) titleCase(s string) string {
	return e.caser.String(s)
}

// statusText turns a status code into display text, e.g.
// "PENDING_APPROVAL" -> "Pending Approval"
func (e *TemplateEngine) statusText(status any) string {
	s := strings.ToLower(strings.ReplaceAll(fmt.Sprint(status), "_", " "))
	return e.caser.String(s)
}

// truncate shortens s to max runes, ending with "..."
func truncate(s string, max int) string {
	const suffix = "..."
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= len(suffix) {
		return string(runes[:max])
	}
	return string(runes[:max-len(suffix)]) + suffix
}

// shortUUID returns the first eight characters of id
func shortUUID(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}

func add(a, b any) decimal.Decimal {
	return toDecimal(a).Add(toDecimal(b))
}

func sub(a, b any) decimal.Decimal {
	return toDecimal(a).Sub(toDecimal(b))
}

func mul(a, b any) decimal.Decimal {
	return toDecimal(a).Mul(toDecimal(b))
}

func defaultFunc(val, def any) any {
	if !notEmpty(val) {
		return def
	}
	return val
}

func notEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case *time.Time:
		return val != nil && !val.IsZero()
	case time.Time:
		return !val.IsZero()
	}
	return true
}

// toDecimal converts the numeric types templates see to decimal.Decimal
func toDecimal(v any) decimal.Decimal {
	switch val := v.(type) {
	case decimal.Decimal:
		return val
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero
		}
		return *val
	case int:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case float64:
		return decimal.NewFromFloat(val)
	case string:
		d, err := decimal.NewFromString(val)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// toTime converts time values and date strings to time.Time
func toTime(v any) time.Time {
	switch val := v.(type) {
	case time.Time:
		return val
	case *time.Time:
		if val == nil {
			return time.Time{}
		}
		return *val
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, val); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

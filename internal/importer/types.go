package importer

import (
	"strings"

	"prospectflow/internal/model"
)

// TransformKind selects how a mapped cell value is reworked before
// validation.
type TransformKind string

const (
	TransformNone      TransformKind = ""
	TransformDate      TransformKind = "date"
	TransformPhone     TransformKind = "phone"
	TransformNumber    TransformKind = "number"
	TransformBoolean   TransformKind = "boolean"
	TransformLookup    TransformKind = "lookup"
	TransformFormula   TransformKind = "formula"
	TransformNameSplit TransformKind = "name_split"
)

// FieldRule maps one file column onto one target field, with an
// optional transform. Transform parameters are flat; only the ones
// relevant to the chosen kind are read.
type FieldRule struct {
	Column    string        `json:"column"`
	Field     string        `json:"field"`
	Required  bool          `json:"required"`
	Default   string        `json:"default"`
	Transform TransformKind `json:"transform"`

	DateFormat         string   `json:"date_format"`
	CountryCode        string   `json:"country_code"`
	DecimalSeparator   string   `json:"decimal_separator"`
	ThousandsSeparator string   `json:"thousands_separator"`
	TrueTokens         []string `json:"true_tokens"`
	FalseTokens        []string `json:"false_tokens"`
	LookupEntity       string   `json:"lookup_entity"` // product, expert
	Formula            string   `json:"formula"`
}

// MappingConfig is the column-to-field mapping payload sent along with
// an uploaded file.
type MappingConfig struct {
	EntityType model.EntityType `json:"entity_type"`
	Rules      []FieldRule      `json:"rules"`
}

// Options tune one import run.
type Options struct {
	SkipDuplicates    bool `json:"skipDuplicates"`
	GeneratePasswords bool `json:"generatePasswords"`
	BatchSize         int  `json:"batchSize"`
	ContinueOnError   bool `json:"continueOnError"`
}

// Row is one parsed-and-transformed data row. Index is the 1-based
// position in the file, counting the header as row 1.
type Row struct {
	Index  int
	Fields map[string]any
	Errors []string

	// Duplicates holds uniqueness violations separately so the
	// skipDuplicates option can downgrade them to a skip.
	Duplicates []string
}

// Credentials are returned for rows whose entity received a generated
// password, so an operator can hand them out.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RowStatus string

const (
	RowSuccess RowStatus = "success"
	RowError   RowStatus = "error"
	RowSkipped RowStatus = "skipped"
)

// RowResult is the per-row outcome carried in the result aggregate.
type RowResult struct {
	Row         int          `json:"row"`
	Status      RowStatus    `json:"status"`
	EntityID    string       `json:"entity_id,omitempty"`
	Errors      []string     `json:"errors,omitempty"`
	Warnings    []string     `json:"warnings,omitempty"`
	Credentials *Credentials `json:"credentials,omitempty"`
}

// Result is the aggregate returned to the caller. Partial row failures
// never turn the whole run into an error.
type Result struct {
	ImportID string      `json:"import_id,omitempty"`
	Total    int         `json:"total"`
	Success  int         `json:"success"`
	Error    int         `json:"error"`
	Skipped  int         `json:"skipped"`
	Rows     []RowResult `json:"rows"`
}

var placeholderTokens = map[string]struct{}{
	"":     {},
	"—":    {},
	"-":    {},
	"--":   {},
	"n/a":  {},
	"null": {},
}

// IsAbsent reports whether a cell value is empty or one of the
// placeholder tokens spreadsheet authors use for missing data.
func IsAbsent(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	if !ok {
		return false
	}
	_, absent := placeholderTokens[strings.ToLower(strings.TrimSpace(s))]
	return absent
}

func stringValue(value any) string {
	s, _ := value.(string)
	return strings.TrimSpace(s)
}

package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Monthly RepetitionTypes = "monthly"
	Yearly  RepetitionTypes = "yearly"
	Weekly  RepetitionTypes = "weekly"
	Daily   RepetitionTypes = "daily"
)

const (
	// UndefinedType is the N1 used when an expense could not be categorized.
	UndefinedType = "Sin definir"
	// GeneralItem is the placeholder N4 for expenses tied to a category but not to a product.
	GeneralItem = "Gasto general"
	// DefaultUnit is used when neither the item nor the caller supplies a unit.
	DefaultUnit = "unidad"
)

// Expense sources
const (
	SourceManual    = "manual"
	SourceVoice     = "voz"
	SourceRecurring = "recurrente"
)

type (
	RepetitionTypes string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// CategoryPath locates an expense in the Type → Area → Subcategory → Item hierarchy.
	CategoryPath struct {
		N1 string `json:"n1" yaml:"n1"`
		N2 string `json:"n2" yaml:"n2"`
		N3 string `json:"n3" yaml:"n3"`
		N4 string `json:"n4" yaml:"n4"`
	}

	// CatalogItem is a previously saved item with its category path and default unit.
	CatalogItem struct {
		Name        string `json:"nombre" yaml:"nombre"`
		N1          string `json:"n1" yaml:"n1"`
		N2          string `json:"n2" yaml:"n2"`
		N3          string `json:"n3" yaml:"n3"`
		DefaultUnit string `json:"unidad_default" yaml:"unidad_default"`
	}

	// CategoryRow is one flattened leaf path of the category tree.
	CategoryRow struct {
		N1   string `json:"n1" yaml:"n1" csv:"n1"`
		N1ID string `json:"n1_id" yaml:"n1_id" csv:"n1_id"`
		N2   string `json:"n2" yaml:"n2" csv:"n2"`
		N2ID string `json:"n2_id" yaml:"n2_id" csv:"n2_id"`
		N3   string `json:"n3" yaml:"n3" csv:"n3"`
		N3ID string `json:"n3_id" yaml:"n3_id" csv:"n3_id"`
		N4   string `json:"n4" yaml:"n4" csv:"n4"`
		N4ID string `json:"n4_id" yaml:"n4_id" csv:"n4_id"`
		Unit string `json:"unidad" yaml:"unidad" csv:"unidad"`
	}

	Expense struct {
		ID         int64
		UserID     string
		Date       Date
		Path       CategoryPath
		Quantity   decimal.Decimal
		Unit       string
		Amount     Money
		Source     string
		MatchLevel string // voice tier that categorized the expense, empty otherwise
	}

	RecurrentExpenses struct {
		ID                int64 // Database ID for operations
		UserID            string
		StartDate         Date
		EndDate           Date
		Every             RepetitionTypes
		Path              CategoryPath
		Quantity          decimal.Decimal
		Unit              string
		Amount            Money
		LastExecutionDate time.Time
	}
)

var (
	ErrInvalidDay      = errors.New("invalid day")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrEmptyType       = errors.New("empty type category")
	ErrEmptyItem       = errors.New("empty item name")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// IsEmpty returns true if the date is zero (optional end dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Path returns the item's category path with the item itself as N4.
func (i CatalogItem) Path() CategoryPath {
	return CategoryPath{N1: i.N1, N2: i.N2, N3: i.N3, N4: i.Name}
}

// String renders the path as "N1 / N2 / N3 / N4", skipping empty levels.
func (p CategoryPath) String() string {
	parts := make([]string, 0, 4)
	for _, v := range []string{p.N1, p.N2, p.N3, p.N4} {
		if strings.TrimSpace(v) != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " / ")
}

func (p CategoryPath) Validate() error {
	if strings.TrimSpace(p.N1) == "" {
		return ErrEmptyType
	}
	if strings.TrimSpace(p.N4) == "" {
		return ErrEmptyItem
	}
	if len(p.N4) > 200 {
		return errors.New("item name too long (max 200 characters)")
	}
	return nil
}

// IsGeneral reports whether the path points at a category placeholder rather than a product.
func (p CategoryPath) IsGeneral() bool {
	return p.N4 == GeneralItem
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := e.Path.Validate(); err != nil {
		return err
	}
	if !e.Quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	return e.Amount.Validate()
}

func (re RecurrentExpenses) Validate() error {
	if err := re.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}

	if !re.EndDate.IsZero() {
		if err := re.EndDate.Validate(); err != nil {
			return errors.New("invalid end date: " + err.Error())
		}
		if !re.EndDate.After(re.StartDate.Time) && !re.EndDate.Equal(re.StartDate.Time) {
			return errors.New("end date must be after start date")
		}
	}

	switch re.Every {
	case Daily, Weekly, Monthly, Yearly:
	default:
		return errors.New("invalid repetition type")
	}

	if err := re.Path.Validate(); err != nil {
		return err
	}
	if !re.Quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	return re.Amount.Validate()
}

// ToExpense materializes one occurrence of the recurring template on the given day.
func (re RecurrentExpenses) ToExpense(on time.Time) Expense {
	return Expense{
		UserID:   re.UserID,
		Date:     Date{Time: on},
		Path:     re.Path,
		Quantity: re.Quantity,
		Unit:     re.Unit,
		Amount:   re.Amount,
		Source:   SourceRecurring,
	}
}

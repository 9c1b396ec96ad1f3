package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

const (
	StatusActive   Status = "Active"
	StatusCritical Status = "Critical"
	StatusArchived Status = "Archived"
)

const (
	AgeYears  AgeType = "Years"
	AgeMonths AgeType = "Months"
)

const (
	HistoryVisit  HistoryType = "Visit"
	HistoryAid    HistoryType = "Aid"
	HistoryUpdate HistoryType = "Update"
)

const (
	Income  TransactionType = "Income"
	Expense TransactionType = "Expense"
)

type (
	Status          string
	AgeType         string
	HistoryType     string
	TransactionType string

	Date struct {
		time.Time
	}

	FamilyMember struct {
		ID      string   `json:"id"`
		Name    string   `json:"name"`
		Role    string   `json:"role"`
		Age     int      `json:"age"`
		AgeType AgeType  `json:"ageType,omitempty"`
		Tags    []string `json:"tags,omitempty"`
	}

	HistoryRecord struct {
		ID          string      `json:"id"`
		Date        Date        `json:"date"`
		Type        HistoryType `json:"type"`
		Title       string      `json:"title"`
		Description string      `json:"description"`
		Responsible string      `json:"responsible"`
	}

	// Family is a household case record. Members keep insertion order and
	// History is newest first.
	Family struct {
		ID                 string          `json:"id"`
		Code               string          `json:"code"`
		Name               string          `json:"name"`
		ResponsibleName    string          `json:"responsibleName"`
		AvatarURL          string          `json:"avatarUrl"`
		Status             Status          `json:"status"`
		StatusDescription  string          `json:"statusDescription"`
		Address            string          `json:"address"`
		Neighborhood       string          `json:"neighborhood,omitempty"`
		Phone              string          `json:"phone"`
		WhatsApp           string          `json:"whatsapp,omitempty"`
		ChurchMember       bool            `json:"churchMember"`
		Congregation       string          `json:"congregation,omitempty"`
		Income             string          `json:"income,omitempty"`
		SocialClass        string          `json:"socialClass,omitempty"`
		ProfessionalStatus string          `json:"professionalStatus,omitempty"`
		MainNeed           string          `json:"mainNeed,omitempty"`
		Observations       string          `json:"observations,omitempty"`
		Members            []FamilyMember  `json:"members"`
		History            []HistoryRecord `json:"history"`
	}

	Transaction struct {
		ID          string          `json:"id"`
		Date        Date            `json:"date"`
		Type        TransactionType `json:"type"`
		Category    string          `json:"category"`
		Amount      Money           `json:"amount"`
		Description string          `json:"description"`
		Responsible string          `json:"responsible"`
	}
)

var (
	ErrEmptyID            = errors.New("empty id")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrEmptyName          = errors.New("empty name")
	ErrEmptyResponsible   = errors.New("empty responsible name")
	ErrEmptyRole          = errors.New("empty member role")
	ErrInvalidAge         = errors.New("invalid age")
	ErrInvalidAgeType     = errors.New("invalid age type")
	ErrInfantAgeTooHigh   = errors.New("age in months must be between 0 and 11")
	ErrInvalidHistoryType = errors.New("invalid history type")
	ErrEmptyTitle         = errors.New("empty title")
	ErrInvalidTxType      = errors.New("invalid transaction type")
	ErrEmptyCategory      = errors.New("empty category")
)

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate reads the calendar part of an ISO date. Anything after the
// tenth character (a time component) is ignored.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// BR renders the date as dd/mm/yyyy.
func (d Date) BR() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("02/01/2006")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusCritical, StatusArchived:
		return true
	}
	return false
}

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

func (h HistoryType) IsValid() bool {
	switch h {
	case HistoryVisit, HistoryAid, HistoryUpdate:
		return true
	}
	return false
}

// AgeInYears normalises month-based ages to fractional years.
func (m FamilyMember) AgeInYears() float64 {
	if m.AgeType == AgeMonths {
		return float64(m.Age) / 12
	}
	return float64(m.Age)
}

func (m FamilyMember) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(m.Role) == "" {
		return ErrEmptyRole
	}
	if m.Age < 0 {
		return ErrInvalidAge
	}
	switch m.AgeType {
	case "", AgeYears:
	case AgeMonths:
		if m.Age > 11 {
			return ErrInfantAgeTooHigh
		}
	default:
		return ErrInvalidAgeType
	}
	return nil
}

func (r HistoryRecord) Validate() error {
	if r.ID == "" {
		return ErrEmptyID
	}
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if !r.Type.IsValid() {
		return ErrInvalidHistoryType
	}
	if strings.TrimSpace(r.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

func (f Family) Validate() error {
	if f.ID == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(f.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(f.ResponsibleName) == "" {
		return ErrEmptyResponsible
	}
	if !f.Status.IsValid() {
		return ErrInvalidStatus
	}
	for i, m := range f.Members {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("member %d: %w", i+1, err)
		}
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.ID == "" {
		return ErrEmptyID
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Type.IsValid() {
		return ErrInvalidTxType
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	return t.Amount.Validate()
}

// Signed returns the amount as it contributes to the cash balance.
func (t Transaction) Signed() Money {
	if t.Type == Expense {
		return Money{Cents: -t.Amount.Cents}
	}
	return t.Amount
}

// Clone returns a deep copy so callers can't reach into shared slices.
func (f Family) Clone() Family {
	out := f
	out.Members = make([]FamilyMember, len(f.Members))
	for i, m := range f.Members {
		m.Tags = append([]string(nil), m.Tags...)
		out.Members[i] = m
	}
	out.History = append(make([]HistoryRecord, 0, len(f.History)), f.History...)
	return out
}

// Normalize guarantees the owned collections are never nil.
func (f *Family) Normalize() {
	if f.Members == nil {
		f.Members = []FamilyMember{}
	}
	if f.History == nil {
		f.History = []HistoryRecord{}
	}
}

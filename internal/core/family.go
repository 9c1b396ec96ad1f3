package core

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultResponsible    = "Administrador"
	SystemResponsible     = "Sistema"
	DefaultStatusDesc     = "Em análise"
	VisitTitle            = "Visita Pastoral"
	DefaultAidTitle       = "Doação"
	DefaultUpdateTitle    = "Atualização Cadastral"
	avatarURLTemplate     = "https://picsum.photos/seed/%s/200/200"
	whatsAppLinkPrefix    = "https://wa.me/55"
	familyCodeMaxSequence = 1000
)

// FamilyDraft carries the fields entered on the new family form.
type FamilyDraft struct {
	Name               string        `json:"name"`
	ResponsibleName    string        `json:"responsibleName"`
	Address            string        `json:"address"`
	Neighborhood       string        `json:"neighborhood"`
	Phone              string        `json:"phone"`
	WhatsApp           string        `json:"whatsapp"`
	ChurchMember       bool          `json:"churchMember"`
	Congregation       string        `json:"congregation"`
	Income             string        `json:"income"`
	SocialClass        string        `json:"socialClass"`
	ProfessionalStatus string        `json:"professionalStatus"`
	MainNeed           string        `json:"mainNeed"`
	Observations       string        `json:"observations"`
	Members            []MemberDraft `json:"members"`
}

// MemberDraft is a member as typed in a form: tags arrive comma-separated.
type MemberDraft struct {
	Name    string  `json:"name"`
	Role    string  `json:"role"`
	Age     int     `json:"age"`
	AgeType AgeType `json:"ageType"`
	Tags    string  `json:"tags"`
}

// RecordDraft is a new history entry. AidType is used for Aid records and
// CustomTitle replaces it when the aid type is Other.
type RecordDraft struct {
	Date        string      `json:"date"`
	Type        HistoryType `json:"type"`
	AidType     AidType     `json:"aidType"`
	CustomTitle string      `json:"customTitle"`
	Description string      `json:"description"`
}

type TransactionDraft struct {
	Date        string          `json:"date"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	Amount      string          `json:"amount"`
	Description string          `json:"description"`
}

func NewID() string {
	return uuid.NewString()
}

// FamilyCode builds a case number like "#FAM-2024-007".
func FamilyCode(year, seq int) string {
	return fmt.Sprintf("#FAM-%d-%03d", year, seq%familyCodeMaxSequence)
}

// ParseTags splits comma-separated labels, trimming and dropping blanks.
func ParseTags(s string) []string {
	out := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// DefaultFamilyName derives "Família <surname>" from the responsible name.
func DefaultFamilyName(responsible string) string {
	fields := strings.Fields(responsible)
	last := ""
	if len(fields) > 0 {
		last = fields[len(fields)-1]
	}
	return strings.TrimSpace("Família " + last)
}

// WhatsAppLink returns a wa.me link for a Brazilian number, or "" when the
// number has no digits.
func WhatsAppLink(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if digits == "" {
		return ""
	}
	return whatsAppLinkPrefix + digits
}

func NewMember(d MemberDraft) (FamilyMember, error) {
	m := FamilyMember{
		ID:      NewID(),
		Name:    strings.TrimSpace(d.Name),
		Role:    strings.TrimSpace(d.Role),
		Age:     d.Age,
		AgeType: d.AgeType,
		Tags:    ParseTags(d.Tags),
	}
	if m.AgeType == "" {
		m.AgeType = AgeYears
	}
	if err := m.Validate(); err != nil {
		return FamilyMember{}, err
	}
	return m, nil
}

// NewFamily builds a fresh Active case from a form draft. The code uses the
// year of now and a random sequence.
func NewFamily(d FamilyDraft, now time.Time) (Family, error) {
	id := NewID()
	f := Family{
		ID:                 id,
		Code:               FamilyCode(now.Year(), rand.IntN(familyCodeMaxSequence)),
		Name:               strings.TrimSpace(d.Name),
		ResponsibleName:    strings.TrimSpace(d.ResponsibleName),
		AvatarURL:          fmt.Sprintf(avatarURLTemplate, id),
		Status:             StatusActive,
		StatusDescription:  strings.TrimSpace(d.MainNeed),
		Address:            strings.TrimSpace(d.Address),
		Neighborhood:       strings.TrimSpace(d.Neighborhood),
		Phone:              strings.TrimSpace(d.Phone),
		WhatsApp:           strings.TrimSpace(d.WhatsApp),
		ChurchMember:       d.ChurchMember,
		Congregation:       strings.TrimSpace(d.Congregation),
		Income:             strings.TrimSpace(d.Income),
		SocialClass:        strings.TrimSpace(d.SocialClass),
		ProfessionalStatus: strings.TrimSpace(d.ProfessionalStatus),
		MainNeed:           strings.TrimSpace(d.MainNeed),
		Observations:       strings.TrimSpace(d.Observations),
		Members:            []FamilyMember{},
		History:            []HistoryRecord{},
	}
	if f.Name == "" {
		f.Name = DefaultFamilyName(f.ResponsibleName)
	}
	if f.StatusDescription == "" {
		f.StatusDescription = DefaultStatusDesc
	}
	for _, md := range d.Members {
		m, err := NewMember(md)
		if err != nil {
			return Family{}, err
		}
		f.Members = append(f.Members, m)
	}
	if err := f.Validate(); err != nil {
		return Family{}, err
	}
	return f, nil
}

// NewHistoryRecord builds a history entry. A blank date means today.
func NewHistoryRecord(d RecordDraft, now time.Time) (HistoryRecord, error) {
	date := Date{Time: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)}
	if strings.TrimSpace(d.Date) != "" {
		parsed, err := ParseDate(d.Date)
		if err != nil {
			return HistoryRecord{}, err
		}
		date = parsed
	}

	r := HistoryRecord{
		ID:          NewID(),
		Date:        date,
		Type:        d.Type,
		Description: strings.TrimSpace(d.Description),
		Responsible: DefaultResponsible,
	}
	switch d.Type {
	case HistoryVisit:
		r.Title = VisitTitle
	case HistoryAid:
		title := d.AidType.Label()
		if d.AidType == AidOther {
			title = strings.TrimSpace(d.CustomTitle)
		}
		if title == "" {
			title = DefaultAidTitle
		}
		r.Title = title
	case HistoryUpdate:
		r.Title = strings.TrimSpace(d.CustomTitle)
		if r.Title == "" {
			r.Title = DefaultUpdateTitle
		}
	}
	if err := r.Validate(); err != nil {
		return HistoryRecord{}, err
	}
	return r, nil
}

func NewTransaction(d TransactionDraft) (Transaction, error) {
	date, err := ParseDate(d.Date)
	if err != nil {
		return Transaction{}, err
	}
	amount, err := ParseAmount(d.Amount)
	if err != nil {
		return Transaction{}, err
	}
	t := Transaction{
		ID:          NewID(),
		Date:        date,
		Type:        d.Type,
		Category:    strings.TrimSpace(d.Category),
		Amount:      amount,
		Description: strings.TrimSpace(d.Description),
		Responsible: DefaultResponsible,
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

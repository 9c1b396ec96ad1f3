package remote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"gestaosocial/internal/core"
)

// FamilyRow mirrors a families table row. Members and history are JSON
// array columns holding the application's own member and record shapes.
type FamilyRow struct {
	ID                 string          `json:"id"`
	Code               string          `json:"code"`
	Name               string          `json:"name"`
	ResponsibleName    string          `json:"responsible_name"`
	AvatarURL          string          `json:"avatar_url"`
	Status             string          `json:"status"`
	StatusDescription  string          `json:"status_description"`
	Address            string          `json:"address"`
	Neighborhood       string          `json:"neighborhood"`
	Phone              string          `json:"phone"`
	WhatsApp           string          `json:"whatsapp"`
	ChurchMember       bool            `json:"church_member"`
	Congregation       string          `json:"congregation"`
	Income             string          `json:"income"`
	SocialClass        string          `json:"social_class"`
	ProfessionalStatus string          `json:"professional_status"`
	MainNeed           string          `json:"main_need"`
	Observations       string          `json:"observations"`
	Members            json.RawMessage `json:"members"`
	History            json.RawMessage `json:"history"`
}

// TransactionRow mirrors a financial_records row. Amount accepts both JSON
// numbers and numeric strings.
type TransactionRow struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Responsible string          `json:"responsible"`
}

var ErrMissingID = errors.New("row has no id")

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// decodeArray leaves out empty when raw is absent or not an array.
func decodeArray[T any](raw json.RawMessage, out *[]T) error {
	*out = []T{}
	if !isJSONArray(raw) {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// FamilyFromRow maps a row to a Family. Missing or non-array members and
// history columns become empty slices.
func FamilyFromRow(row FamilyRow) (core.Family, error) {
	if row.ID == "" {
		return core.Family{}, ErrMissingID
	}
	f := core.Family{
		ID:                 row.ID,
		Code:               row.Code,
		Name:               row.Name,
		ResponsibleName:    row.ResponsibleName,
		AvatarURL:          row.AvatarURL,
		Status:             core.Status(row.Status),
		StatusDescription:  row.StatusDescription,
		Address:            row.Address,
		Neighborhood:       row.Neighborhood,
		Phone:              row.Phone,
		WhatsApp:           row.WhatsApp,
		ChurchMember:       row.ChurchMember,
		Congregation:       row.Congregation,
		Income:             row.Income,
		SocialClass:        row.SocialClass,
		ProfessionalStatus: row.ProfessionalStatus,
		MainNeed:           row.MainNeed,
		Observations:       row.Observations,
	}
	if !f.Status.IsValid() {
		return core.Family{}, fmt.Errorf("family %s: %w: %q", row.ID, core.ErrInvalidStatus, row.Status)
	}
	if err := decodeArray(row.Members, &f.Members); err != nil {
		return core.Family{}, fmt.Errorf("family %s members: %w", row.ID, err)
	}
	if err := decodeArray(row.History, &f.History); err != nil {
		return core.Family{}, fmt.Errorf("family %s history: %w", row.ID, err)
	}
	for i := range f.History {
		if f.History[i].Responsible == "" {
			f.History[i].Responsible = core.SystemResponsible
		}
	}
	for i := range f.Members {
		if f.Members[i].Tags == nil {
			f.Members[i].Tags = []string{}
		}
	}
	return f, nil
}

func FamilyToRow(f core.Family) (FamilyRow, error) {
	f.Normalize()
	members, err := json.Marshal(f.Members)
	if err != nil {
		return FamilyRow{}, fmt.Errorf("marshal members: %w", err)
	}
	history, err := HistoryJSON(f.History)
	if err != nil {
		return FamilyRow{}, err
	}
	return FamilyRow{
		ID:                 f.ID,
		Code:               f.Code,
		Name:               f.Name,
		ResponsibleName:    f.ResponsibleName,
		AvatarURL:          f.AvatarURL,
		Status:             string(f.Status),
		StatusDescription:  f.StatusDescription,
		Address:            f.Address,
		Neighborhood:       f.Neighborhood,
		Phone:              f.Phone,
		WhatsApp:           f.WhatsApp,
		ChurchMember:       f.ChurchMember,
		Congregation:       f.Congregation,
		Income:             f.Income,
		SocialClass:        f.SocialClass,
		ProfessionalStatus: f.ProfessionalStatus,
		MainNeed:           f.MainNeed,
		Observations:       f.Observations,
		Members:            members,
		History:            history,
	}, nil
}

func HistoryJSON(history []core.HistoryRecord) (json.RawMessage, error) {
	if history == nil {
		history = []core.HistoryRecord{}
	}
	data, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("marshal history: %w", err)
	}
	return data, nil
}

// TransactionFromRow maps a row to a Transaction. A blank description stays
// empty and a blank responsible becomes the system placeholder.
func TransactionFromRow(row TransactionRow) (core.Transaction, error) {
	if row.ID == "" {
		return core.Transaction{}, ErrMissingID
	}
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", row.ID, err)
	}
	t := core.Transaction{
		ID:          row.ID,
		Date:        date,
		Type:        core.TransactionType(row.Type),
		Category:    row.Category,
		Amount:      core.MoneyFromDecimal(row.Amount),
		Description: row.Description,
		Responsible: row.Responsible,
	}
	if !t.Type.IsValid() {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w: %q", row.ID, core.ErrInvalidTxType, row.Type)
	}
	if t.Responsible == "" {
		t.Responsible = core.SystemResponsible
	}
	return t, nil
}

func TransactionToRow(t core.Transaction) TransactionRow {
	return TransactionRow{
		ID:          t.ID,
		Date:        t.Date.String(),
		Type:        string(t.Type),
		Category:    t.Category,
		Amount:      t.Amount.Decimal(),
		Description: t.Description,
		Responsible: t.Responsible,
	}
}

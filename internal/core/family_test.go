package core

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 14, 15, 4, 5, 0, time.UTC)

func TestNewFamilyDefaults(t *testing.T) {
	f, err := NewFamily(FamilyDraft{
		ResponsibleName: "Maria da Silva Souza",
		Phone:           "(11) 99999-0000",
		Members: []MemberDraft{
			{Name: "Pedro", Role: "Filho", Age: 8, Tags: " escola, ,asma "},
		},
	}, now)
	require.NoError(t, err)

	assert.NotEmpty(t, f.ID)
	assert.Regexp(t, regexp.MustCompile(`^#FAM-2025-\d{3}$`), f.Code)
	assert.Equal(t, "Família Souza", f.Name)
	assert.Equal(t, StatusActive, f.Status)
	assert.Equal(t, DefaultStatusDesc, f.StatusDescription)
	assert.NotNil(t, f.History)
	assert.Empty(t, f.History)
	require.Len(t, f.Members, 1)
	assert.NotEmpty(t, f.Members[0].ID)
	assert.Equal(t, AgeYears, f.Members[0].AgeType)
	assert.Equal(t, []string{"escola", "asma"}, f.Members[0].Tags)
}

func TestNewFamilyKeepsExplicitNameAndNeed(t *testing.T) {
	f, err := NewFamily(FamilyDraft{Name: "Família Lima (Jd. Esperança)", ResponsibleName: "Carla Lima", MainNeed: "Alimentação"}, now)
	require.NoError(t, err)
	assert.Equal(t, "Família Lima (Jd. Esperança)", f.Name)
	assert.Equal(t, "Alimentação", f.StatusDescription)
}

func TestNewFamilyRejectsInfantAgeOverEleven(t *testing.T) {
	_, err := NewFamily(FamilyDraft{
		ResponsibleName: "Carla Lima",
		Members:         []MemberDraft{{Name: "Bebê", Role: "Filho", Age: 12, AgeType: AgeMonths}},
	}, now)
	assert.True(t, errors.Is(err, ErrInfantAgeTooHigh))
}

func TestNewFamilyRequiresResponsible(t *testing.T) {
	_, err := NewFamily(FamilyDraft{Name: "Família X"}, now)
	assert.ErrorIs(t, err, ErrEmptyResponsible)
}

func TestNewHistoryRecordTitles(t *testing.T) {
	cases := []struct {
		name  string
		draft RecordDraft
		title string
	}{
		{"visit", RecordDraft{Type: HistoryVisit, AidType: AidGas}, VisitTitle},
		{"aid label", RecordDraft{Type: HistoryAid, AidType: AidMedicine}, "Medicamentos"},
		{"aid custom", RecordDraft{Type: HistoryAid, AidType: AidOther, CustomTitle: "Fraldas"}, "Fraldas"},
		{"aid custom blank", RecordDraft{Type: HistoryAid, AidType: AidOther}, DefaultAidTitle},
		{"aid no type", RecordDraft{Type: HistoryAid}, DefaultAidTitle},
		{"update", RecordDraft{Type: HistoryUpdate}, DefaultUpdateTitle},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := NewHistoryRecord(tc.draft, now)
			require.NoError(t, err)
			assert.Equal(t, tc.title, r.Title)
			assert.Equal(t, DefaultResponsible, r.Responsible)
			assert.Equal(t, "2025-03-14", r.Date.String())
		})
	}
}

func TestNewHistoryRecordRejectsUnknownType(t *testing.T) {
	_, err := NewHistoryRecord(RecordDraft{Type: "Call"}, now)
	assert.ErrorIs(t, err, ErrInvalidHistoryType)
}

func TestNewTransaction(t *testing.T) {
	got, err := NewTransaction(TransactionDraft{Date: "2024-01-15", Type: Expense, Category: "Combustível", Amount: "45,90"})
	require.NoError(t, err)
	assert.Equal(t, int64(4590), got.Amount.Cents)
	assert.Equal(t, DefaultResponsible, got.Responsible)
	assert.NotEmpty(t, got.ID)

	_, err = NewTransaction(TransactionDraft{Date: "2024-01-15", Type: Expense, Category: "Combustível", Amount: "0"})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = NewTransaction(TransactionDraft{Date: "ontem", Type: Expense, Category: "Combustível", Amount: "1"})
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestWhatsAppLink(t *testing.T) {
	assert.Equal(t, "https://wa.me/5511999990000", WhatsAppLink("(11) 99999-0000"))
	assert.Equal(t, "", WhatsAppLink("sem número"))
}

func TestFamilyCode(t *testing.T) {
	assert.Equal(t, "#FAM-2024-007", FamilyCode(2024, 7))
	assert.Equal(t, "#FAM-2024-001", FamilyCode(2024, 1001))
}

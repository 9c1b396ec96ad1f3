package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestaosocial/internal/core"
)

func TestQuote(t *testing.T) {
	assert.Equal(t, `"Family ""Smith"""`, Quote(`Family "Smith"`))
	assert.Equal(t, `""`, Quote(""))
	assert.Equal(t, `"a,b"`, Quote("a,b"))
}

func TestRoster(t *testing.T) {
	families := []core.Family{
		{
			ID: "f1", Code: "#FAM-2024-001", Name: `Família "Smith"`, ResponsibleName: "John Smith",
			Status: core.StatusActive, Phone: "(11) 1234-5678", Address: "Rua A, 10",
			ChurchMember: true, Members: []core.FamilyMember{{ID: "m1"}, {ID: "m2"}},
		},
		{ID: "f2", Code: "#FAM-2024-002", Name: "Família Lima", ResponsibleName: "Carla", Status: core.StatusCritical},
	}

	out, err := Roster(families)
	require.NoError(t, err)

	s := string(out)
	require.True(t, strings.HasPrefix(s, BOM))
	lines := strings.Split(strings.TrimPrefix(s, BOM), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ID,Codigo,Nome da Familia,Responsavel,Status,Telefone,WhatsApp,Bairro,Endereco,Qtd Membros,Membro Igreja,Congregacao,Necessidade Principal", lines[0])
	assert.Equal(t, `f1,#FAM-2024-001,"Família ""Smith""","John Smith",Active,"(11) 1234-5678","","","Rua A, 10",2,Sim,"",""`, lines[1])
	assert.Equal(t, `f2,#FAM-2024-002,"Família Lima","Carla",Critical,"","","","",0,Não,"",""`, lines[2])
}

func TestRosterEmpty(t *testing.T) {
	_, err := Roster(nil)
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestReport(t *testing.T) {
	amount := core.Money{Cents: 1250}
	rows := []core.ReportRow{
		{Date: core.NewDate(2024, 1, 15), Kind: core.LabelIncome, Title: "Ofertas", Description: `culto "domingo"`,
			Counterpart: core.CounterpartIncome, Responsible: "Administrador", Amount: &amount},
		{Date: core.NewDate(2024, 1, 3), Kind: core.LabelDonation, Title: "Cesta Básica",
			Counterpart: "Família Lima", Responsible: "Ana"},
	}

	s := string(Report(rows))
	require.True(t, strings.HasPrefix(s, BOM))
	lines := strings.Split(strings.TrimPrefix(s, BOM), "\n")
	require.Len(t, lines, len(rows)+1)
	assert.Equal(t, "Data,Tipo de Registro,Categoria/Item,Descricao,Valor (R$),Destino/Origem,Responsavel", lines[0])
	assert.Equal(t, `15/01/2024,Entrada,"Ofertas","culto ""domingo""","12,50","Igreja (Receita)","Administrador"`, lines[1])
	assert.Equal(t, `03/01/2024,Doação,"Cesta Básica","","","Família Lima","Ana"`, lines[2])
}

func TestReportNoRowsIsHeaderOnly(t *testing.T) {
	s := string(Report(nil))
	assert.Equal(t, BOM+"Data,Tipo de Registro,Categoria/Item,Descricao,Valor (R$),Destino/Origem,Responsavel", s)
}

func TestFilenames(t *testing.T) {
	assert.Equal(t, "relatorio_familias_2024-03-09.csv", RosterFilename(time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, "relatorio_geral_2024_1.csv", ReportFilename(core.Period{Year: 2024, Month: time.January}))
	assert.Equal(t, "relatorio_geral_2024_12.csv", ReportFilename(core.Period{Year: 2024, Month: time.December}))
}

func TestBackupJSON(t *testing.T) {
	now := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	data, err := BackupJSON(nil, nil, now)
	require.NoError(t, err)

	var b struct {
		ExportedAt   time.Time         `json:"exportedAt"`
		Families     []json.RawMessage `json:"families"`
		Transactions []json.RawMessage `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(data, &b))
	assert.True(t, now.Equal(b.ExportedAt))
	assert.NotNil(t, b.Families)
	assert.NotNil(t, b.Transactions)
	assert.Equal(t, "backup_gestao_social_2024-03-09.json", BackupFilename(now))
}

func TestRosterFieldsMatchHeader(t *testing.T) {
	f := core.Family{ID: "f1", Code: "#FAM-2024-001", Name: `Família "Smith"`, Status: core.StatusArchived}
	fields := RosterFields(f)
	require.Len(t, fields, len(RosterHeader()))
	assert.Equal(t, `Família "Smith"`, fields[2])
	assert.Equal(t, "0", fields[9])
	assert.Equal(t, "Não", fields[10])
	assert.Len(t, rosterQuoted, len(rosterHeader))
}

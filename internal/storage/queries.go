package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Family struct {
	ID                 string
	Code               string
	Name               string
	ResponsibleName    string
	AvatarURL          string
	Status             string
	StatusDescription  string
	Address            string
	Neighborhood       string
	Phone              string
	Whatsapp           string
	ChurchMember       bool
	Congregation       string
	Income             string
	SocialClass        string
	ProfessionalStatus string
	MainNeed           string
	Observations       string
	Members            string
	History            string
}

type FinancialRecord struct {
	ID          string
	Date        string
	Type        string
	Category    string
	Amount      string
	Description string
	Responsible string
}

type AuthUser struct {
	ID           string
	Email        string
	PasswordHash string
	Confirmed    bool
}

type AuthSession struct {
	Token     string
	UserID    string
	Email     string
	ExpiresAt int64
}

const familyColumns = `id, code, name, responsible_name, avatar_url, status, status_description,
	address, neighborhood, phone, whatsapp, church_member, congregation, income,
	social_class, professional_status, main_need, observations, members, history`

const listFamilies = `SELECT ` + familyColumns + ` FROM families ORDER BY name ASC`

func (q *Queries) ListFamilies(ctx context.Context) ([]Family, error) {
	rows, err := q.db.QueryContext(ctx, listFamilies)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Family
	for rows.Next() {
		var i Family
		if err := rows.Scan(
			&i.ID, &i.Code, &i.Name, &i.ResponsibleName, &i.AvatarURL, &i.Status, &i.StatusDescription,
			&i.Address, &i.Neighborhood, &i.Phone, &i.Whatsapp, &i.ChurchMember, &i.Congregation, &i.Income,
			&i.SocialClass, &i.ProfessionalStatus, &i.MainNeed, &i.Observations, &i.Members, &i.History,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const insertFamily = `INSERT INTO families (` + familyColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertFamily(ctx context.Context, arg Family) error {
	_, err := q.db.ExecContext(ctx, insertFamily,
		arg.ID, arg.Code, arg.Name, arg.ResponsibleName, arg.AvatarURL, arg.Status, arg.StatusDescription,
		arg.Address, arg.Neighborhood, arg.Phone, arg.Whatsapp, arg.ChurchMember, arg.Congregation, arg.Income,
		arg.SocialClass, arg.ProfessionalStatus, arg.MainNeed, arg.Observations, arg.Members, arg.History,
	)
	return err
}

const updateFamily = `UPDATE families SET
	code = ?, name = ?, responsible_name = ?, avatar_url = ?, status = ?, status_description = ?,
	address = ?, neighborhood = ?, phone = ?, whatsapp = ?, church_member = ?, congregation = ?,
	income = ?, social_class = ?, professional_status = ?, main_need = ?, observations = ?,
	members = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?`

func (q *Queries) UpdateFamily(ctx context.Context, arg Family) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateFamily,
		arg.Code, arg.Name, arg.ResponsibleName, arg.AvatarURL, arg.Status, arg.StatusDescription,
		arg.Address, arg.Neighborhood, arg.Phone, arg.Whatsapp, arg.ChurchMember, arg.Congregation,
		arg.Income, arg.SocialClass, arg.ProfessionalStatus, arg.MainNeed, arg.Observations,
		arg.Members, arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateFamilyHistory = `UPDATE families SET history = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

func (q *Queries) UpdateFamilyHistory(ctx context.Context, id, history string) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateFamilyHistory, history, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteFamily = `DELETE FROM families WHERE id = ?`

func (q *Queries) DeleteFamily(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteFamily, id)
	return err
}

const listFinancialRecords = `SELECT id, date, type, category, amount, description, responsible
FROM financial_records ORDER BY date DESC, created_at DESC`

func (q *Queries) ListFinancialRecords(ctx context.Context) ([]FinancialRecord, error) {
	rows, err := q.db.QueryContext(ctx, listFinancialRecords)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FinancialRecord
	for rows.Next() {
		var i FinancialRecord
		if err := rows.Scan(&i.ID, &i.Date, &i.Type, &i.Category, &i.Amount, &i.Description, &i.Responsible); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return items, rows.Err()
}

const insertFinancialRecord = `INSERT INTO financial_records (id, date, type, category, amount, description, responsible)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertFinancialRecord(ctx context.Context, arg FinancialRecord) error {
	_, err := q.db.ExecContext(ctx, insertFinancialRecord,
		arg.ID, arg.Date, arg.Type, arg.Category, arg.Amount, arg.Description, arg.Responsible,
	)
	return err
}

const deleteFinancialRecord = `DELETE FROM financial_records WHERE id = ?`

func (q *Queries) DeleteFinancialRecord(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteFinancialRecord, id)
	return err
}

const getUserByEmail = `SELECT id, email, password_hash, confirmed FROM auth_users WHERE email = ?`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	var i AuthUser
	err := q.db.QueryRowContext(ctx, getUserByEmail, email).Scan(&i.ID, &i.Email, &i.PasswordHash, &i.Confirmed)
	return i, err
}

const createUser = `INSERT INTO auth_users (id, email, password_hash, confirmed) VALUES (?, ?, ?, ?)`

func (q *Queries) CreateUser(ctx context.Context, arg AuthUser) error {
	_, err := q.db.ExecContext(ctx, createUser, arg.ID, arg.Email, arg.PasswordHash, arg.Confirmed)
	return err
}

const confirmUser = `UPDATE auth_users SET confirmed = 1 WHERE email = ?`

func (q *Queries) ConfirmUser(ctx context.Context, email string) (int64, error) {
	result, err := q.db.ExecContext(ctx, confirmUser, email)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createSession = `INSERT INTO auth_sessions (token, user_id, expires_at) VALUES (?, ?, ?)`

func (q *Queries) CreateSession(ctx context.Context, token, userID string, expiresAt int64) error {
	_, err := q.db.ExecContext(ctx, createSession, token, userID, expiresAt)
	return err
}

const getLatestSession = `SELECT s.token, s.user_id, u.email, s.expires_at
FROM auth_sessions s JOIN auth_users u ON u.id = s.user_id
WHERE s.expires_at > ?
ORDER BY s.expires_at DESC, s.rowid DESC
LIMIT 1`

func (q *Queries) GetLatestSession(ctx context.Context, now int64) (AuthSession, error) {
	var i AuthSession
	err := q.db.QueryRowContext(ctx, getLatestSession, now).Scan(&i.Token, &i.UserID, &i.Email, &i.ExpiresAt)
	return i, err
}

const deleteSessions = `DELETE FROM auth_sessions`

func (q *Queries) DeleteSessions(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteSessions)
	return err
}

const deleteExpiredSessions = `DELETE FROM auth_sessions WHERE expires_at <= ?`

func (q *Queries) DeleteExpiredSessions(ctx context.Context, now int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpiredSessions, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

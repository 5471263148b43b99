package profile

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivisit/api/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return pool
}

// =========== Medical Profile Repository ===========

type medicalProfileRepoPG struct{ pool *pgxpool.Pool }

func NewMedicalProfileRepoPG(pool *pgxpool.Pool) MedicalProfileRepository {
	return &medicalProfileRepoPG{pool: pool}
}

func (r *medicalProfileRepoPG) Get(ctx context.Context, userID string) (*MedicalProfile, error) {
	var p MedicalProfile
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT user_id, blood_type, allergies, medications, conditions, notes, updated_at
		FROM medical_profiles WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.BloodType, &p.Allergies, &p.Medications, &p.Conditions, &p.Notes, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *medicalProfileRepoPG) Upsert(ctx context.Context, p *MedicalProfile) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO medical_profiles (user_id, blood_type, allergies, medications, conditions, notes)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (user_id) DO UPDATE SET
			blood_type=$2, allergies=$3, medications=$4, conditions=$5, notes=$6, updated_at=NOW()`,
		p.UserID, p.BloodType, p.Allergies, p.Medications, p.Conditions, p.Notes)
	return err
}

// =========== Emergency Contact Repository ===========

type emergencyContactRepoPG struct{ pool *pgxpool.Pool }

func NewEmergencyContactRepoPG(pool *pgxpool.Pool) EmergencyContactRepository {
	return &emergencyContactRepoPG{pool: pool}
}

func (r *emergencyContactRepoPG) ListByUser(ctx context.Context, userID string) ([]*EmergencyContact, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, user_id, name, phone, relationship, created_at
		FROM emergency_contacts WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*EmergencyContact
	for rows.Next() {
		var c EmergencyContact
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Phone, &c.Relationship, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *emergencyContactRepoPG) Create(ctx context.Context, c *EmergencyContact) error {
	c.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO emergency_contacts (id, user_id, name, phone, relationship)
		VALUES ($1,$2,$3,$4,$5)`,
		c.ID, c.UserID, c.Name, c.Phone, c.Relationship)
	return err
}

func (r *emergencyContactRepoPG) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM emergency_contacts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// =========== Preferences Repository ===========

type preferencesRepoPG struct{ pool *pgxpool.Pool }

func NewPreferencesRepoPG(pool *pgxpool.Pool) PreferencesRepository {
	return &preferencesRepoPG{pool: pool}
}

func (r *preferencesRepoPG) Get(ctx context.Context, userID string) (*Preferences, error) {
	var p Preferences
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT user_id, privacy_share_medical_profile, privacy_share_emergency_contacts,
			notify_push, notify_sms, updated_at
		FROM preferences WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.PrivacyShareMedicalProfile, &p.PrivacyShareEmergencyContacts,
			&p.NotifyPush, &p.NotifySMS, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *preferencesRepoPG) Upsert(ctx context.Context, p *Preferences) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO preferences (user_id, privacy_share_medical_profile, privacy_share_emergency_contacts,
			notify_push, notify_sms)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (user_id) DO UPDATE SET
			privacy_share_medical_profile=$2, privacy_share_emergency_contacts=$3,
			notify_push=$4, notify_sms=$5, updated_at=NOW()`,
		p.UserID, p.PrivacyShareMedicalProfile, p.PrivacyShareEmergencyContacts,
		p.NotifyPush, p.NotifySMS)
	return err
}

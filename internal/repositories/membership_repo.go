package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/cis-membership/internal/database"
	"github.com/BradenHooton/cis-membership/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const membershipColumns = `id, title, first_name, last_name, email, mobile, current_position, institute,
	department, organisation, address, town, postcode, state, country, status, linkedin, orcid,
	research_gate, membership_fee, profile_photo, payment_status, membership_id, issue_date,
	expiry_date, created_at`

type MembershipRepository struct {
	db *database.DB
}

func NewMembershipRepository(db *database.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func scanMembershipRow(scanner rowScanner) (*models.Membership, error) {
	var m models.Membership

	err := scanner.Scan(
		&m.ID, &m.Title, &m.FirstName, &m.LastName, &m.Email, &m.Mobile, &m.CurrentPosition, &m.Institute,
		&m.Department, &m.Organisation, &m.Address, &m.Town, &m.Postcode, &m.State, &m.Country, &m.Status,
		&m.LinkedIn, &m.ORCID, &m.ResearchGate, &m.MembershipFee, &m.ProfilePhoto, &m.PaymentStatus,
		&m.MembershipID, &m.IssueDate, &m.ExpiryDate, &m.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &m, nil
}

// nextSequence increments the counter for year and returns the new value.
// The upsert takes a row lock, so concurrent callers are serialized until
// their transactions end.
func nextSequence(ctx context.Context, tx pgx.Tx, year int) (int, error) {
	query := `
		INSERT INTO membership_sequences (year, last_value)
		VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET last_value = membership_sequences.last_value + 1
		RETURNING last_value
	`

	var seq int
	if err := tx.QueryRow(ctx, query, year).Scan(&seq); err != nil {
		return 0, database.MapPostgresError(err)
	}

	return seq, nil
}

// Create assigns the next membership ID for the issue year and inserts the
// record in the same transaction. MembershipID on the input is ignored.
func (r *MembershipRepository) Create(ctx context.Context, m *models.Membership) (*models.Membership, error) {
	m.ID = uuid.New().String()
	m.CreatedAt = time.Now()

	var created *models.Membership
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		seq, err := nextSequence(ctx, tx, m.IssueDate.Year())
		if err != nil {
			return fmt.Errorf("failed to allocate membership ID: %w", err)
		}
		m.MembershipID = models.FormatMembershipID(m.IssueDate.Year(), seq)

		query := `
			INSERT INTO memberships (` + membershipColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
				$19, $20, $21, $22, $23, $24, $25, $26)
			RETURNING ` + membershipColumns

		created, err = scanMembershipRow(tx.QueryRow(ctx, query,
			m.ID, m.Title, m.FirstName, m.LastName, m.Email, m.Mobile, m.CurrentPosition, m.Institute,
			m.Department, m.Organisation, m.Address, m.Town, m.Postcode, m.State, m.Country, m.Status,
			m.LinkedIn, m.ORCID, m.ResearchGate, m.MembershipFee, m.ProfilePhoto, m.PaymentStatus,
			m.MembershipID, m.IssueDate, m.ExpiryDate, m.CreatedAt,
		))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}

	return created, nil
}

func (r *MembershipRepository) GetByMembershipID(ctx context.Context, membershipID string) (*models.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE membership_id = $1`

	return scanMembershipRow(r.db.Pool.QueryRow(ctx, query, membershipID))
}

// GetLatestByEmail returns the most recently created membership for email.
func (r *MembershipRepository) GetLatestByEmail(ctx context.Context, email string) (*models.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE email = $1 ORDER BY created_at DESC LIMIT 1`

	return scanMembershipRow(r.db.Pool.QueryRow(ctx, query, email))
}

func (r *MembershipRepository) UpdatePaymentStatus(ctx context.Context, membershipID, status string) (*models.Membership, error) {
	query := `
		UPDATE memberships SET payment_status = $2
		WHERE membership_id = $1
		RETURNING ` + membershipColumns

	return scanMembershipRow(r.db.Pool.QueryRow(ctx, query, membershipID, status))
}

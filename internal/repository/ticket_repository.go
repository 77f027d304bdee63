package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/portyard/port-ticket-service/internal/domain"
)

// TicketFilter narrows ticket listings.
type TicketFilter struct {
	ClientID    *string
	ContainerID *string
	States      []domain.TicketState
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	ChangeState(ctx context.Context, id string, state domain.TicketState) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, code, client_id, container_id, transporter, driver, plate, shift, zone_id,
               state, slot_id, created_at, updated_at, entered_at, handling_finished_at, completed_at, exited_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (code, client_id, container_id, transporter, driver, plate, shift, zone_id, state, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
        RETURNING id, created_at, updated_at`
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		ticket.Code,
		ticket.ClientID,
		ticket.ContainerID,
		ticket.Transporter,
		ticket.Driver,
		ticket.Plate,
		ticket.Shift,
		ticket.ZoneID,
		ticket.State,
		ticket.CreatedAt,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create ticket: %w", conflict(err, "code"))
	}
	return nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET transporter=$1, driver=$2, plate=$3, shift=$4, zone_id=$5, state=$6, slot_id=$7,
            entered_at=$8, handling_finished_at=$9, completed_at=$10, exited_at=$11, updated_at=$12
        WHERE id=$13`
	cmd, err := conn(ctx, r.pool).Exec(ctx, query,
		ticket.Transporter,
		ticket.Driver,
		ticket.Plate,
		ticket.Shift,
		ticket.ZoneID,
		ticket.State,
		ticket.SlotID,
		ticket.EnteredAt,
		ticket.HandlingFinishedAt,
		ticket.CompletedAt,
		ticket.ExitedAt,
		ticket.UpdatedAt,
		ticket.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update ticket %s: %w", ticket.ID, domain.ErrSlotHeld)
		}
		return fmt.Errorf("update ticket %s: %w", ticket.ID, lookupErr(err, "ticket", ticket.ID))
	}
	return affected(cmd, "ticket", ticket.ID)
}

func (r *ticketRepository) ChangeState(ctx context.Context, id string, state domain.TicketState) error {
	const query = `UPDATE tickets SET state=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := conn(ctx, r.pool).Exec(ctx, query, state, id)
	if err != nil {
		return fmt.Errorf("change ticket state: %w", lookupErr(err, "ticket", id))
	}
	return affected(cmd, "ticket", id)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete ticket: %w", lookupErr(err, "ticket", id))
	}
	return affected(cmd, "ticket", id)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := scanTicket(conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, lookupErr(err, "ticket", id)
	}
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		clauses = append(clauses, fmt.Sprintf("client_id=$%d", len(args)))
	}
	if filter.ContainerID != nil {
		args = append(args, *filter.ContainerID)
		clauses = append(clauses, fmt.Sprintf("container_id=$%d", len(args)))
	}
	if len(filter.States) > 0 {
		placeholders := make([]string, len(filter.States))
		for i, state := range filter.States {
			args = append(args, state)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("state IN (%s)", strings.Join(placeholders, ",")))
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at ASC, id ASC`,
		ticketColumns, strings.Join(clauses, " AND "))

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Code,
		&ticket.ClientID,
		&ticket.ContainerID,
		&ticket.Transporter,
		&ticket.Driver,
		&ticket.Plate,
		&ticket.Shift,
		&ticket.ZoneID,
		&ticket.State,
		&ticket.SlotID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.EnteredAt,
		&ticket.HandlingFinishedAt,
		&ticket.CompletedAt,
		&ticket.ExitedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

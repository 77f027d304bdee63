package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/portyard/port-ticket-service/internal/domain"
	"github.com/portyard/port-ticket-service/internal/repository"
)

// NewRegistry exposes the upstream API through the repository contract.
func NewRegistry(c *Client) repository.Registry {
	return repository.Registry{
		Users:      &userResource{c: c},
		Tickets:    &ticketResource{c: c},
		Containers: &containerResource{c: c},
		Zones:      &zoneResource{c: c},
		Slots:      &slotResource{c: c},
		Reference:  &referenceResource{c: c},
	}
}

func itemPath(collection, id string) string {
	return fmt.Sprintf("/%s/%s/", collection, url.PathEscape(id))
}

type userResource struct{ c *Client }

func (r *userResource) Create(ctx context.Context, user *domain.User) error {
	body, err := r.toWire(ctx, user)
	if err != nil {
		return err
	}
	var created wireUser
	if err := r.c.do(ctx, fiber.MethodPost, "/usuarios/", nil, body, &created); err != nil {
		return err
	}
	*user = mergeUser(created.toDomain(), user)
	return nil
}

func (r *userResource) Update(ctx context.Context, user *domain.User) error {
	body, err := r.toWire(ctx, user)
	if err != nil {
		return err
	}
	var updated wireUser
	if err := r.c.do(ctx, fiber.MethodPut, itemPath("usuarios", user.ID), nil, body, &updated); err != nil {
		return err
	}
	*user = mergeUser(updated.toDomain(), user)
	return nil
}

func (r *userResource) Delete(ctx context.Context, id string) error {
	return r.c.do(ctx, fiber.MethodDelete, itemPath("usuarios", id), nil, nil, nil)
}

func (r *userResource) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var w wireUser
	if err := r.c.get(ctx, itemPath("usuarios", id), nil, &w); err != nil {
		return nil, err
	}
	u := w.toDomain()
	return &u, nil
}

// GetByEmail scans the user list; the API has no lookup by email.
func (r *userResource) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].Email, strings.TrimSpace(email)) {
			return &users[i], nil
		}
	}
	return nil, domain.NotFound("user", email)
}

func (r *userResource) List(ctx context.Context) ([]domain.User, error) {
	var ws []wireUser
	if err := r.c.get(ctx, "/usuarios/", nil, &ws); err != nil {
		return nil, err
	}
	return usersFromWire(ws), nil
}

func (r *userResource) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	var ws []wireUser
	if err := r.c.get(ctx, "/usuarios/by_role/", url.Values{"role": {roleNames[role]}}, &ws); err != nil {
		return nil, err
	}
	return usersFromWire(ws), nil
}

// Authenticate delegates the password check to the upstream login endpoint.
func (r *userResource) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	var resp wireLogin
	err := r.c.do(ctx, fiber.MethodPost, "/usuarios/login/", nil, map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		var ue *domain.UpstreamError
		if errors.As(err, &ue) && (ue.Status == fiber.StatusUnauthorized || ue.Status == fiber.StatusNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	u := resp.User.toDomain()
	return &u, nil
}

func (r *userResource) toWire(ctx context.Context, user *domain.User) (wireUser, error) {
	roleID, err := r.roleID(ctx, user.Role)
	if err != nil {
		return wireUser{}, err
	}
	phone, company := user.Phone, user.Company
	return wireUser{
		ID:            flexID(user.ID),
		Nombre:        user.Name,
		Email:         user.Email,
		Password:      user.PasswordHash, // raw secret; the API hashes it
		Telefono:      &phone,
		Empresa:       &company,
		IDRol:         roleID,
		IDNivelAcceso: flexID(user.AccessLevelID),
		Activo:        user.Active,
	}, nil
}

func (r *userResource) roleID(ctx context.Context, role domain.Role) (flexID, error) {
	var roles []wireRole
	if err := r.c.get(ctx, "/roles/", nil, &roles); err != nil {
		return "", err
	}
	for _, wr := range roles {
		if parsed, ok := domain.ParseRole(wr.Rol); ok && parsed == role {
			return wr.ID, nil
		}
	}
	return "", domain.Invalid("role", fmt.Sprintf("%s is not known upstream", role))
}

// mergeUser keeps the role of the request when the answer omits rol_nombre.
func mergeUser(got domain.User, sent *domain.User) domain.User {
	if got.Role == "" {
		got.Role = sent.Role
	}
	return got
}

func usersFromWire(ws []wireUser) []domain.User {
	out := make([]domain.User, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toDomain())
	}
	return out
}

type ticketResource struct{ c *Client }

func (r *ticketResource) Create(ctx context.Context, ticket *domain.Ticket) error {
	var created wireTicket
	if err := r.c.do(ctx, fiber.MethodPost, "/tickets/", nil, ticketToWire(ticket), &created); err != nil {
		return err
	}
	got, err := created.toDomain()
	if err != nil {
		return err
	}
	ticket.ID = got.ID
	if got.Code != "" && ticket.Code == "" {
		ticket.Code = got.Code
	}
	if !got.CreatedAt.IsZero() {
		ticket.CreatedAt = got.CreatedAt
	}
	return nil
}

func (r *ticketResource) Update(ctx context.Context, ticket *domain.Ticket) error {
	return r.c.do(ctx, fiber.MethodPatch, itemPath("tickets", ticket.ID), nil, ticketToWire(ticket), nil)
}

func (r *ticketResource) ChangeState(ctx context.Context, id string, state domain.TicketState) error {
	path := itemPath("tickets", id) + "cambiar_estado/"
	return r.c.do(ctx, fiber.MethodPatch, path, nil, wireStateChange{Estado: StateName(state)}, nil)
}

func (r *ticketResource) Delete(ctx context.Context, id string) error {
	return r.c.do(ctx, fiber.MethodDelete, itemPath("tickets", id), nil, nil, nil)
}

func (r *ticketResource) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	var w wireTicket
	if err := r.c.get(ctx, itemPath("tickets", id), nil, &w); err != nil {
		return nil, err
	}
	t, err := w.toDomain()
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List uses by_usuario or by_estado when the filter allows it and applies
// the rest of the filter locally.
func (r *ticketResource) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	path, query := "/tickets/", url.Values(nil)
	switch {
	case filter.ClientID != nil:
		path, query = "/tickets/by_usuario/", url.Values{"usuario_id": {*filter.ClientID}}
	case len(filter.States) == 1:
		path, query = "/tickets/by_estado/", url.Values{"estado": {StateName(filter.States[0])}}
	}

	var ws []wireTicket
	if err := r.c.get(ctx, path, query, &ws); err != nil {
		return nil, err
	}

	allowed := make(map[domain.TicketState]bool, len(filter.States))
	for _, s := range filter.States {
		allowed[s] = true
	}
	out := make([]domain.Ticket, 0, len(ws))
	for _, w := range ws {
		t, err := w.toDomain()
		if err != nil {
			return nil, err
		}
		if len(allowed) > 0 && !allowed[t.State] {
			continue
		}
		if filter.ContainerID != nil && t.ContainerID != *filter.ContainerID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

type containerResource struct{ c *Client }

func (r *containerResource) Create(ctx context.Context, container *domain.Container) error {
	var created wireContainer
	if err := r.c.do(ctx, fiber.MethodPost, "/contenedores/", nil, containerToWire(container), &created); err != nil {
		return err
	}
	container.ID = string(created.ID)
	if container.Location == "" {
		container.Location = domain.LocationInTransit
	}
	return nil
}

func (r *containerResource) Update(ctx context.Context, container *domain.Container) error {
	return r.c.do(ctx, fiber.MethodPut, itemPath("contenedores", container.ID), nil, containerToWire(container), nil)
}

func (r *containerResource) Delete(ctx context.Context, id string) error {
	return r.c.do(ctx, fiber.MethodDelete, itemPath("contenedores", id), nil, nil, nil)
}

func (r *containerResource) GetByID(ctx context.Context, id string) (*domain.Container, error) {
	var w wireContainer
	if err := r.c.get(ctx, itemPath("contenedores", id), nil, &w); err != nil {
		return nil, err
	}
	c := w.toDomain()
	if c.ShipID != nil {
		var ship wireShip
		if err := r.c.get(ctx, itemPath("buques", *c.ShipID), nil, &ship); err == nil {
			c.ShippingLine = ship.LineaNaviera
		}
	}
	return &c, nil
}

func (r *containerResource) List(ctx context.Context) ([]domain.Container, error) {
	var ws []wireContainer
	if err := r.c.get(ctx, "/contenedores/", nil, &ws); err != nil {
		return nil, err
	}
	var ships []wireShip
	if err := r.c.get(ctx, "/buques/", nil, &ships); err != nil {
		return nil, err
	}
	lines := make(map[string]string, len(ships))
	for _, s := range ships {
		lines[string(s.ID)] = s.LineaNaviera
	}

	out := make([]domain.Container, 0, len(ws))
	for _, w := range ws {
		c := w.toDomain()
		if c.ShipID != nil {
			c.ShippingLine = lines[*c.ShipID]
		}
		out = append(out, c)
	}
	return out, nil
}

type zoneResource struct{ c *Client }

func (r *zoneResource) List(ctx context.Context) ([]domain.Zone, error) {
	var ws []wireZone
	if err := r.c.get(ctx, "/zonas/", nil, &ws); err != nil {
		return nil, err
	}
	out := make([]domain.Zone, 0, len(ws))
	for _, w := range ws {
		out = append(out, domain.Zone{ID: string(w.ID), Name: w.Nombre, Capacity: w.Capacidad})
	}
	return out, nil
}

func (r *zoneResource) GetByID(ctx context.Context, id string) (*domain.Zone, error) {
	var w wireZone
	if err := r.c.get(ctx, itemPath("zonas", id), nil, &w); err != nil {
		return nil, err
	}
	return &domain.Zone{ID: string(w.ID), Name: w.Nombre, Capacity: w.Capacidad}, nil
}

type slotResource struct{ c *Client }

func (r *slotResource) List(ctx context.Context) ([]domain.Slot, error) {
	var ws []wireSlot
	if err := r.c.get(ctx, "/slots/", nil, &ws); err != nil {
		return nil, err
	}
	out := make([]domain.Slot, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toDomain())
	}
	return out, nil
}

func (r *slotResource) GetByID(ctx context.Context, id string) (*domain.Slot, error) {
	var w wireSlot
	if err := r.c.get(ctx, itemPath("slots", id), nil, &w); err != nil {
		return nil, err
	}
	s := w.toDomain()
	return &s, nil
}

func (r *slotResource) SetSlotAvailability(ctx context.Context, id string, available bool) error {
	estado := slotOccupied
	if available {
		estado = slotFree
	}
	return r.c.do(ctx, fiber.MethodPatch, itemPath("slots", id), nil, wireSlotPatch{Estado: estado}, nil)
}

type referenceResource struct{ c *Client }

func (r *referenceResource) ListShips(ctx context.Context) ([]domain.Ship, error) {
	var ws []wireShip
	if err := r.c.get(ctx, "/buques/", nil, &ws); err != nil {
		return nil, err
	}
	out := make([]domain.Ship, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toDomain())
	}
	return out, nil
}

func (r *referenceResource) GetShip(ctx context.Context, id string) (*domain.Ship, error) {
	var w wireShip
	if err := r.c.get(ctx, itemPath("buques", id), nil, &w); err != nil {
		return nil, err
	}
	s := w.toDomain()
	return &s, nil
}

func (r *referenceResource) ListRoles(ctx context.Context) ([]domain.RoleRecord, error) {
	var ws []wireRole
	if err := r.c.get(ctx, "/roles/", nil, &ws); err != nil {
		return nil, err
	}
	out := make([]domain.RoleRecord, 0, len(ws))
	for _, w := range ws {
		out = append(out, domain.RoleRecord{ID: string(w.ID), Name: w.Rol})
	}
	return out, nil
}

func (r *referenceResource) ListAccessLevels(ctx context.Context) ([]domain.AccessLevel, error) {
	var ws []wireLevel
	if err := r.c.get(ctx, "/niveles/", nil, &ws); err != nil {
		return nil, err
	}
	out := make([]domain.AccessLevel, 0, len(ws))
	for _, w := range ws {
		out = append(out, domain.AccessLevel{ID: string(w.ID), Name: w.Nivel})
	}
	return out, nil
}

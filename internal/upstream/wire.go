package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/portyard/port-ticket-service/internal/domain"
)

// flexID accepts numeric or string ids and renders digit-only ids as numbers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

func (f flexID) MarshalJSON() ([]byte, error) {
	if f == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseInt(string(f), 10, 64); err == nil {
		return []byte(f), nil
	}
	return json.Marshal(string(f))
}

func optionalID(id *string) flexID {
	if id == nil {
		return ""
	}
	return flexID(*id)
}

func (f flexID) ptr() *string {
	if f == "" {
		return nil
	}
	s := string(f)
	return &s
}

var stateNames = map[domain.TicketState]string{
	domain.TicketStatePending:    "Pendiente",
	domain.TicketStateQueued:     "En Cola",
	domain.TicketStateValidated:  "Validado",
	domain.TicketStateInProgress: "En Proceso",
	domain.TicketStateCompleted:  "Completado",
	domain.TicketStateWithdrawn:  "Retirado",
	domain.TicketStateCancelled:  "Cancelado",
}

// StateName returns the upstream spelling of state.
func StateName(state domain.TicketState) string {
	if name, ok := stateNames[state]; ok {
		return name
	}
	return string(state)
}

// ParseState maps an upstream state label to a TicketState.
func ParseState(raw string) (domain.TicketState, bool) {
	trimmed := strings.TrimSpace(raw)
	for state, name := range stateNames {
		if strings.EqualFold(name, trimmed) || strings.EqualFold(string(state), trimmed) {
			return state, true
		}
	}
	return "", false
}

var roleNames = map[domain.Role]string{
	domain.RoleClient:   "CLIENTE",
	domain.RoleOperator: "OPERARIO",
	domain.RoleAdmin:    "ADMINISTRADOR",
}

const (
	slotFree     = "Disponible"
	slotOccupied = "Ocupado"
)

type wireRole struct {
	ID  flexID `json:"id"`
	Rol string `json:"rol"`
}

type wireLevel struct {
	ID    flexID `json:"id"`
	Nivel string `json:"nivel"`
}

type wireUser struct {
	ID                flexID     `json:"id,omitempty"`
	Nombre            string     `json:"nombre"`
	Email             string     `json:"email"`
	Password          string     `json:"password,omitempty"`
	Telefono          *string    `json:"telefono"`
	Empresa           *string    `json:"empresa"`
	IDRol             flexID     `json:"id_rol"`
	RolNombre         string     `json:"rol_nombre,omitempty"`
	IDNivelAcceso     flexID     `json:"id_nivel_acceso"`
	FechaCreacion     *time.Time `json:"fecha_creacion,omitempty"`
	FechaModificacion *time.Time `json:"fecha_modificacion,omitempty"`
	Activo            bool       `json:"activo"`
}

func (w wireUser) toDomain() domain.User {
	u := domain.User{
		ID:            string(w.ID),
		Name:          w.Nombre,
		Email:         w.Email,
		AccessLevelID: string(w.IDNivelAcceso),
		Active:        w.Activo,
	}
	if role, ok := domain.ParseRole(w.RolNombre); ok {
		u.Role = role
	}
	if w.Telefono != nil {
		u.Phone = *w.Telefono
	}
	if w.Empresa != nil {
		u.Company = *w.Empresa
	}
	if w.FechaCreacion != nil {
		u.CreatedAt = *w.FechaCreacion
	}
	if w.FechaModificacion != nil {
		u.UpdatedAt = *w.FechaModificacion
	}
	return u
}

type wireLogin struct {
	User    wireUser `json:"user"`
	Message string   `json:"message"`
}

type wireTicket struct {
	ID                flexID     `json:"id,omitempty"`
	Codigo            string     `json:"codigo,omitempty"`
	FechaHoraEntrada  *time.Time `json:"fecha_hora_entrada,omitempty"`
	FechaHoraSalida   *time.Time `json:"fecha_hora_salida"`
	FechaModificacion *time.Time `json:"fecha_modificacion,omitempty"`
	Estado            string     `json:"estado"`
	IDUbicacion       flexID     `json:"id_ubicacion"`
	IDUsuario         flexID     `json:"id_usuario"`
	IDContenedor      flexID     `json:"id_contenedor"`
	IDZona            flexID     `json:"id_zona,omitempty"`
	Transportista     string     `json:"transportista,omitempty"`
	Conductor         string     `json:"conductor,omitempty"`
	Placa             string     `json:"placa,omitempty"`
	Turno             string     `json:"turno,omitempty"`
	FechaIngreso      *time.Time `json:"fecha_ingreso,omitempty"`
	FechaFinManiobra  *time.Time `json:"fecha_fin_maniobra,omitempty"`
	FechaCompletado   *time.Time `json:"fecha_completado,omitempty"`
}

func ticketToWire(t *domain.Ticket) wireTicket {
	w := wireTicket{
		ID:               flexID(t.ID),
		Codigo:           t.Code,
		FechaHoraSalida:  t.ExitedAt,
		Estado:           StateName(t.State),
		IDUbicacion:      optionalID(t.SlotID),
		IDUsuario:        flexID(t.ClientID),
		IDContenedor:     flexID(t.ContainerID),
		IDZona:           optionalID(t.ZoneID),
		Transportista:    t.Transporter,
		Conductor:        t.Driver,
		Placa:            t.Plate,
		Turno:            t.Shift,
		FechaIngreso:     t.EnteredAt,
		FechaFinManiobra: t.HandlingFinishedAt,
		FechaCompletado:  t.CompletedAt,
	}
	if !t.CreatedAt.IsZero() {
		created := t.CreatedAt
		w.FechaHoraEntrada = &created
	}
	return w
}

func (w wireTicket) toDomain() (domain.Ticket, error) {
	state, ok := ParseState(w.Estado)
	if !ok {
		return domain.Ticket{}, fmt.Errorf("%w: unknown ticket state %q", domain.ErrUpstreamFailure, w.Estado)
	}
	t := domain.Ticket{
		ID:                 string(w.ID),
		Code:               w.Codigo,
		ClientID:           string(w.IDUsuario),
		ContainerID:        string(w.IDContenedor),
		Transporter:        w.Transportista,
		Driver:             w.Conductor,
		Plate:              w.Placa,
		Shift:              w.Turno,
		ZoneID:             w.IDZona.ptr(),
		State:              state,
		ExitedAt:           w.FechaHoraSalida,
		EnteredAt:          w.FechaIngreso,
		HandlingFinishedAt: w.FechaFinManiobra,
		CompletedAt:        w.FechaCompletado,
	}
	if t.Code == "" {
		t.Code = legacyCode(t.ID)
	}
	if state.HoldsSlot() {
		t.SlotID = w.IDUbicacion.ptr()
	}
	if w.FechaHoraEntrada != nil {
		t.CreatedAt = *w.FechaHoraEntrada
	}
	t.UpdatedAt = t.CreatedAt
	if w.FechaModificacion != nil {
		t.UpdatedAt = *w.FechaModificacion
	}
	return t, nil
}

// legacyCode derives a ticket code for rows created before codes existed.
func legacyCode(id string) string {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return fmt.Sprintf("TCK-%08d", n)
	}
	return "TCK-" + strings.ToUpper(id)
}

type wireStateChange struct {
	Estado string `json:"estado"`
}

type wireContainer struct {
	ID               flexID  `json:"id,omitempty"`
	CodigoBarras     *string `json:"codigo_barras"`
	NumeroContenedor *string `json:"numero_contenedor"`
	Dimensiones      string  `json:"dimensiones"`
	Tipo             string  `json:"tipo"`
	Peso             float64 `json:"peso"`
	IDBuque          flexID  `json:"id_buque"`
	BuqueNombre      string  `json:"buque_nombre,omitempty"`
}

func containerToWire(c *domain.Container) wireContainer {
	code := c.Code
	return wireContainer{
		ID:               flexID(c.ID),
		CodigoBarras:     &code,
		NumeroContenedor: &code,
		Dimensiones:      c.Dimensions,
		Tipo:             c.Type,
		Peso:             c.WeightKg,
		IDBuque:          optionalID(c.ShipID),
	}
}

func (w wireContainer) toDomain() domain.Container {
	c := domain.Container{
		ID:         string(w.ID),
		Type:       w.Tipo,
		Dimensions: w.Dimensiones,
		WeightKg:   w.Peso,
		ShipID:     w.IDBuque.ptr(),
		Location:   domain.LocationInTransit,
	}
	switch {
	case w.NumeroContenedor != nil && *w.NumeroContenedor != "":
		c.Code = *w.NumeroContenedor
	case w.CodigoBarras != nil:
		c.Code = *w.CodigoBarras
	}
	return c
}

type wireZone struct {
	ID        flexID `json:"id"`
	Nombre    string `json:"nombre"`
	Capacidad int    `json:"capacidad"`
}

type wireSlot struct {
	ID      flexID `json:"id"`
	Fila    int    `json:"fila"`
	Columna int    `json:"columna"`
	Nivel   int    `json:"nivel"`
	Estado  string `json:"estado"`
	IDZona  flexID `json:"id_zona"`
}

func (w wireSlot) toDomain() domain.Slot {
	return domain.Slot{
		ID:        string(w.ID),
		ZoneID:    string(w.IDZona),
		Row:       w.Fila,
		Column:    w.Columna,
		Tier:      w.Nivel,
		Available: !strings.EqualFold(w.Estado, slotOccupied),
	}
}

type wireSlotPatch struct {
	Estado string `json:"estado"`
}

type wireShip struct {
	ID           flexID `json:"id"`
	Nombre       string `json:"nombre"`
	LineaNaviera string `json:"linea_naviera"`
}

func (w wireShip) toDomain() domain.Ship {
	return domain.Ship{ID: string(w.ID), Name: w.Nombre, ShippingLine: w.LineaNaviera}
}

/*
dto.go - Request/response data structures

PURPOSE:
  JSON shapes for the HTTP API. Field names follow the frontend's wire
  format (dirigente, explanator, reader, isUnited, disponibilizada), so
  the existing UI talks to this server without a translation layer.

  Decimal quantities travel as strings. JSON numbers are float64 and the
  whole point of decimal stock-keeping is lost the moment a quantity
  round-trips through one.
*/
package api

import (
	"time"

	"github.com/warp/vegetal-engine/vegetal"
)

// =============================================================================
// AUTH
// =============================================================================

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// =============================================================================
// STOCK
// =============================================================================

type BatchDTO struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Quantity        string `json:"quantity"`
	IsBalance       bool   `json:"isBalance,omitempty"`
	EnvaseDate      string `json:"envaseDate,omitempty"`
	Master          string `json:"master,omitempty"`
	Auxiliary       string `json:"auxiliary,omitempty"`
	Messenger       string `json:"messenger,omitempty"`
	ChacronaResp    string `json:"chacronaResp,omitempty"`
	BatidaoResp     string `json:"batidaoResp,omitempty"`
	MaririSpecies   string `json:"maririSpecies,omitempty"`
	ChacronaSpecies string `json:"chacronaSpecies,omitempty"`
}

func toBatchDTO(b vegetal.Batch) BatchDTO {
	p := b.Provenance
	return BatchDTO{
		ID:              string(b.ID),
		Name:            b.Name,
		Quantity:        b.Quantity.String(),
		IsBalance:       b.IsBalance,
		EnvaseDate:      p.EnvaseDate,
		Master:          p.Master,
		Auxiliary:       p.Auxiliary,
		Messenger:       p.Messenger,
		ChacronaResp:    p.ChacronaResp,
		BatidaoResp:     p.BatidaoResp,
		MaririSpecies:   p.MaririSpecies,
		ChacronaSpecies: p.ChacronaSpecies,
	}
}

func (d BatchDTO) toDomain() vegetal.Batch {
	return vegetal.Batch{
		ID:       vegetal.BatchID(d.ID),
		Name:     d.Name,
		Quantity: vegetal.ParseLiters(d.Quantity),
		Provenance: vegetal.Provenance{
			EnvaseDate:      d.EnvaseDate,
			Master:          d.Master,
			Auxiliary:       d.Auxiliary,
			Messenger:       d.Messenger,
			ChacronaResp:    d.ChacronaResp,
			BatidaoResp:     d.BatidaoResp,
			MaririSpecies:   d.MaririSpecies,
			ChacronaSpecies: d.ChacronaSpecies,
		},
		IsBalance: d.IsBalance,
	}
}

// QuantityRequest carries one decimal amount (exit quantity or adjustment
// target).
type QuantityRequest struct {
	Quantity string `json:"quantity"`
}

type MovementDTO struct {
	ID          string `json:"id"`
	VegetalID   string `json:"vegetalId"`
	VegetalName string `json:"vegetalName"`
	SessionID   string `json:"sessionId,omitempty"`
	Type        string `json:"type"`
	Quantity    string `json:"quantity"`
	Date        string `json:"date"`
}

func toMovementDTO(m vegetal.MovementRecord) MovementDTO {
	return MovementDTO{
		ID:          string(m.ID),
		VegetalID:   string(m.BatchID),
		VegetalName: m.BatchName,
		SessionID:   string(m.SessionID),
		Type:        string(m.Kind),
		Quantity:    m.Quantity.String(),
		Date:        m.OccurredAt.UTC().Format(time.RFC3339),
	}
}

// =============================================================================
// SESSIONS
// =============================================================================

type ClaimDTO struct {
	VegetalID       string `json:"vegetalId"`
	Disponibilizada string `json:"disponibilizada"`
}

type ConsumptionDTO struct {
	IsUnited      bool       `json:"isUnited"`
	Vegetals      []ClaimDTO `json:"vegetals"`
	TotalConsumed string     `json:"totalConsumed"`
}

type ParticipantsDTO struct {
	Mestres         int `json:"mestres"`
	Conselho        int `json:"conselho"`
	CorpoInstrutivo int `json:"corpoInstrutivo"`
	QuadroDeSocios  int `json:"quadroDeSocios"`
	Visitantes      int `json:"visitantes"`
	Jovens          int `json:"jovens"`
}

type SessionDTO struct {
	ID                string          `json:"id"`
	Date              string          `json:"date"` // yyyy-mm-dd
	Type              string          `json:"type"`
	Dirigente         string          `json:"dirigente"`
	Explanator        string          `json:"explanator"`
	Reader            string          `json:"reader"`
	AssistantMaster   string          `json:"assistantMaster"`
	Chamadas          string          `json:"chamadas"`
	Stories           string          `json:"stories"`
	HasPhotoRecording bool            `json:"hasPhotoRecording"`
	HasAudioRecording bool            `json:"hasAudioRecording"`
	Participants      ParticipantsDTO `json:"participants"`
	Consumption       ConsumptionDTO  `json:"consumption"`
}

func toSessionDTO(s vegetal.Session) SessionDTO {
	claims := make([]ClaimDTO, 0, len(s.Consumption.Claims))
	for _, c := range s.Consumption.Claims {
		claims = append(claims, ClaimDTO{
			VegetalID:       string(c.BatchID),
			Disponibilizada: c.MadeAvailable.String(),
		})
	}
	return SessionDTO{
		ID:                string(s.ID),
		Date:              s.Date.Format("2006-01-02"),
		Type:              string(s.Type),
		Dirigente:         s.Dirigente,
		Explanator:        s.Explanador,
		Reader:            s.Leitor,
		AssistantMaster:   s.AssistantMaster,
		Chamadas:          s.Chamadas,
		Stories:           s.Stories,
		HasPhotoRecording: s.HasPhoto,
		HasAudioRecording: s.HasAudio,
		Participants: ParticipantsDTO{
			Mestres:         s.Participants.Mestres,
			Conselho:        s.Participants.Conselho,
			CorpoInstrutivo: s.Participants.CorpoInstrutivo,
			QuadroDeSocios:  s.Participants.QuadroDeSocios,
			Visitantes:      s.Participants.Visitantes,
			Jovens:          s.Participants.Jovens,
		},
		Consumption: ConsumptionDTO{
			IsUnited:      s.Consumption.IsShared,
			Vegetals:      claims,
			TotalConsumed: s.Consumption.TotalConsumed.String(),
		},
	}
}

func (d SessionDTO) toDomain() (vegetal.Session, error) {
	date, err := time.Parse("2006-01-02", d.Date)
	if err != nil {
		return vegetal.Session{}, err
	}
	claims := make([]vegetal.Claim, 0, len(d.Consumption.Vegetals))
	for _, c := range d.Consumption.Vegetals {
		claims = append(claims, vegetal.Claim{
			BatchID:       vegetal.BatchID(c.VegetalID),
			MadeAvailable: vegetal.ParseLiters(c.Disponibilizada),
		})
	}
	return vegetal.Session{
		ID:              vegetal.SessionID(d.ID),
		Date:            date,
		Type:            vegetal.SessionType(d.Type),
		Dirigente:       d.Dirigente,
		Explanador:      d.Explanator,
		Leitor:          d.Reader,
		AssistantMaster: d.AssistantMaster,
		Chamadas:        d.Chamadas,
		Stories:         d.Stories,
		HasPhoto:        d.HasPhotoRecording,
		HasAudio:        d.HasAudioRecording,
		Participants: vegetal.ParticipantCount{
			Mestres:         d.Participants.Mestres,
			Conselho:        d.Participants.Conselho,
			CorpoInstrutivo: d.Participants.CorpoInstrutivo,
			QuadroDeSocios:  d.Participants.QuadroDeSocios,
			Visitantes:      d.Participants.Visitantes,
			Jovens:          d.Participants.Jovens,
		},
		Consumption: vegetal.Consumption{
			IsShared:      d.Consumption.IsUnited,
			Claims:        claims,
			TotalConsumed: vegetal.ParseLiters(d.Consumption.TotalConsumed),
		},
	}, nil
}

// =============================================================================
// SOCIOS
// =============================================================================

type RenameSociosRequest struct {
	Updates []NameUpdateDTO `json:"updates"`
}

type NameUpdateDTO struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// =============================================================================
// COMMON
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

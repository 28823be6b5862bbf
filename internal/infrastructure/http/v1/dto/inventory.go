package dto

import (
	"time"

	"saldo/internal/core/entity"
	"saldo/internal/core/types"
)

// --- Response DTOs ---

// PositionResponse is the response body for one stock position.
type PositionResponse struct {
	ProductID      string         `json:"productId"`
	StoreID        string         `json:"storeId"`
	Quantity       types.Quantity `json:"quantity"`
	AvgCost        types.Money    `json:"avgCost"`
	Value          types.Money    `json:"value"`
	LastMovementAt time.Time      `json:"lastMovementAt,omitzero"`
	UpdatedAt      time.Time      `json:"updatedAt,omitzero"`
}

// FromPosition creates response DTO from a stock position.
func FromPosition(pos *entity.InventoryPosition) *PositionResponse {
	return &PositionResponse{
		ProductID:      pos.ProductID.String(),
		StoreID:        pos.StoreID.String(),
		Quantity:       pos.Quantity,
		AvgCost:        pos.AvgCost,
		Value:          pos.Value(),
		LastMovementAt: pos.LastMovementAt,
		UpdatedAt:      pos.UpdatedAt,
	}
}

// FromPositions maps stock positions to response DTOs.
func FromPositions(positions []*entity.InventoryPosition) []*PositionResponse {
	out := make([]*PositionResponse, 0, len(positions))
	for _, pos := range positions {
		out = append(out, FromPosition(pos))
	}
	return out
}

// MovementResponse is the response body for one inventory movement.
type MovementResponse struct {
	LineID       string            `json:"lineId"`
	RecorderID   string            `json:"recorderId"`
	RecorderKind string            `json:"recorderKind"`
	Attempt      int               `json:"attempt"`
	Period       time.Time         `json:"period"`
	RecordType   entity.RecordType `json:"recordType"`
	StoreID      string            `json:"storeId"`
	ProductID    string            `json:"productId"`
	Quantity     types.Quantity    `json:"quantity"`
	UnitCost     types.Money       `json:"unitCost"`
	Value        types.Money       `json:"value"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// FromMovement creates response DTO from an inventory movement.
func FromMovement(m *entity.InventoryMovement) *MovementResponse {
	return &MovementResponse{
		LineID:       m.LineID.String(),
		RecorderID:   m.RecorderID.String(),
		RecorderKind: m.RecorderKind,
		Attempt:      m.Attempt,
		Period:       m.Period,
		RecordType:   m.RecordType,
		StoreID:      m.StoreID.String(),
		ProductID:    m.ProductID.String(),
		Quantity:     m.Quantity,
		UnitCost:     m.UnitCost,
		Value:        m.Value,
		CreatedAt:    m.CreatedAt,
	}
}

// FromMovements maps inventory movements to response DTOs.
func FromMovements(movements []*entity.InventoryMovement) []*MovementResponse {
	out := make([]*MovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, FromMovement(m))
	}
	return out
}

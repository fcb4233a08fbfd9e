package domain

import (
	"time"

	"github.com/nitin16112004/live-shopping-application/pkg/database"
)

// RoomModel is the GORM model for the shopping_rooms table. The row is
// written by the seller-facing room surface; this service reads it and
// mirrors the viewer count back.
type RoomModel struct {
	ID             string               `gorm:"type:varchar(36);primaryKey"`
	SellerID       string               `gorm:"type:varchar(36);index;not null"`
	SellerUsername string               `gorm:"type:varchar(50);not null"`
	Title          string               `gorm:"type:varchar(200);not null"`
	Description    string               `gorm:"type:text"`
	Status         string               `gorm:"type:varchar(20);index;not null;default:'scheduled'"`
	MaxViewers     int                  `gorm:"default:100"`
	CurrentViewers int                  `gorm:"default:0"`
	Products       database.StringArray `gorm:"type:text"`
	ScheduledTime  time.Time            `gorm:"not null"`
	StartedAt      *time.Time
	EndedAt        *time.Time
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for RoomModel.
func (RoomModel) TableName() string {
	return "shopping_rooms"
}

// ToDomain converts RoomModel to domain Room.
func (m *RoomModel) ToDomain() *Room {
	return &Room{
		ID:             m.ID,
		SellerID:       m.SellerID,
		SellerUsername: m.SellerUsername,
		Title:          m.Title,
		Description:    m.Description,
		Status:         RoomStatus(m.Status),
		MaxViewers:     m.MaxViewers,
		CurrentViewers: m.CurrentViewers,
		Products:       []string(m.Products),
		ScheduledTime:  m.ScheduledTime,
		StartedAt:      m.StartedAt,
		EndedAt:        m.EndedAt,
		CreatedAt:      m.CreatedAt,
	}
}

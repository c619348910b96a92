package model

import (
	"github.com/google/uuid"
	"time"
)

type User struct {
	ID        int64     `json:"id"`
	UUID      uuid.UUID `json:"uuid"`
	Banned    bool      `json:"banned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

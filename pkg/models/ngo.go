package models

import "time"

type NGO struct {
	ID                 int       `json:"id" db:"id"`
	UserID             int       `json:"user_id" db:"user_id"`
	Name               string    `json:"name" db:"name"`
	RegistrationNumber string    `json:"registration_number" db:"registration_number"`
	Address            string    `json:"address" db:"address"`
	Latitude           *float64  `json:"latitude,omitempty" db:"latitude"`
	Longitude          *float64  `json:"longitude,omitempty" db:"longitude"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

type Restaurant struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Address   string    `json:"address" db:"address"`
	Latitude  float64   `json:"latitude" db:"latitude"`
	Longitude float64   `json:"longitude" db:"longitude"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type RegisterVolunteerRequest struct {
	VolunteerID int `json:"volunteer_id" binding:"required"`
}

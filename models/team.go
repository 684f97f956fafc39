package models

import "time"

// Team names are unique; Slug is derived from the name and used in URLs.
type Team struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"not null;uniqueIndex" json:"name"`
	Slug        string  `gorm:"not null;uniqueIndex" json:"slug"`
	Country     string  `gorm:"not null" json:"country"`
	Description *string `json:"description,omitempty"`
	CrestURL    string  `gorm:"type:text" json:"crest_url,omitempty"`

	Competitions []*Competition `gorm:"many2many:competition_teams;" json:"-"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TeamUpdate is a partial team; nil fields are left as they are.
type TeamUpdate struct {
	Name        *string `json:"name"`
	Country     *string `json:"country"`
	Description *string `json:"description"`
}

package models

import "time"

type Category string

const (
	CategoryJunior Category = "Junior"
	CategorySenior Category = "Senior"
)

func (c Category) Valid() bool {
	return c == CategoryJunior || c == CategorySenior
}

type Sport string

const (
	SportFootball   Sport = "Football"
	SportVolleyball Sport = "Volleyball"
	SportBasketball Sport = "Basketball"
	SportFutsal     Sport = "Futsal"
)

func (s Sport) Valid() bool {
	switch s {
	case SportFootball, SportVolleyball, SportBasketball, SportFutsal:
		return true
	}
	return false
}

// Competition groups registered teams and the matches played between them.
type Competition struct {
	ID       uint     `gorm:"primaryKey" json:"id"`
	Name     string   `gorm:"not null;uniqueIndex" json:"name"`
	Slug     string   `gorm:"not null;uniqueIndex" json:"slug"`
	Category Category `gorm:"type:varchar(16);not null" json:"category"`
	Sport    Sport    `gorm:"type:varchar(16);not null" json:"sport"`

	Teams   []*Team `gorm:"many2many:competition_teams;" json:"teams"`
	Matches []Match `gorm:"foreignKey:CompetitionID" json:"matches"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// HasTeam reports whether the team id is registered in the competition.
func (c *Competition) HasTeam(teamID uint) bool {
	for _, t := range c.Teams {
		if t.ID == teamID {
			return true
		}
	}
	return false
}

// CompetitionUpdate changes name, category or sport; nil fields are left as they are.
type CompetitionUpdate struct {
	Name     *string   `json:"name"`
	Category *Category `json:"category"`
	Sport    *Sport    `json:"sport"`
}

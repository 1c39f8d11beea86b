package models

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/printshop-backend/pkg/enums"
)

// CustomerProfile extends an identity with business data and a role.
type CustomerProfile struct {
	ID         int64      `json:"id,omitempty" gorm:"column:id;primaryKey;autoIncrement"`
	IdentityID uuid.UUID  `json:"identity_id" gorm:"column:identity_id;type:uuid;not null;uniqueIndex"`
	Name       string     `json:"name" gorm:"column:name;not null"`
	Email      string     `json:"email" gorm:"column:email;not null"`
	Phone      *string    `json:"phone,omitempty" gorm:"column:phone"`
	Address    *string    `json:"address,omitempty" gorm:"column:address"`
	Role       enums.Role `json:"role,omitempty" gorm:"column:role;type:text;not null;default:'customer'"`
}

// IsAdmin reports whether the profile routes to the admin shell.
func (p *CustomerProfile) IsAdmin() bool {
	return p != nil && p.Role == enums.RoleAdmin
}

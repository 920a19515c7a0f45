package models

import "time"

// Comment is a reply to a post. PostID and UserID are fixed at creation.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	CreatedAt time.Time `gorm:"column:created" json:"created"`
	Post      *Post     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"post,omitempty"`
	Author    *User     `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"author,omitempty"`
}

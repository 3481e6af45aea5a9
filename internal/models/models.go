package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account document keyed by email. Profile fields stay empty until
// the user completes the profile step.
type User struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email            string             `bson:"email" json:"email"`
	PasswordHash     string             `bson:"password,omitempty" json:"-"` // password mode only
	Verified         bool               `bson:"verified,omitempty" json:"verified"` // otp mode only
	ProfileCompleted bool               `bson:"profile_completed" json:"profileCompleted"`
	Name             string             `bson:"name,omitempty" json:"name,omitempty"`
	Age              string             `bson:"age,omitempty" json:"age,omitempty"`
	College          string             `bson:"college,omitempty" json:"college,omitempty"`
	Profession       string             `bson:"profession,omitempty" json:"profession,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Comment is embedded in a post; comments are append-only.
type Comment struct {
	User string `bson:"user" json:"user"`
	Text string `bson:"text" json:"text"`
}

// Post is a short text update. ObjectIDs are insertion-ordered, so _id
// descending gives the newest-first feed without a separate sort field.
type Post struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string             `bson:"email" json:"email"`
	Content   string             `bson:"content" json:"content"`
	Likes     []string           `bson:"likes" json:"likes"`
	Comments  []Comment          `bson:"comments" json:"comments"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// LikedBy reports whether the given email is in the post's likes list.
func (p *Post) LikedBy(email string) bool {
	for _, e := range p.Likes {
		if e == email {
			return true
		}
	}
	return false
}

package model

import "time"

// User is the identity record owned by the account service; sessions only reference its ID
type User struct {
	ID          string    `json:"id" bson:"_id"`
	Email       string    `json:"email" bson:"email"`
	DisplayName string    `json:"displayName" bson:"displayName"`
	FCMToken    string    `json:"-" bson:"fcmToken,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}

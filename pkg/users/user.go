package users

import (
	"time"

	"github.com/tapas-app/tapas-backend/pkg/date"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxDeviceTokens is the number of devices a user can register for sync notifications
const MaxDeviceTokens = 10

// User is the model for a user
type User struct {
	ID             primitive.ObjectID `json:"id" bson:"_id" firestore:"-"`
	FirebaseUID    string             `json:"-" bson:"firebaseUid" firestore:"firebaseUid" msgpack:"firebaseUid" validate:"required"`
	Email          string             `json:"email" bson:"email" firestore:"email" validate:"omitempty,email"`
	Name           string             `json:"name" bson:"name" firestore:"name" validate:"max=100"`
	Settings       Settings           `json:"settings" bson:"settings" firestore:"settings"`
	DeviceTokens   []DeviceToken      `json:"-" bson:"deviceTokens" firestore:"deviceTokens" msgpack:"deviceTokens"`
	IsDeactivated  bool               `json:"-" bson:"isDeactivated" firestore:"isDeactivated" msgpack:"isDeactivated"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt" firestore:"createdAt"`
	LastModifiedAt time.Time          `json:"lastModifiedAt" bson:"lastModifiedAt" firestore:"lastModifiedAt"`
}

// Settings are the preferences of a user
type Settings struct {
	Language string `json:"language" bson:"language" firestore:"language" validate:"omitempty,min=2,max=8"`
	DayTime  string `json:"dayTime" bson:"dayTime" firestore:"dayTime"`
	TimeZone string `json:"timeZone" bson:"timeZone" firestore:"timeZone"`
	Theme    string `json:"theme" bson:"theme" firestore:"theme" validate:"omitempty,oneof=light dark system"`
}

// DeviceToken is a Firebase Cloud Messaging registration token
type DeviceToken struct {
	Token          string    `json:"token" bson:"token" firestore:"token"`
	LastRegistered time.Time `json:"lastRegistered" bson:"lastRegistered" firestore:"lastRegistered"`
}

// Location returns the users time zone, UTC if it is not set or unknown
func (s *Settings) Location() *time.Location {
	if s.TimeZone == "" {
		return time.UTC
	}

	location, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return time.UTC
	}

	return location
}

// Rollover returns the time a logical day starts, fallback if it is not set
func (s *Settings) Rollover(fallback date.DayTime) date.DayTime {
	dayTime, err := date.ParseDayTime(s.DayTime)
	if err != nil || s.DayTime == "" {
		return fallback
	}

	return dayTime
}

// Today returns the logical day of the user at instant now
func (u *User) Today(now time.Time, fallback date.DayTime) time.Time {
	return date.Today(now, u.Settings.Location(), u.Settings.Rollover(fallback))
}

// DeviceTokenStrings returns the plain registration tokens
func (u *User) DeviceTokenStrings() []string {
	tokens := make([]string, 0, len(u.DeviceTokens))
	for _, token := range u.DeviceTokens {
		tokens = append(tokens, token.Token)
	}

	return tokens
}

// RemoveDeviceTokens drops the given registration tokens, returning whether any were removed
func (u *User) RemoveDeviceTokens(tokens ...string) bool {
	remove := map[string]bool{}
	for _, token := range tokens {
		remove[token] = true
	}

	kept := []DeviceToken{}
	for _, token := range u.DeviceTokens {
		if !remove[token.Token] {
			kept = append(kept, token)
		}
	}

	removed := len(kept) != len(u.DeviceTokens)
	u.DeviceTokens = kept

	return removed
}

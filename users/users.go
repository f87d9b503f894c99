package users

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ID is a user identifier. The auth API may emit it as a JSON number or string.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// timestampLayouts are tried in order; the second form is what zone-less
// LocalDateTime serializers emit.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// Timestamp is a lenient JSON time. Unparseable values decode to the zero time
// since they are only ever displayed.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil || s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	t.Time = time.Time{}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

type User struct {
	ID        ID         `json:"id"`                  // Unique identifier for the user
	Email     string     `json:"email"`               // User's email address
	FirstName string     `json:"firstName"`           // First name of the user
	LastName  string     `json:"lastName"`            // Last name of the user
	FullName  string     `json:"fullName,omitempty"`  // Display name as computed by the API
	LastLogin *Timestamp `json:"lastLogin,omitempty"` // Last time the user logged in

	PasswordHash string    `json:"-"` // Hashed version of the user's password - never serialize
	DateJoined   time.Time `json:"-"` // Date and time when the user registered
	Blocked      bool      `json:"-"` // Blocked, has the user been blocked from logging in
}

// DisplayName prefers the API supplied full name and falls back to first and last name
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FullName != "" {
		return u.FullName
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Public returns a copy of the user safe to hand to API clients
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	return &User{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.DisplayName(),
		LastLogin: u.LastLogin,
	}
}

// NormalizeEmail lowercases and trims an address for lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

package entity

import (
	"strings"
	"time"
)

// Doctor is the roster entity shifts are assigned to
type Doctor struct {
	ID           uint
	GivenName    string
	FamilyName   string
	Title        string
	DepartmentID *uint
	Phone        string
	Email        string
	Active       bool
	ExternalID   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName returns "given family" without the title
func (d *Doctor) FullName() string {
	return strings.TrimSpace(d.GivenName + " " + d.FamilyName)
}

// DisplayName returns the full name prefixed with the title, if any
func (d *Doctor) DisplayName() string {
	if d.Title == "" {
		return d.FullName()
	}
	return d.Title + " " + d.FullName()
}

// MaskedPhone hides everything but the last four characters of the phone
func (d *Doctor) MaskedPhone() string {
	runes := []rune(d.Phone)
	if len(runes) < 6 {
		return d.Phone
	}
	const visible = 4
	return strings.Repeat("*", len(runes)-visible) + string(runes[len(runes)-visible:])
}

// MaskedEmail keeps the first and last character of the local part and the whole domain
func (d *Doctor) MaskedEmail() string {
	at := strings.LastIndex(d.Email, "@")
	if at <= 0 {
		return d.Email
	}
	local, domain := []rune(d.Email[:at]), d.Email[at+1:]
	var masked string
	if len(local) <= 2 {
		masked = string(local[0]) + strings.Repeat("*", len(local)-1)
	} else {
		masked = string(local[0]) + strings.Repeat("*", len(local)-2) + string(local[len(local)-1])
	}
	return masked + "@" + domain
}

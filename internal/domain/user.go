package domain

import "time"

// User es el registro persistido de una cuenta.
type User struct {
	ID                    string    `json:"userId"`
	Username              string    `json:"username"`
	Email                 string    `json:"-"`
	FirstName             string    `json:"firstName"`
	LastName              string    `json:"lastName"`
	PasswordHash          string    `json:"-"`
	RegistrationCode      int       `json:"-"`
	RegistrationConfirmed bool      `json:"-"`
	CreatedAt             time.Time `json:"-"`
	UpdatedAt             time.Time `json:"-"`
}

// UserView es la representacion publica de un usuario.
type UserView struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (u User) View() UserView {
	return UserView{
		UserID:    u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

package dto

import (
	"net/http"
	"strings"
)

// Register form errors, in the order they are checked.
const (
	ErrMissingUsername  = "You have to enter a username"
	ErrInvalidEmail     = "You have to enter a valid email address"
	ErrMissingPassword  = "You have to enter a password"
	ErrPasswordMismatch = "The two passwords do not match"
	ErrUsernameTaken    = "The username is already taken"
)

// Login form errors.
const (
	ErrInvalidUsername = "Invalid username"
	ErrInvalidPassword = "Invalid password"
)

// RegisterForm is the payload of POST /register.
type RegisterForm struct {
	Username  string
	Email     string
	Password  string
	Password2 string
}

func ParseRegisterForm(r *http.Request) RegisterForm {
	return RegisterForm{
		Username:  r.PostFormValue("username"),
		Email:     r.PostFormValue("email"),
		Password:  r.PostFormValue("password"),
		Password2: r.PostFormValue("password2"),
	}
}

// Validate returns the message of the first failing rule, or "" when the
// form is acceptable. Username availability is checked separately.
func (f RegisterForm) Validate() string {
	switch {
	case f.Username == "":
		return ErrMissingUsername
	case f.Email == "" || !strings.Contains(f.Email, "@"):
		return ErrInvalidEmail
	case f.Password == "":
		return ErrMissingPassword
	case f.Password != f.Password2:
		return ErrPasswordMismatch
	}
	return ""
}

// LoginForm is the payload of POST /login.
type LoginForm struct {
	Username string
	Password string
}

func ParseLoginForm(r *http.Request) LoginForm {
	return LoginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
}

// MessageForm is the payload of POST /add_message.
type MessageForm struct {
	Text string
}

func ParseMessageForm(r *http.Request) MessageForm {
	return MessageForm{Text: r.PostFormValue("text")}
}

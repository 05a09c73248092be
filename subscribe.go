package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"strings"
)

var ErrMaillistNotConfigured = errors.New("mailing list URL is not configured, set VHOURS_MAILLIST_URL")

const (
	msgSubscribed          = "Thank you for subscribing! Please check your email to confirm your subscription."
	msgSubscribeUnknown    = "An unknown error occurred. Please try again later."
	msgSubscribeUnexpected = "An unexpected error occurred. Please try again later."
)

var emailPlaceholders = []string{
	"you@example.com (but cooler)",
	"not.a.robot@trust.me",
	"sneaky.ferret@burrow.org",
	"catlover99@meowmail.com",
	"404email@not.found",
	"banana@fruitmail.org",
	"nope@cantremember.com",
	"placeholder-people@iana.org",
}

func EmailPlaceholder() string {
	return emailPlaceholders[rand.IntN(len(emailPlaceholders))]
}

type SubscribeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type subscribeForm struct {
	Email string `validate:"required,email"`
}

// Subscribe posts the address to the mailing list endpoint and returns the
// message to show. Backend and transport failures collapse into one
// generic message; a response with success=false shows the server's text.
func (c *APIClient) Subscribe(ctx context.Context, formURL, email string) (string, error) {
	if formURL == "" {
		return "", ErrMaillistNotConfigured
	}

	email = strings.TrimSpace(email)
	if err := validate.Struct(subscribeForm{Email: email}); err != nil {
		return "", &ValidationError{Message: "Please enter a valid email address."}
	}

	var res SubscribeResponse
	body := map[string]string{"email": email}
	if _, err := c.do(ctx, http.MethodPost, formURL, body, &res); err != nil {
		c.log.ErrorContext(ctx, "mailing list subscribe failed", "err", err)
		return "", errors.New(msgSubscribeUnexpected)
	}

	if !res.Success {
		if res.Message != "" {
			return "", errors.New(res.Message)
		}
		return "", errors.New(msgSubscribeUnknown)
	}
	return msgSubscribed, nil
}

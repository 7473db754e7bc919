package problem

import (
	"net/http"
	"strconv"
)

const ContentType = "application/problem+json"

type InvalidParam struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// APIError implements error + Problem Details (RFC 7807)
type APIError struct {
	Type          string         `json:"type"`
	Title         string         `json:"title"`
	Status        int            `json:"status"`
	Detail        string         `json:"detail"`
	Instance      string         `json:"instance,omitempty"`
	InvalidParams []InvalidParam `json:"invalidParams,omitempty"`
}

func (e APIError) Error() string { return e.Detail }

func typeFor(status int) string {
	return "https://developer.mozilla.org/en-US/docs/Web/HTTP/Reference/Status/" + strconv.Itoa(status)
}

func newAPIError(status int, instance, detail string, params []InvalidParam) APIError {
	return APIError{
		Type:          typeFor(status),
		Title:         http.StatusText(status),
		Status:        status,
		Detail:        detail,
		Instance:      instance,
		InvalidParams: params,
	}
}

// Constructor for 400 Bad Request
func NewBadRequest(instance, detail string, params ...InvalidParam) APIError {
	return newAPIError(http.StatusBadRequest, instance, detail, params)
}

func NewUnauthorized(instance, detail string) APIError {
	return newAPIError(http.StatusUnauthorized, instance, detail, nil)
}

func NewForbidden(instance, detail string) APIError {
	return newAPIError(http.StatusForbidden, instance, detail, nil)
}

// Constructor for 404 Not Found
func NewNotFound(instance, detail string, params ...InvalidParam) APIError {
	return newAPIError(http.StatusNotFound, instance, detail, params)
}

func NewConflict(instance, detail string) APIError {
	return newAPIError(http.StatusConflict, instance, detail, nil)
}

func NewPayloadTooLarge(instance, detail string) APIError {
	return newAPIError(http.StatusRequestEntityTooLarge, instance, detail, nil)
}

func NewInternalServerError(detail string) APIError {
	return newAPIError(http.StatusInternalServerError, "", detail, nil)
}

package notification

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindInvalidToken       ErrorKind = "invalid_token"
	KindTransient          ErrorKind = "transient"
	KindChannelUnavailable ErrorKind = "channel_unavailable"
)

var (
	ErrInvalidToken       = errors.New("push token is no longer valid")
	ErrTransient          = errors.New("transient delivery failure")
	ErrChannelUnavailable = errors.New("delivery channel unavailable")
)

// DeliveryError wraps the provider error with its classification.
type DeliveryError struct {
	Kind ErrorKind
	Err  error
}

func (e *DeliveryError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match a DeliveryError against the kind sentinels.
func (e *DeliveryError) Is(target error) bool {
	switch target {
	case ErrInvalidToken:
		return e.Kind == KindInvalidToken
	case ErrTransient:
		return e.Kind == KindTransient
	case ErrChannelUnavailable:
		return e.Kind == KindChannelUnavailable
	}
	return false
}

func NewDeliveryError(kind ErrorKind, err error) *DeliveryError {
	return &DeliveryError{Kind: kind, Err: err}
}

// KindOf classifies any error returned by a Channel. Unclassified errors are transient.
func KindOf(err error) ErrorKind {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindTransient
}

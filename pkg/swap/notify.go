package swap

import (
	"errors"
	"strings"
)

// ServiceErrorCode is the code the cloud functions use for application errors
const ServiceErrorCode = 141

// Kind distinguishes notification styles
type Kind int

const (
	KindInfo Kind = iota
	KindError
)

// Notification is a dismissable message with one action button. Keys are
// localization keys, except for customized server messages.
type Notification struct {
	Kind       Kind
	TitleKey   string
	MessageKey string
	ButtonKey  string
	Action     func()
}

// Confirmation is a prompt with confirm and cancel callbacks
type Confirmation struct {
	TitleKey   string
	MessageKey string
	ConfirmKey string
	Confirm    func()
	Cancel     func()
}

// Notifier presents notifications to the user
type Notifier interface {
	AddNotification(n Notification)
	AddConfirmation(c Confirmation)
	RemoveConfirmation()
}

// CodedError is implemented by remote errors that carry a numeric code and
// a pipe-delimited message such as "err.customized|Order expired".
type CodedError interface {
	error
	ErrorCode() int
	ErrorMessage() string
}

const (
	titleTxFailed   = "modal.txFailed.title"
	messageDefault  = "modal.txFailed.contactService"
	buttonRetry     = "button.retry"
	titleDefaultErr = "modal.defaultError.title"
	bodyDefaultErr  = "modal.defaultError.body"
)

var balanceMessages = map[string]string{
	"err.notenoughbalance.btc":  "modal.txFailed.moreBTC",
	"err.notenoughbalance.rbtc": "modal.txFailed.moreRBTC",
	"err.notenoughbalance.rif":  "modal.txFailed.moreRIF",
	"err.notenoughbalance":      "modal.txFailed.moreBalance",
	"err.timeout":               "modal.txFailed.serverTimeout",
}

// NotificationFor maps an exchange failure to the error notification shown
// to the user. Errors without code 141 get the contact-service message.
func NotificationFor(err error) Notification {
	n := Notification{
		Kind:       KindError,
		TitleKey:   titleTxFailed,
		MessageKey: messageDefault,
		ButtonKey:  buttonRetry,
	}

	var coded CodedError
	if !errors.As(err, &coded) || coded.ErrorCode() != ServiceErrorCode {
		return n
	}

	parts := strings.Split(coded.ErrorMessage(), "|")
	if key, ok := balanceMessages[parts[0]]; ok {
		n.MessageKey = key
		return n
	}
	if parts[0] == "err.customized" && len(parts) > 1 && parts[1] != "" {
		n.MessageKey = parts[1]
	}
	return n
}

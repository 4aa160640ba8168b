// Package apperrors определяет типизированные ошибки, общие для шлюза модели,
// адаптера вызовов и конвейера инцидентов.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind - вид ошибки, по которому выбирается сообщение пользователю
type Kind string

const (
	KindCredential   Kind = "credential"
	KindValidation   Kind = "validation"
	KindPrecondition Kind = "precondition"
	KindTransient    Kind = "transient"
)

// Error - ошибка с видом, который выставляет место, обнаружившее проблему
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is сравнивает по виду: errors.Is(err, &Error{Kind: KindCredential})
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op) && (t.Message == "" || t.Message == e.Message)
}

// New создает ошибку с видом и сообщением
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap помечает существующую ошибку видом
func Wrap(kind Kind, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func Credential(op, message string) *Error   { return New(KindCredential, op, message) }
func Validation(op, message string) *Error   { return New(KindValidation, op, message) }
func Precondition(op, message string) *Error { return New(KindPrecondition, op, message) }
func Transient(op string, err error) *Error  { return Wrap(KindTransient, op, err) }

// KindOf возвращает вид ошибки. Для непомеченных ошибок смотрим на текст:
// упоминание "key" или "api" считается ошибкой учетных данных, остальное - временной.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "key") || strings.Contains(msg, "api") {
		return KindCredential
	}
	return KindTransient
}

// IsCredential сообщает, нужно ли показывать ошибку как проблему с ключом
func IsCredential(err error) bool {
	return KindOf(err) == KindCredential
}

// Message возвращает сообщение для пользователя
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}

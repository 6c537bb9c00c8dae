package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// エラー分類コード。HTTP層までそのまま運ぶ。
const (
	CodeInvalidArgument      = "invalid_argument"
	CodeInvalidPayload       = "invalid_payload"
	CodeNotFound             = "not_found"
	CodeForbidden            = "forbidden"
	CodeInvalidState         = "invalid_state"
	CodePolicyViolation      = "policy_violation"
	CodeUnsupportedOperation = "unsupported_operation"
	CodeExecutionError       = "execution_error"
)

type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func AsError(err error) (*Error, bool) {
	var ue *Error
	ok := errors.As(err, &ue)
	return ue, ok
}

// errがこの分類かどうか。
func HasCode(err error, code string) bool {
	ue, ok := AsError(err)
	return ok && ue.Code == code
}

//400 入力不正（enum不一致など）
func NewInvalidArgument(msg string) error {
	return &Error{Status: http.StatusBadRequest, Code: CodeInvalidArgument, Message: msg}
}

//400 payloadの必須欠落・形不正
func NewInvalidPayload(msg string) error {
	return &Error{Status: http.StatusBadRequest, Code: CodeInvalidPayload, Message: msg}
}

//404
func NewNotFound(msg string) error {
	return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Message: msg}
}

//403 起票者以外の編集など
func NewForbidden(msg string) error {
	return &Error{Status: http.StatusForbidden, Code: CodeForbidden, Message: msg}
}

//409 現在の状態から許されない遷移
func NewInvalidState(msg string) error {
	return &Error{Status: http.StatusConflict, Code: CodeInvalidState, Message: msg}
}

//422 ガバナンスルール違反
func NewPolicyViolation(msg string) error {
	return &Error{Status: http.StatusUnprocessableEntity, Code: CodePolicyViolation, Message: msg}
}

//400 dispatch表に無い組み合わせ
func NewUnsupportedOperation(msg string) error {
	return &Error{Status: http.StatusBadRequest, Code: CodeUnsupportedOperation, Message: msg}
}

//502 下流呼び出しの失敗。原因メッセージを包む。
func NewExecutionError(cause error) error {
	return &Error{Status: http.StatusBadGateway, Code: CodeExecutionError, Message: cause.Error()}
}
